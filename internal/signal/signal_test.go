package signal

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_Run(t *testing.T) {
	tests := []struct {
		name         string
		sendSignal   bool
		fnErr        error
		expectedErr  error
		expectSignal bool
	}{
		{name: "no signal"},
		{name: "signal held back until the end", sendSignal: true, expectSignal: true},
		{
			name:        "operation error wins over the signal",
			sendSignal:  true,
			fnErr:       errors.New("apply failed"),
			expectedErr: errors.New("apply failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := NewGuard()
			finished := false

			err := guard.Run(context.Background(), func(context.Context) error {
				if tt.sendSignal {
					require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGHUP))
					assert.Eventually(t, guard.Pending, 2*time.Second, 10*time.Millisecond)
				}
				finished = true
				return tt.fnErr
			})

			assert.True(t, finished, "the guarded operation should run to completion")
			switch {
			case tt.expectSignal:
				var interrupted *Interrupted
				require.ErrorAs(t, err, &interrupted)
				assert.Equal(t, syscall.SIGHUP, interrupted.Signal)
				assert.Equal(t, 129, interrupted.ExitCode())
			case tt.expectedErr != nil:
				assert.EqualError(t, err, tt.expectedErr.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}
}
