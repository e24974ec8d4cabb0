package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/errs"
	"github.com/monitorctl/monitorctl/internal/testutils"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/monitorctl/monitorctl/internal/xrandr"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	loaded []string
	err    error
}

func (r *recorder) NotifyProfileLoaded(profile *config.Profile) error {
	r.loaded = append(r.loaded, profile.Name)
	return r.err
}

func (r *recorder) ProfileLoaded(profile *config.Profile) error {
	r.loaded = append(r.loaded, profile.Name)
	return r.err
}

func captureLogs(t *testing.T) *bytes.Buffer {
	buf := new(bytes.Buffer)
	logrus.SetOutput(buf)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})
	return buf
}

func dockedWorld() *testutils.FakeWorld {
	return testutils.NewFakeWorld().
		WithActiveOutput("eDP1", "1920x1080", 0, 0).
		WithOutput("HDMI1", "2560x1440", true).
		WithOutput("VGA1", "1024x768", false).
		WithPrimary("eDP1").
		WithMonitor("eDP1", "1920x1080+0+0", "1", "2", "3")
}

func profiles() []*config.Profile {
	return []*config.Profile{
		{
			Name: "home",
			Monitors: []*config.ProfileMonitor{
				testutils.ProfileMonitor("eDP1", "1", "2"),
				testutils.Beside(testutils.ProfileMonitor("HDMI1", "3", "web"), xrandr.RightOf, "eDP1"),
			},
		},
		testutils.SingleMonitorProfile("laptop", "eDP1", "1", "2", "3"),
		testutils.SingleMonitorProfile("projector", "VGA1", "1"),
	}
}

func requireFullMatch(c *testutils.TestConfig) *testutils.TestConfig {
	return c.WithAutoSelect(&config.AutoSelectSection{RequireFullMatch: utils.BoolPtr(true)})
}

func newTestApplication(t *testing.T, world *testutils.FakeWorld,
	opts ...func(*testutils.TestConfig) *testutils.TestConfig,
) (*Application, *recorder, *recorder) {
	builder := testutils.NewTestConfig(t).WithProfiles(profiles()...)
	for _, opt := range opts {
		builder = opt(builder)
	}
	cfg := builder.Get()
	application, err := NewApplication(cfg.Path(), world)
	require.NoError(t, err)

	notifier, hook := &recorder{}, &recorder{}
	application.notifications = notifier
	application.hooks = hook
	return application, notifier, hook
}

func TestNewApplication_MissingConfig(t *testing.T) {
	_, err := NewApplication("/nonexistent/profiles.yml", testutils.NewFakeWorld())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestApplication_MonitorStatus(t *testing.T) {
	application, _, _ := newTestApplication(t, dockedWorld())

	statuses, err := application.MonitorStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*MonitorStatus{
		{
			Name: "eDP1", Connected: true, Primary: true,
			Geometry: utils.StringPtr("1920x1080+0+0"),
			Desktops: []string{"1", "2", "3"},
		},
		{Name: "HDMI1", Connected: true},
		{Name: "VGA1"},
	}, statuses)
}

func TestApplication_AutoSelect(t *testing.T) {
	laptopOnly := func() *testutils.FakeWorld {
		return testutils.NewFakeWorld().
			WithActiveOutput("eDP1", "1920x1080", 0, 0).
			WithOutput("HDMI1", "2560x1440", false)
	}
	unknownOutput := func() *testutils.FakeWorld {
		return testutils.NewFakeWorld().WithActiveOutput("DP5", "1920x1080", 0, 0)
	}

	tests := []struct {
		name          string
		world         *testutils.FakeWorld
		fullMatchOnly bool
		expected      string
		expectedScore int
	}{
		{name: "docked prefers the longer prefix", world: dockedWorld(), expected: "home", expectedScore: 2},
		{name: "laptop only ties go to the first profile", world: laptopOnly(), expected: "home", expectedScore: 1},
		{name: "zero score still beats the initial threshold", world: unknownOutput(), expected: "home"},
		{
			name: "full match only skips partial profiles", world: laptopOnly(),
			fullMatchOnly: true, expected: "laptop", expectedScore: 1,
		},
		{name: "full match only and nothing fits", world: unknownOutput(), fullMatchOnly: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []func(*testutils.TestConfig) *testutils.TestConfig
			if tt.fullMatchOnly {
				opts = append(opts, requireFullMatch)
			}
			application, _, _ := newTestApplication(t, tt.world, opts...)
			matched, err := application.AutoSelect(context.Background())
			require.NoError(t, err)
			if tt.expected == "" {
				assert.Nil(t, matched)
				return
			}
			require.NotNil(t, matched)
			assert.Equal(t, tt.expected, matched.Profile.Name)
			assert.Equal(t, tt.expectedScore, matched.Score)
		})
	}
}

func TestApplication_Apply(t *testing.T) {
	logs := captureLogs(t)
	world := dockedWorld()
	application, notifier, hook := newTestApplication(t, world)

	profile, err := application.Apply(context.Background(), "home", false)
	require.NoError(t, err)
	assert.Equal(t, "home", profile.Name)

	assert.Equal(t, []string{"eDP1", "HDMI1"}, world.MonitorNames())
	assert.Equal(t, []string{"1", "2"}, world.DesktopNames("eDP1"))
	assert.Equal(t, []string{"3", "web"}, world.DesktopNames("HDMI1"))
	assert.Equal(t, []string{"home"}, notifier.loaded)
	assert.Equal(t, []string{"home"}, hook.loaded)
	testutils.AssertLogsPresent(t, logs.Bytes(), []utils.LogID{utils.ProfileAppliedLogID})
}

func TestApplication_Apply_DryRun(t *testing.T) {
	logs := captureLogs(t)
	world := dockedWorld()
	application, notifier, hook := newTestApplication(t, world)
	world.ResetCalls()

	profile, err := application.Apply(context.Background(), "home", true)
	require.NoError(t, err)
	assert.Equal(t, "home", profile.Name)

	assert.Empty(t, world.Calls)
	assert.Empty(t, notifier.loaded)
	assert.Empty(t, hook.loaded)
	testutils.AssertLogsPresent(t, logs.Bytes(), []utils.LogID{utils.DryRunLogID})
}

func TestApplication_Apply_SideEffectFailuresAreSwallowed(t *testing.T) {
	world := dockedWorld()
	application, notifier, hook := newTestApplication(t, world)
	notifier.err = errors.New("no session bus")
	hook.err = errors.New("sh: not found")

	_, err := application.Apply(context.Background(), "laptop", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"eDP1"}, world.MonitorNames())
	assert.Equal(t, []string{"laptop"}, hook.loaded)
}

func TestApplication_Apply_Errors(t *testing.T) {
	tests := []struct {
		name        string
		profile     string
		expectedErr error
	}{
		{name: "unknown profile", profile: "office", expectedErr: errs.ErrNotFound},
		{name: "disconnected output", profile: "projector", expectedErr: errs.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			application, notifier, _ := newTestApplication(t, dockedWorld())
			profile, err := application.Apply(context.Background(), tt.profile, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Nil(t, profile)
			assert.Empty(t, notifier.loaded)
		})
	}
}

func TestApplication_ApplyAuto(t *testing.T) {
	world := dockedWorld()
	application, notifier, _ := newTestApplication(t, world)

	profile, err := application.ApplyAuto(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "home", profile.Name)
	assert.Equal(t, []string{"eDP1", "HDMI1"}, world.ActiveOutputs())
	assert.Equal(t, []string{"home"}, notifier.loaded)
}

func TestApplication_ApplyAuto_NoMatch(t *testing.T) {
	world := testutils.NewFakeWorld().
		WithActiveOutput("DP5", "1920x1080", 0, 0).
		WithMonitor("DP5", "1920x1080+0+0", "1")
	application, _, _ := newTestApplication(t, world, requireFullMatch)

	_, err := application.ApplyAuto(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, []string{"DP5"}, world.ActiveOutputs())
}

func TestApplication_ResolveAuto(t *testing.T) {
	world := dockedWorld()
	application, notifier, _ := newTestApplication(t, world)

	profile, err := application.ResolveAuto(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "home", profile.Name)
	assert.Equal(t, []string{"xrandr -q"}, world.Calls, "resolving must not touch the layout")
	assert.Empty(t, notifier.loaded)

	world.ResetCalls()
	require.NoError(t, application.ApplyProfile(context.Background(), profile, false))
	assert.Equal(t, []string{"eDP1", "HDMI1"}, world.ActiveOutputs())
	assert.Equal(t, []string{"home"}, notifier.loaded)
}

func TestApplication_Freeze(t *testing.T) {
	world := dockedWorld()
	application, _, _ := newTestApplication(t, world)

	profile, err := application.Freeze(context.Background(), "frozen")
	require.NoError(t, err)
	assert.Equal(t, []string{"eDP1"}, profile.Outputs())

	reloaded, err := config.Load(application.Config().Path())
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "laptop", "projector", "frozen"}, reloaded.ProfileNames())

	_, err = application.Freeze(context.Background(), "frozen")
	require.Error(t, err)
}
