// Package signal holds back termination signals while the live layout is being rebuilt.
package signal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Interrupted reports a termination signal that arrived while a guarded operation ran.
type Interrupted struct {
	Signal os.Signal
}

func (i *Interrupted) Error() string {
	return fmt.Sprintf("interrupted by %s", i.Signal)
}

// ExitCode follows the shell convention of 128 + signal number.
func (i *Interrupted) ExitCode() int {
	if sig, ok := i.Signal.(syscall.Signal); ok {
		return 128 + int(sig)
	}
	return 1
}

type Guard struct {
	sigChan  chan os.Signal
	mu       sync.Mutex
	received os.Signal
}

func NewGuard() *Guard {
	return &Guard{
		sigChan: make(chan os.Signal, 1),
	}
}

// Pending reports whether a signal has been held back so far.
func (g *Guard) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.received != nil
}

// Run calls fn with SIGTERM, SIGINT and SIGHUP held back. A signal received
// meanwhile is returned as *Interrupted once fn is done, unless fn failed.
func (g *Guard) Run(ctx context.Context, fn func(context.Context) error) error {
	signal.Notify(g.sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	logrus.Debug("Signal notifications registered for SIGTERM, SIGINT, SIGHUP")

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case sig := <-g.sigChan:
				g.record(sig)
			case <-done:
				return
			}
		}
	}()

	err := fn(ctx)

	signal.Stop(g.sigChan)
	close(done)
	wg.Wait()
	select {
	case sig := <-g.sigChan:
		g.record(sig)
	default:
	}

	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.received != nil {
		return &Interrupted{Signal: g.received}
	}
	return nil
}

func (g *Guard) record(sig os.Signal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	logrus.WithField("signal", sig).Warn("Received termination signal, finishing the current operation first")
	if g.received == nil {
		g.received = sig
	}
}
