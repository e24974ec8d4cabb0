// Package reconciler moves the live xrandr/bspwm state to a profile in two phases:
// every desktop is parked on a dummy monitor and every output is turned off,
// then the profile's outputs, monitors and desktops are rebuilt.
package reconciler

import (
	"context"
	"fmt"

	"github.com/monitorctl/monitorctl/internal/bspc"
	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/errs"
	"github.com/monitorctl/monitorctl/internal/xrandr"
	"github.com/sirupsen/logrus"
)

const (
	DummyMonitorName     = "DUMMY"
	DummyMonitorGeometry = "800x600+0+0"
	throwawayDesktopName = "DUMMY"
)

type OutputManager interface {
	ListOutputs(ctx context.Context) ([]*xrandr.Output, error)
	TurnOn(ctx context.Context, output *xrandr.Output, settings xrandr.Settings) error
	TurnOff(ctx context.Context, output *xrandr.Output) error
}

type TreeManager interface {
	Load(ctx context.Context, name string) (*bspc.Monitor, error)
	LoadAll(ctx context.Context) ([]*bspc.Monitor, error)
	AddMonitor(ctx context.Context, name, geometry string) (*bspc.Monitor, error)
}

type Reconciler struct {
	outputs OutputManager
	tree    TreeManager
}

func NewReconciler(outputs OutputManager, tree TreeManager) *Reconciler {
	return &Reconciler{outputs: outputs, tree: tree}
}

// Apply runs both phases for profile.
func (r *Reconciler) Apply(ctx context.Context, profile *config.Profile) error {
	if len(profile.Monitors) == 0 {
		return fmt.Errorf("profile %s declares no monitors: %w", profile.Name, errs.ErrInvalidConfig)
	}
	dummy, err := r.DisableAll(ctx)
	if err != nil {
		return fmt.Errorf("cant disable current monitors: %w", err)
	}
	if err := r.ApplyProfile(ctx, profile, dummy); err != nil {
		return fmt.Errorf("cant apply profile %s: %w", profile.Name, err)
	}
	return nil
}

// DisableAll parks every desktop on the dummy monitor, removes the other
// monitors and turns every output off. The tree is never left without a monitor.
func (r *Reconciler) DisableAll(ctx context.Context) (*bspc.Monitor, error) {
	dummy, err := r.dummyMonitor(ctx)
	if err != nil {
		return nil, err
	}

	monitors, err := r.tree.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("cant load monitors: %w", err)
	}

	for _, monitor := range monitors {
		if monitor.Key() == dummy.Key() || !monitor.Bound() {
			continue
		}
		if err := r.evacuate(ctx, monitor, dummy); err != nil {
			return nil, err
		}
	}

	outputs, err := r.outputs.ListOutputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("cant list outputs: %w", err)
	}
	for _, output := range outputs {
		if err := r.outputs.TurnOff(ctx, output); err != nil {
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"monitor":  dummy.String(),
		"desktops": dummy.Desktops.Names(),
	}).Debug("All monitors disabled")
	return dummy, nil
}

// dummyMonitor creates the dummy monitor, or reuses the one an interrupted run
// left behind since monitors are looked up by name. A reused dummy gets a
// throwaway desktop so it keeps one once its parked desktops are handed out.
func (r *Reconciler) dummyMonitor(ctx context.Context) (*bspc.Monitor, error) {
	dummy, err := r.tree.Load(ctx, DummyMonitorName)
	if err != nil {
		return nil, fmt.Errorf("cant load dummy monitor: %w", err)
	}
	if dummy.Bound() {
		logrus.WithFields(logrus.Fields{
			"monitor":  dummy.String(),
			"desktops": dummy.Desktops.Names(),
		}).Warn("Reusing a dummy monitor left by an interrupted run")
		if _, err := dummy.AddDesktop(ctx, throwawayDesktopName); err != nil {
			return nil, fmt.Errorf("cant prepare leftover dummy monitor: %w", err)
		}
		return dummy, nil
	}

	dummy, err = r.tree.AddMonitor(ctx, DummyMonitorName, DummyMonitorGeometry)
	if err != nil {
		return nil, fmt.Errorf("cant create dummy monitor: %w", err)
	}
	if !dummy.Bound() {
		return nil, fmt.Errorf("dummy monitor missing after creation: %w", errs.ErrInconsistentState)
	}
	logrus.WithField("monitor", dummy.String()).Debug("Dummy monitor created")
	return dummy, nil
}

// evacuate moves the desktops of monitor onto dummy and removes monitor. A
// throwaway desktop is created first so the monitor is never left without
// one; it is dropped together with the monitor.
func (r *Reconciler) evacuate(ctx context.Context, monitor, dummy *bspc.Monitor) error {
	throwaway, err := monitor.AddDesktop(ctx, throwawayDesktopName)
	if err != nil {
		return fmt.Errorf("cant prepare monitor %s for removal: %w", monitor, err)
	}

	for _, desktop := range monitor.Desktops {
		if desktop.Key() == throwaway.Key() {
			continue
		}
		if err := dummy.MoveDesktopHere(ctx, desktop); err != nil {
			return err
		}
	}

	if err := monitor.Remove(ctx); err != nil {
		return err
	}
	logrus.WithField("monitor", monitor.Name).Debug("Monitor evacuated")
	return nil
}

// ApplyProfile turns on the profile outputs and hands them their desktops,
// taken from dummy when it holds one with the same name. Monitors that are
// not part of the profile, dummy included, are removed at the end.
func (r *Reconciler) ApplyProfile(ctx context.Context, profile *config.Profile, dummy *bspc.Monitor) error {
	if len(profile.Monitors) == 0 {
		return fmt.Errorf("profile %s declares no monitors: %w", profile.Name, errs.ErrInvalidConfig)
	}
	outputs, err := r.outputs.ListOutputs(ctx)
	if err != nil {
		return fmt.Errorf("cant list outputs: %w", err)
	}
	outputsByName := make(map[string]*xrandr.Output, len(outputs))
	for _, output := range outputs {
		if _, ok := outputsByName[output.Name]; !ok {
			outputsByName[output.Name] = output
		}
	}

	// snapshot taken once; a desktop handed to a monitor is not offered to the next ones
	parked := dummy.Desktops.ByName()

	for _, profileMonitor := range profile.Monitors {
		output, ok := outputsByName[profileMonitor.Output]
		if !ok {
			return fmt.Errorf("output %s of profile %s: %w", profileMonitor.Output, profile.Name, errs.ErrNotFound)
		}
		if err := r.configureMonitor(ctx, profileMonitor, output, parked); err != nil {
			return err
		}
	}

	declared := make(map[string]bool, len(profile.Monitors))
	for _, name := range profile.Outputs() {
		declared[name] = true
	}
	monitors, err := r.tree.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("cant load monitors: %w", err)
	}
	for _, monitor := range monitors {
		if declared[monitor.Name] || !monitor.Bound() {
			continue
		}
		if err := monitor.Remove(ctx); err != nil {
			return err
		}
	}

	logrus.WithField("profile", profile.Name).Debug("Profile monitors configured")
	return nil
}

func (r *Reconciler) configureMonitor(ctx context.Context, profileMonitor *config.ProfileMonitor,
	output *xrandr.Output, parked map[string]bspc.Desktop,
) error {
	fields := logrus.Fields{"output": output.Name}
	if err := r.outputs.TurnOn(ctx, output, profileMonitor.Settings()); err != nil {
		return err
	}
	logrus.WithFields(fields).WithField("output_state", output.String()).Debug("Output turned on")

	monitor, err := r.tree.Load(ctx, output.Name)
	if err != nil {
		return fmt.Errorf("cant load monitor %s: %w", output.Name, err)
	}
	if !monitor.Bound() {
		if output.Geometry == nil {
			return fmt.Errorf("output %s has no geometry after turning it on: %w", output.Name, errs.ErrNotFound)
		}
		monitor, err = r.tree.AddMonitor(ctx, output.Name, *output.Geometry)
		if err != nil {
			return fmt.Errorf("cant create monitor %s: %w", output.Name, err)
		}
		if !monitor.Bound() {
			return fmt.Errorf("monitor %s missing after creation: %w", output.Name, errs.ErrInconsistentState)
		}
	}

	for _, name := range profileMonitor.Desktops {
		if desktop, ok := parked[name]; ok {
			delete(parked, name)
			if err := monitor.MoveDesktopHere(ctx, desktop); err != nil {
				return err
			}
			continue
		}
		if _, err := monitor.AddDesktop(ctx, name); err != nil {
			return err
		}
	}

	for _, desktop := range monitor.Desktops {
		if profileMonitor.HasDesktop(desktop.Name) {
			continue
		}
		if err := monitor.RemoveDesktop(ctx, desktop); err != nil {
			return err
		}
	}

	logrus.WithFields(fields).WithField("desktops", monitor.Desktops.Names()).Debug("Monitor configured")
	return nil
}
