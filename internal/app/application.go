// Package app provides an application runner.
package app

import (
	"context"
	"fmt"

	"github.com/monitorctl/monitorctl/internal/bspc"
	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/errs"
	"github.com/monitorctl/monitorctl/internal/hooks"
	"github.com/monitorctl/monitorctl/internal/matchers"
	"github.com/monitorctl/monitorctl/internal/notifications"
	"github.com/monitorctl/monitorctl/internal/profilemaker"
	"github.com/monitorctl/monitorctl/internal/reconciler"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/monitorctl/monitorctl/internal/xrandr"
	"github.com/sirupsen/logrus"
)

type Notifier interface {
	NotifyProfileLoaded(profile *config.Profile) error
}

type Hook interface {
	ProfileLoaded(profile *config.Profile) error
}

type Application struct {
	cfg           *config.Config
	outputs       *xrandr.Client
	tree          *bspc.Client
	matcher       *matchers.Matcher
	reconciler    *reconciler.Reconciler
	profileMaker  *profilemaker.Service
	notifications Notifier
	hooks         Hook
}

// MonitorStatus joins an xrandr output with its monitor in the tree.
type MonitorStatus struct {
	Name      string
	Connected bool
	Primary   bool
	Geometry  *string
	// Desktops is nil when the tree has no monitor for the output.
	Desktops []string
}

func NewApplication(configPath string, runner utils.Runner) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	outputs := xrandr.NewClient(runner)
	tree := bspc.NewClient(runner)

	return &Application{
		cfg:           cfg,
		outputs:       outputs,
		tree:          tree,
		matcher:       matchers.NewMatcher(),
		reconciler:    reconciler.NewReconciler(outputs, tree),
		profileMaker:  profilemaker.NewService(cfg, outputs, tree),
		notifications: notifications.NewService(cfg),
		hooks:         hooks.NewRunner(cfg),
	}, nil
}

func (a *Application) Config() *config.Config {
	return a.cfg
}

func (a *Application) MonitorStatus(ctx context.Context) ([]*MonitorStatus, error) {
	outputs, err := a.outputs.ListOutputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("cant list outputs: %w", err)
	}
	monitors, err := a.tree.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("cant load monitors: %w", err)
	}
	byName := make(map[string]*bspc.Monitor, len(monitors))
	for _, monitor := range monitors {
		byName[monitor.Name] = monitor
	}

	statuses := make([]*MonitorStatus, 0, len(outputs))
	for _, output := range outputs {
		status := &MonitorStatus{
			Name:      output.Name,
			Connected: output.Connected,
			Primary:   output.Primary,
			Geometry:  output.Geometry,
		}
		if monitor, ok := byName[output.Name]; ok {
			status.Desktops = monitor.Desktops.Names()
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (a *Application) Profile(name string) (*config.Profile, error) {
	profile, err := a.cfg.FindProfile(name)
	if err != nil {
		return nil, fmt.Errorf("cant find profile: %w", err)
	}
	return profile, nil
}

// AutoSelect returns the best profile for the connected outputs, nil when none qualifies.
func (a *Application) AutoSelect(ctx context.Context) (*matchers.MatchedProfile, error) {
	outputs, err := a.outputs.ListOutputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("cant list outputs: %w", err)
	}
	connected := []string{}
	for _, output := range outputs {
		if output.Connected {
			connected = append(connected, output.Name)
		}
	}

	matched := a.matcher.Match(a.cfg, connected)
	if matched == nil {
		logrus.WithField("connected", connected).Info("No matching profile found")
		return nil, nil
	}
	logrus.WithFields(logrus.Fields{
		"profile":    matched.Profile.Name,
		"score":      matched.Score,
		"full_match": matched.FullMatch,
	}).Debug("Profile auto selected")
	return matched, nil
}

func (a *Application) Apply(ctx context.Context, name string, dryRun bool) (*config.Profile, error) {
	profile, err := a.Profile(name)
	if err != nil {
		return nil, err
	}
	if err := a.ApplyProfile(ctx, profile, dryRun); err != nil {
		return nil, err
	}
	return profile, nil
}

func (a *Application) ApplyAuto(ctx context.Context, dryRun bool) (*config.Profile, error) {
	profile, err := a.ResolveAuto(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.ApplyProfile(ctx, profile, dryRun); err != nil {
		return nil, err
	}
	return profile, nil
}

// ResolveAuto is AutoSelect for callers that need a profile.
func (a *Application) ResolveAuto(ctx context.Context) (*config.Profile, error) {
	matched, err := a.AutoSelect(ctx)
	if err != nil {
		return nil, err
	}
	if matched == nil {
		return nil, fmt.Errorf("no profile matches the connected outputs: %w", errs.ErrNotFound)
	}
	return matched.Profile, nil
}

// ApplyProfile reconciles the live layout to profile, then notifies and starts the hook.
// With dryRun it only logs what would be configured.
func (a *Application) ApplyProfile(ctx context.Context, profile *config.Profile, dryRun bool) error {
	profileFields := logrus.Fields{"profile_name": profile.Name, "outputs": profile.Outputs()}

	if dryRun {
		logrus.WithFields(utils.NewLogrusCustomFields(profileFields).WithLogID(utils.DryRunLogID)).
			Info("[DRY RUN] Using profile")
		for _, monitor := range profile.Monitors {
			logrus.WithFields(logrus.Fields{
				"output":       monitor.Output,
				"xrandr_args":  monitor.Settings().Args(),
				"desktops":     monitor.Desktops,
				"profile_name": profile.Name,
			}).Info("[DRY RUN] Would configure output")
		}
		return nil
	}

	logrus.WithFields(profileFields).Info("Using profile")
	if err := a.reconciler.Apply(ctx, profile); err != nil {
		return fmt.Errorf("failed to apply profile: %w", err)
	}
	logrus.WithFields(utils.NewLogrusCustomFields(profileFields).WithLogID(utils.ProfileAppliedLogID)).
		Info("Profile applied")

	if err := a.notifications.NotifyProfileLoaded(profile); err != nil {
		logrus.WithFields(profileFields).WithError(err).Error("swallowing notification error")
	}
	if err := a.hooks.ProfileLoaded(profile); err != nil {
		logrus.WithFields(profileFields).WithError(err).Error("swallowing on_profile_load_cmd error")
	}
	return nil
}

func (a *Application) Freeze(ctx context.Context, name string) (*config.Profile, error) {
	profile, err := a.profileMaker.FreezeCurrentAs(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("cant freeze the current layout: %w", err)
	}
	return profile, nil
}
