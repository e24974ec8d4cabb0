// Package hooks runs the user command configured for after a profile is loaded.
package hooks

import (
	"fmt"

	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/sirupsen/logrus"
)

var runDetached = utils.RunDetached

type Runner struct {
	config *config.Config
}

func NewRunner(cfg *config.Config) *Runner {
	return &Runner{config: cfg}
}

// ProfileLoaded starts on_profile_load_cmd without waiting for it; its output is discarded.
func (r *Runner) ProfileLoaded(profile *config.Profile) error {
	if r.config.OnProfileLoadCmd == nil {
		return nil
	}

	cmd := *r.config.OnProfileLoadCmd
	fields := utils.NewLogrusCustomFields(logrus.Fields{"profile": profile.Name, "cmd": cmd})
	if err := runDetached(cmd); err != nil {
		return fmt.Errorf("cant start on_profile_load_cmd for %s: %w", profile.Name, err)
	}
	logrus.WithFields(fields.WithLogID(utils.HookStartedLogID)).Info("Profile load hook started")
	return nil
}
