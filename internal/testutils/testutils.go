// Package testutils provides utils for testing
// should not be imported by any other app packages
package testutils

import (
	"path/filepath"
	"testing"

	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/monitorctl/monitorctl/internal/xrandr"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// TestConfig builds a configuration file on disk and loads it back through config.Load.
type TestConfig struct {
	cfg      *config.Config
	t        *testing.T
	fileType config.FileType
	cfgFile  *string
}

func NewTestConfig(t *testing.T) *TestConfig {
	return &TestConfig{cfg: &config.Config{}, t: t, fileType: config.YAML}
}

func (t *TestConfig) WithProfiles(profiles ...*config.Profile) *TestConfig {
	t.cfg.Profiles = profiles
	return t
}

func (t *TestConfig) WithAutoSelect(a *config.AutoSelectSection) *TestConfig {
	t.cfg.AutoSelect = a
	return t
}

func (t *TestConfig) WithFileType(fileType config.FileType) *TestConfig {
	t.fileType = fileType
	return t
}

func (t *TestConfig) WithConfigPath(path string) *TestConfig {
	t.cfgFile = &path
	return t
}

func (t *TestConfig) SaveToFile() *TestConfig {
	content, err := config.Marshal(t.fileType, t.cfg)
	require.NoError(t.t, err, "cant encode config")
	require.NotNil(t.t, t.cfgFile, "cfgFile cant be nil")
	require.NoError(t.t, utils.WriteAtomic(*t.cfgFile, content), "cant write config")
	return t
}

func (t *TestConfig) createConfig() *config.Config {
	logrus.WithFields(logrus.Fields{"path": *t.cfgFile}).Debug("Creating config")
	cfg, err := config.Load(*t.cfgFile)
	require.NoError(t.t, err, "cant create config")

	return cfg
}

func (t *TestConfig) FillDefaults() *TestConfig {
	if t.cfg.Profiles == nil {
		t = t.WithProfiles(SingleMonitorProfile("laptop", "eDP1", "1", "2", "3"))
	}
	if t.cfgFile == nil {
		name := "profiles.yml"
		if t.fileType == config.TOML {
			name = "profiles.toml"
		}
		t = t.WithConfigPath(filepath.Join(t.t.TempDir(), name))
	}
	return t
}

func (t *TestConfig) Get() *config.Config {
	return t.FillDefaults().SaveToFile().createConfig()
}

// SingleMonitorProfile returns a profile with one auto-configured output.
func SingleMonitorProfile(name, output string, desktops ...string) *config.Profile {
	return &config.Profile{
		Name:     name,
		Monitors: []*config.ProfileMonitor{ProfileMonitor(output, desktops...)},
	}
}

func ProfileMonitor(output string, desktops ...string) *config.ProfileMonitor {
	if desktops == nil {
		desktops = []string{}
	}
	return &config.ProfileMonitor{
		Output:     output,
		Desktops:   desktops,
		Resolution: xrandr.AutoResolution,
		Rotation:   config.DefaultRotation,
	}
}

// Beside returns monitor positioned relative to reference.
func Beside(monitor *config.ProfileMonitor, relation xrandr.Relation, reference string) *config.ProfileMonitor {
	monitor.Position = &xrandr.RelativePosition{Relation: relation, Reference: reference}
	return monitor
}
