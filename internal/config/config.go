// Package config loads the monitor profiles file (YAML or TOML) into a validated, read-only Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/monitorctl/monitorctl/internal/errs"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/monitorctl/monitorctl/internal/xrandr"
	"github.com/sirupsen/logrus"
)

const (
	DefaultConfigPath = "$HOME/.config/monitorctl/profiles.yml"
	DefaultRotation   = "normal"
	DefaultTimeoutMs  = int32(5000)
)

type FileType int

const (
	YAML FileType = iota
	TOML
)

func (f FileType) Value() string {
	switch f {
	case YAML:
		return "yaml"
	case TOML:
		return "toml"
	}
	return ""
}

func fileTypeOf(path string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return YAML, fmt.Errorf("unsupported config extension %q, expected one of [.yml, .yaml, .toml]", filepath.Ext(path))
}

type Config struct {
	path             string
	fileType         FileType
	Profiles         []*Profile
	OnProfileLoadCmd *string
	Notifications    *NotificationsSection
	AutoSelect       *AutoSelectSection
}

type NotificationsSection struct {
	Disabled  *bool  `yaml:"disabled,omitempty" toml:"disabled,omitempty"`
	TimeoutMs *int32 `yaml:"timeout_ms,omitempty" toml:"timeout_ms,omitempty"`
}

type AutoSelectSection struct {
	// RequireFullMatch only considers profiles whose every output is connected.
	RequireFullMatch *bool `yaml:"require_full_match,omitempty" toml:"require_full_match,omitempty"`
}

type Profile struct {
	Name     string
	Monitors []*ProfileMonitor
}

// Outputs lists the declared output names in profile order.
func (p *Profile) Outputs() []string {
	outputs := make([]string, 0, len(p.Monitors))
	for _, monitor := range p.Monitors {
		outputs = append(outputs, monitor.Output)
	}
	return outputs
}

type ProfileMonitor struct {
	Output     string
	Desktops   []string
	Resolution string
	Rotation   string
	Position   *xrandr.RelativePosition
}

func (m *ProfileMonitor) Settings() xrandr.Settings {
	return xrandr.Settings{
		Resolution: m.Resolution,
		Rotation:   m.Rotation,
		Position:   m.Position,
	}
}

// HasDesktop reports whether name is declared for this monitor.
func (m *ProfileMonitor) HasDesktop(name string) bool {
	for _, desktop := range m.Desktops {
		if desktop == name {
			return true
		}
	}
	return false
}

func Load(configPath string) (*Config, error) {
	configPath = os.ExpandEnv(configPath)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file %s not found: %w", configPath, errs.ErrInvalidConfig)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("cant convert config path to abs %w", err)
	}

	fileType, err := fileTypeOf(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidConfig, err)
	}

	// nolint:gosec
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("cant read configuration file %s: %w", absPath, err)
	}

	var raw *rawConfig
	switch fileType {
	case YAML:
		raw, err = decodeYAML(content)
	case TOML:
		raw, err = decodeTOML(content)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w: %w", fileType.Value(), errs.ErrInvalidConfig, err)
	}

	cfg := &Config{
		path:             absPath,
		fileType:         fileType,
		OnProfileLoadCmd: raw.OnProfileLoadCmd,
		Notifications:    raw.Notifications,
		AutoSelect:       raw.AutoSelect,
	}
	if err := cfg.build(raw); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w: %w", absPath, errs.ErrInvalidConfig, err)
	}

	logrus.WithFields(logrus.Fields{
		"path":     absPath,
		"format":   fileType.Value(),
		"profiles": len(cfg.Profiles),
	}).Debug("Configuration loaded")
	return cfg, nil
}

func (c *Config) build(raw *rawConfig) error {
	if !raw.hasProfiles {
		return errors.New("no profiles section defined")
	}

	for _, rawProfile := range raw.Profiles {
		profile, err := rawProfile.build()
		if err != nil {
			return err
		}
		c.Profiles = append(c.Profiles, profile)
	}

	if c.Notifications == nil {
		c.Notifications = &NotificationsSection{}
	}
	if err := c.Notifications.Validate(); err != nil {
		return fmt.Errorf("notifications section validation failed: %w", err)
	}

	if c.AutoSelect == nil {
		c.AutoSelect = &AutoSelectSection{}
	}
	c.AutoSelect.Validate()

	if c.OnProfileLoadCmd != nil && strings.TrimSpace(*c.OnProfileLoadCmd) == "" {
		c.OnProfileLoadCmd = nil
	}

	return nil
}

func (n *NotificationsSection) Validate() error {
	if n.Disabled == nil {
		n.Disabled = utils.BoolPtr(false)
	}
	if n.TimeoutMs == nil {
		n.TimeoutMs = utils.JustPtr(DefaultTimeoutMs)
	}
	if *n.TimeoutMs < 0 {
		return errors.New("timeout_ms cant be negative")
	}
	return nil
}

func (a *AutoSelectSection) Validate() {
	if a.RequireFullMatch == nil {
		a.RequireFullMatch = utils.BoolPtr(false)
	}
}

func (c *Config) Path() string {
	return c.path
}

func (c *Config) FileType() FileType {
	return c.fileType
}

// FindProfile returns the first profile named name.
func (c *Config) FindProfile(name string) (*Profile, error) {
	for _, profile := range c.Profiles {
		if profile.Name == name {
			return profile, nil
		}
	}
	return nil, fmt.Errorf("profile '%s': %w", name, errs.ErrNotFound)
}

func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, profile := range c.Profiles {
		names = append(names, profile.Name)
	}
	return names
}
