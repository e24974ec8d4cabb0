package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/monitorctl/monitorctl/internal/errs"
	"github.com/monitorctl/monitorctl/internal/xrandr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		configFile    string
		expectError   bool
		errorContains string
		validate      func(*testing.T, *Config)
	}{
		{
			name:       "valid basic yaml config",
			configFile: "valid_basic.yml",
			validate: func(t *testing.T, c *Config) {
				assertBasicProfiles(t, c)
				assert.Equal(t, YAML, c.FileType())
				assert.False(t, *c.AutoSelect.RequireFullMatch)
			},
		},
		{
			name:       "valid basic toml config",
			configFile: "valid_basic.toml",
			validate: func(t *testing.T, c *Config) {
				assertBasicProfiles(t, c)
				assert.Equal(t, TOML, c.FileType())
				assert.True(t, *c.AutoSelect.RequireFullMatch)
			},
		},
		{
			name:       "valid minimal config",
			configFile: "valid_minimal.yml",
			validate: func(t *testing.T, c *Config) {
				require.Len(t, c.Profiles, 1)
				assert.Nil(t, c.OnProfileLoadCmd)
				assert.False(t, *c.Notifications.Disabled)
				assert.Equal(t, DefaultTimeoutMs, *c.Notifications.TimeoutMs)
				assert.False(t, *c.AutoSelect.RequireFullMatch)

				monitor := c.Profiles[0].Monitors[0]
				assert.Equal(t, xrandr.AutoResolution, monitor.Resolution)
				assert.Equal(t, DefaultRotation, monitor.Rotation)
				assert.Nil(t, monitor.Position)
				assert.Equal(t, []string{"1"}, monitor.Desktops)
			},
		},
		{
			name:          "invalid - no profiles section",
			configFile:    "invalid_no_profiles.yml",
			expectError:   true,
			errorContains: "no profiles section defined",
		},
		{
			name:          "invalid - no profiles section in toml",
			configFile:    "invalid_no_profiles.toml",
			expectError:   true,
			errorContains: "no profiles section defined",
		},
		{
			name:          "invalid - monitor without desktops",
			configFile:    "invalid_missing_desktops.yml",
			expectError:   true,
			errorContains: "profile docked contains a monitor with no desktops",
		},
		{
			name:          "invalid - monitor without desktops in toml",
			configFile:    "invalid_missing_desktops.toml",
			expectError:   true,
			errorContains: "profile docked contains a monitor with no desktops",
		},
		{
			name:          "invalid - empty desktop list",
			configFile:    "invalid_empty_desktops.yml",
			expectError:   true,
			errorContains: "profile docked contains a monitor with no desktops",
		},
		{
			name:          "invalid - monitor without output",
			configFile:    "invalid_missing_output.yml",
			expectError:   true,
			errorContains: "profile docked contains an unnamed monitor",
		},
		{
			name:          "invalid - multiple positions",
			configFile:    "invalid_multiple_positions.yml",
			expectError:   true,
			errorContains: "profile docked defines a monitor with multiple positions",
		},
		{
			name:          "invalid - duplicated position key",
			configFile:    "invalid_duplicate_position.yml",
			expectError:   true,
			errorContains: "already defined",
		},
		{
			name:          "invalid - desktops is not a list",
			configFile:    "invalid_desktops_not_list.yml",
			expectError:   true,
			errorContains: "desktops must be a list",
		},
		{
			name:          "invalid - negative timeout",
			configFile:    "invalid_negative_timeout.yml",
			expectError:   true,
			errorContains: "timeout_ms cant be negative",
		},
		{
			name:          "invalid - unsupported extension",
			configFile:    "invalid_extension.json",
			expectError:   true,
			errorContains: "unsupported config extension",
		},
		{
			name:          "file not found",
			configFile:    "nonexistent.yml",
			expectError:   true,
			errorContains: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join("testdata", tt.configFile)

			config, err := Load(configPath)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, errs.ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, config)
			if tt.validate != nil {
				tt.validate(t, config)
			}
		})
	}
}

func assertBasicProfiles(t *testing.T, c *Config) {
	t.Helper()

	assert.Equal(t, []string{"home", "laptop", "office"}, c.ProfileNames(), "file order is kept")
	require.NotNil(t, c.OnProfileLoadCmd)
	assert.Equal(t, "nitrogen --restore", *c.OnProfileLoadCmd)
	assert.Equal(t, int32(2000), *c.Notifications.TimeoutMs)

	home, err := c.FindProfile("home")
	require.NoError(t, err)
	require.Len(t, home.Monitors, 2)
	assert.Equal(t, []string{"eDP1", "HDMI1"}, home.Outputs())

	laptopScreen := home.Monitors[0]
	assert.Equal(t, []string{"1", "2", "3"}, laptopScreen.Desktops, "numeric desktops are kept as text")
	assert.Equal(t, "1920x1080", laptopScreen.Resolution)
	assert.Equal(t, DefaultRotation, laptopScreen.Rotation)
	assert.Nil(t, laptopScreen.Position)

	external := home.Monitors[1]
	assert.Equal(t, xrandr.AutoResolution, external.Resolution)
	assert.Equal(t, "left", external.Rotation)
	assert.Equal(t, &xrandr.RelativePosition{Relation: xrandr.RightOf, Reference: "eDP1"}, external.Position)
	assert.True(t, external.HasDesktop("chat"))
	assert.False(t, external.HasDesktop("1"))

	office, err := c.FindProfile("office")
	require.NoError(t, err)
	assert.Equal(t, &xrandr.RelativePosition{Relation: xrandr.Above, Reference: "eDP1"}, office.Monitors[0].Position)
	assert.Equal(t, xrandr.Settings{
		Resolution: xrandr.AutoResolution,
		Rotation:   DefaultRotation,
		Position:   &xrandr.RelativePosition{Relation: xrandr.Above, Reference: "eDP1"},
	}, office.Monitors[0].Settings())

	laptop, err := c.FindProfile("laptop")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "web", "chat"}, laptop.Monitors[0].Desktops)
}

func TestConfig_FindProfile(t *testing.T) {
	c := &Config{Profiles: []*Profile{
		{Name: "docked", Monitors: []*ProfileMonitor{{Output: "HDMI1"}}},
		{Name: "docked", Monitors: []*ProfileMonitor{{Output: "DP1"}}},
	}}

	profile, err := c.FindProfile("docked")
	require.NoError(t, err)
	assert.Equal(t, []string{"HDMI1"}, profile.Outputs(), "first match wins")

	_, err = c.FindProfile("missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
	assert.Contains(t, err.Error(), "profile 'missing'")
}

func TestLoad_ExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MONITORCTL_TEST_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profiles.yaml"),
		[]byte("profiles:\n  solo:\n    - output: eDP1\n      desktops: [1]\n      on_unknown_key: ignored\n"), 0o600))

	cfg, err := Load("$MONITORCTL_TEST_DIR/profiles.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "profiles.yaml"), cfg.Path())
	assert.Equal(t, []string{"solo"}, cfg.ProfileNames())
}

func TestLoad_BlankHookIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yml")
	require.NoError(t, os.WriteFile(path,
		[]byte("on_profile_load_cmd: \"  \"\nprofiles:\n  solo:\n    - output: eDP1\n      desktops: [1]\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.OnProfileLoadCmd)
}
