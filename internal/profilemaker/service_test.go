package profilemaker_test

import (
	"context"
	"testing"

	"github.com/monitorctl/monitorctl/internal/bspc"
	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/profilemaker"
	"github.com/monitorctl/monitorctl/internal/testutils"
	"github.com/monitorctl/monitorctl/internal/xrandr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(cfg *config.Config, world *testutils.FakeWorld) *profilemaker.Service {
	return profilemaker.NewService(cfg, xrandr.NewClient(world), bspc.NewClient(world))
}

func TestService_FreezeCurrentAs(t *testing.T) {
	tests := []struct {
		name     string
		fileType config.FileType
		world    func() *testutils.FakeWorld
		expected []*config.ProfileMonitor
	}{
		{
			name:     "side by side",
			fileType: config.YAML,
			world: func() *testutils.FakeWorld {
				return testutils.NewFakeWorld().
					WithActiveOutput("HDMI1", "2560x1440", 1920, 0).
					WithActiveOutput("eDP1", "1920x1080", 0, 0).
					WithOutput("VGA1", "1024x768", false).
					WithMonitor("eDP1", "1920x1080+0+0", "1", "2").
					WithMonitor("HDMI1", "2560x1440+1920+0", "web")
			},
			expected: []*config.ProfileMonitor{
				{Output: "eDP1", Desktops: []string{"1", "2"}, Resolution: "1920x1080", Rotation: "normal"},
				{
					Output: "HDMI1", Desktops: []string{"web"}, Resolution: "2560x1440", Rotation: "normal",
					Position: &xrandr.RelativePosition{Relation: xrandr.RightOf, Reference: "eDP1"},
				},
			},
		},
		{
			name:     "stacked and rotated",
			fileType: config.TOML,
			world: func() *testutils.FakeWorld {
				world := testutils.NewFakeWorld().
					WithActiveOutput("DP1", "2560x1440", 0, 0).
					WithActiveOutput("eDP1", "1920x1080", 0, 1440).
					WithActiveOutput("DP2", "1920x1080", 2560, 0).
					WithMonitor("DP1", "2560x1440+0+0", "a").
					WithMonitor("eDP1", "1920x1080+0+1440", "b", "c")
				world.Output("DP2").Rotation = "left"
				return world
			},
			expected: []*config.ProfileMonitor{
				{Output: "DP1", Desktops: []string{"a"}, Resolution: "2560x1440", Rotation: "normal"},
				{
					Output: "eDP1", Desktops: []string{"b", "c"}, Resolution: "1920x1080", Rotation: "normal",
					Position: &xrandr.RelativePosition{Relation: xrandr.Below, Reference: "DP1"},
				},
				{
					Output: "DP2", Desktops: []string{"DP2"}, Resolution: "1920x1080", Rotation: "left",
					Position: &xrandr.RelativePosition{Relation: xrandr.RightOf, Reference: "DP1"},
				},
			},
		},
		{
			name:     "detached output falls back to the previous one",
			fileType: config.YAML,
			world: func() *testutils.FakeWorld {
				return testutils.NewFakeWorld().
					WithActiveOutput("eDP1", "1920x1080", 0, 0).
					WithActiveOutput("HDMI1", "1920x1080", 3000, 500).
					WithMonitor("eDP1", "1920x1080+0+0", "1").
					WithMonitor("HDMI1", "1920x1080+3000+500", "2")
			},
			expected: []*config.ProfileMonitor{
				{Output: "eDP1", Desktops: []string{"1"}, Resolution: "1920x1080", Rotation: "normal"},
				{
					Output: "HDMI1", Desktops: []string{"2"}, Resolution: "1920x1080", Rotation: "normal",
					Position: &xrandr.RelativePosition{Relation: xrandr.RightOf, Reference: "eDP1"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testutils.NewTestConfig(t).WithFileType(tt.fileType).Get()

			profile, err := newService(cfg, tt.world()).FreezeCurrentAs(context.Background(), "frozen")
			require.NoError(t, err)
			assert.Equal(t, "frozen", profile.Name)
			assert.Equal(t, tt.expected, profile.Monitors)

			reloaded, err := config.Load(cfg.Path())
			require.NoError(t, err)
			assert.Equal(t, []string{"laptop", "frozen"}, reloaded.ProfileNames())
			stored, err := reloaded.FindProfile("frozen")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, stored.Monitors)
		})
	}
}

func TestService_FreezeCurrentAs_Errors(t *testing.T) {
	tests := []struct {
		name          string
		profileName   string
		world         *testutils.FakeWorld
		errorContains string
	}{
		{
			name:          "empty name",
			profileName:   "",
			world:         testutils.NewFakeWorld().WithActiveOutput("eDP1", "1920x1080", 0, 0),
			errorContains: "cant be empty",
		},
		{
			name:          "existing profile",
			profileName:   "laptop",
			world:         testutils.NewFakeWorld().WithActiveOutput("eDP1", "1920x1080", 0, 0),
			errorContains: "already exists",
		},
		{
			name:          "nothing turned on",
			profileName:   "frozen",
			world:         testutils.NewFakeWorld().WithOutput("eDP1", "1920x1080", true),
			errorContains: "no connected output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testutils.NewTestConfig(t).Get()

			_, err := newService(cfg, tt.world).FreezeCurrentAs(context.Background(), tt.profileName)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)

			reloaded, err := config.Load(cfg.Path())
			require.NoError(t, err)
			assert.Equal(t, []string{"laptop"}, reloaded.ProfileNames())
		})
	}
}
