// Package profilemaker freezes the live output and desktop layout into a new profile appended to the configuration file.
package profilemaker

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/monitorctl/monitorctl/internal/bspc"
	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/monitorctl/monitorctl/internal/xrandr"
	"github.com/sirupsen/logrus"
)

type OutputLister interface {
	ListOutputs(ctx context.Context) ([]*xrandr.Output, error)
}

type TreeLoader interface {
	LoadAll(ctx context.Context) ([]*bspc.Monitor, error)
}

type Service struct {
	cfg     *config.Config
	outputs OutputLister
	tree    TreeLoader
}

func NewService(cfg *config.Config, outputs OutputLister, tree TreeLoader) *Service {
	return &Service{
		cfg:     cfg,
		outputs: outputs,
		tree:    tree,
	}
}

type activeOutput struct {
	output   *xrandr.Output
	geometry xrandr.Geometry
}

func (s *Service) FreezeCurrentAs(ctx context.Context, profileName string) (*config.Profile, error) {
	if err := s.validate(profileName); err != nil {
		return nil, fmt.Errorf("cant validate basic new profile properties: %w", err)
	}

	profile, err := s.prepare(ctx, profileName)
	if err != nil {
		return nil, fmt.Errorf("cant create a new profile: %w", err)
	}

	if err := s.cfg.AppendProfile(profile); err != nil {
		return nil, fmt.Errorf("cant append the profile to the config file: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"profile": profile.Name,
		"outputs": profile.Outputs(),
		"path":    s.cfg.Path(),
	}).Debug("Profile frozen")

	return profile, nil
}

func (s *Service) validate(profileName string) error {
	if profileName == "" {
		return errors.New("profile name cant be empty")
	}
	if _, err := s.cfg.FindProfile(profileName); err == nil {
		return errors.New("a profile with this name already exists")
	}
	return nil
}

func (s *Service) prepare(ctx context.Context, profileName string) (*config.Profile, error) {
	outputs, err := s.outputs.ListOutputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("cant list outputs: %w", err)
	}

	active := []activeOutput{}
	for _, output := range outputs {
		if !output.Connected || !output.IsOn() {
			continue
		}
		geometry, err := xrandr.ParseGeometry(*output.Geometry)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", output.Name, err)
		}
		active = append(active, activeOutput{output: output, geometry: geometry})
	}
	if len(active) == 0 {
		return nil, errors.New("no connected output is turned on")
	}
	slices.SortStableFunc(active, func(a, b activeOutput) int {
		if a.geometry.X != b.geometry.X {
			return a.geometry.X - b.geometry.X
		}
		return a.geometry.Y - b.geometry.Y
	})

	monitors, err := s.tree.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("cant load monitors: %w", err)
	}
	desktops := make(map[string][]string, len(monitors))
	for _, monitor := range monitors {
		desktops[monitor.Name] = monitor.Desktops.Names()
	}

	profile := &config.Profile{Name: profileName, Monitors: []*config.ProfileMonitor{}}
	for i, current := range active {
		rotation := current.output.Rotation
		if rotation == "" {
			rotation = config.DefaultRotation
		}
		names, ok := desktops[current.output.Name]
		if !ok {
			// bspwm cannot keep a monitor without desktops
			logrus.WithField("output", current.output.Name).Warn("Output has no monitor in the tree, giving it a desktop named after it")
			names = []string{current.output.Name}
		}
		profile.Monitors = append(profile.Monitors, &config.ProfileMonitor{
			Output:     current.output.Name,
			Desktops:   names,
			Resolution: current.geometry.Mode(current.output.Rotation),
			Rotation:   rotation,
			Position:   position(active[:i], current),
		})
	}
	return profile, nil
}

// position places current next to the first earlier output it touches,
// falling back to the right of the previous one.
func position(placed []activeOutput, current activeOutput) *xrandr.RelativePosition {
	if len(placed) == 0 {
		return nil
	}
	g := current.geometry
	for _, other := range placed {
		r := other.geometry
		var relation *xrandr.Relation
		switch {
		case g.X == r.X+r.Width && g.Y == r.Y:
			relation = utils.JustPtr(xrandr.RightOf)
		case g.Y == r.Y+r.Height && g.X == r.X:
			relation = utils.JustPtr(xrandr.Below)
		case g.X+g.Width == r.X && g.Y == r.Y:
			relation = utils.JustPtr(xrandr.LeftOf)
		case g.Y+g.Height == r.Y && g.X == r.X:
			relation = utils.JustPtr(xrandr.Above)
		}
		if relation != nil {
			return &xrandr.RelativePosition{Relation: *relation, Reference: other.output.Name}
		}
	}

	previous := placed[len(placed)-1]
	logrus.WithFields(logrus.Fields{
		"output":    current.output.Name,
		"reference": previous.output.Name,
	}).Warn("Output does not touch any other output, placing it right of the previous one")
	return &xrandr.RelativePosition{Relation: xrandr.RightOf, Reference: previous.output.Name}
}
