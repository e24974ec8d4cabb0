package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/monitorctl/monitorctl/internal/xrandr"
	"gopkg.in/yaml.v3"
)

type rawConfig struct {
	hasProfiles      bool
	Profiles         []*rawProfile
	OnProfileLoadCmd *string
	Notifications    *NotificationsSection
	AutoSelect       *AutoSelectSection
}

type rawProfile struct {
	Name     string
	Monitors []*rawMonitor
}

// rawMonitor is one monitor entry as written in the file, before defaults and checks.
type rawMonitor struct {
	Output     *string       `yaml:"output" toml:"output"`
	Desktops   *DesktopNames `yaml:"desktops" toml:"desktops"`
	Resolution *string       `yaml:"resolution" toml:"resolution"`
	Rotation   *string       `yaml:"rotation" toml:"rotation"`
	RightOf    *string       `yaml:"right_of" toml:"right_of"`
	LeftOf     *string       `yaml:"left_of" toml:"left_of"`
	Above      *string       `yaml:"above" toml:"above"`
	Below      *string       `yaml:"below" toml:"below"`
}

func (r *rawMonitor) positions() map[xrandr.Relation]*string {
	return map[xrandr.Relation]*string{
		xrandr.RightOf: r.RightOf,
		xrandr.LeftOf:  r.LeftOf,
		xrandr.Above:   r.Above,
		xrandr.Below:   r.Below,
	}
}

func (p *rawProfile) build() (*Profile, error) {
	profile := &Profile{Name: p.Name, Monitors: []*ProfileMonitor{}}
	for _, raw := range p.Monitors {
		if raw == nil || raw.Output == nil || *raw.Output == "" {
			return nil, fmt.Errorf("profile %s contains an unnamed monitor", p.Name)
		}
		if raw.Desktops == nil || len(*raw.Desktops) == 0 {
			return nil, fmt.Errorf("profile %s contains a monitor with no desktops", p.Name)
		}

		monitor := &ProfileMonitor{
			Output:     *raw.Output,
			Desktops:   slices.Clone([]string(*raw.Desktops)),
			Resolution: xrandr.AutoResolution,
			Rotation:   DefaultRotation,
		}
		if raw.Resolution != nil {
			monitor.Resolution = *raw.Resolution
		}
		if raw.Rotation != nil {
			monitor.Rotation = *raw.Rotation
		}

		positions := raw.positions()
		for _, relation := range xrandr.Relations {
			reference := positions[relation]
			if reference == nil {
				continue
			}
			if monitor.Position != nil {
				return nil, fmt.Errorf("profile %s defines a monitor with multiple positions", p.Name)
			}
			monitor.Position = &xrandr.RelativePosition{Relation: relation, Reference: *reference}
		}

		profile.Monitors = append(profile.Monitors, monitor)
	}
	return profile, nil
}

// DesktopNames accepts desktop names written as any scalar and keeps their literal text.
type DesktopNames []string

func (d *DesktopNames) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: desktops must be a list", node.Line)
	}
	names := DesktopNames{}
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: desktop names must be scalars", item.Line)
		}
		names = append(names, item.Value)
	}
	*d = names
	return nil
}

func (d *DesktopNames) UnmarshalTOML(value any) error {
	items, ok := value.([]any)
	if !ok {
		return fmt.Errorf("desktops must be a list, got %T", value)
	}
	names := DesktopNames{}
	for _, item := range items {
		switch v := item.(type) {
		case string:
			names = append(names, v)
		case int64, float64, bool:
			names = append(names, fmt.Sprint(v))
		default:
			return fmt.Errorf("desktop names must be scalars, got %T", item)
		}
	}
	*d = names
	return nil
}

type yamlDocument struct {
	Profiles         yaml.Node             `yaml:"profiles"`
	OnProfileLoadCmd *string               `yaml:"on_profile_load_cmd"`
	Notifications    *NotificationsSection `yaml:"notifications"`
	AutoSelect       *AutoSelectSection    `yaml:"auto_select"`
}

func decodeYAML(content []byte) (*rawConfig, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}

	raw := &rawConfig{
		OnProfileLoadCmd: doc.OnProfileLoadCmd,
		Notifications:    doc.Notifications,
		AutoSelect:       doc.AutoSelect,
	}

	switch doc.Profiles.Kind {
	case 0:
		return raw, nil
	case yaml.ScalarNode:
		if doc.Profiles.Tag == "!!null" {
			return raw, nil
		}
		return nil, fmt.Errorf("line %d: profiles must be a mapping", doc.Profiles.Line)
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("line %d: profiles must be a mapping", doc.Profiles.Line)
	}

	raw.hasProfiles = true
	for i := 0; i+1 < len(doc.Profiles.Content); i += 2 {
		key, value := doc.Profiles.Content[i], doc.Profiles.Content[i+1]
		profile := &rawProfile{Name: key.Value}
		if err := value.Decode(&profile.Monitors); err != nil {
			return nil, fmt.Errorf("profile %s: %w", key.Value, err)
		}
		raw.Profiles = append(raw.Profiles, profile)
	}
	return raw, nil
}

type tomlDocument struct {
	Profiles         map[string][]*rawMonitor `toml:"profiles"`
	OnProfileLoadCmd *string                  `toml:"on_profile_load_cmd"`
	Notifications    *NotificationsSection    `toml:"notifications"`
	AutoSelect       *AutoSelectSection       `toml:"auto_select"`
}

func decodeTOML(content []byte) (*rawConfig, error) {
	var doc tomlDocument
	md, err := toml.Decode(string(content), &doc)
	if err != nil {
		return nil, err
	}

	raw := &rawConfig{
		hasProfiles:      md.IsDefined("profiles"),
		OnProfileLoadCmd: doc.OnProfileLoadCmd,
		Notifications:    doc.Notifications,
		AutoSelect:       doc.AutoSelect,
	}

	// map iteration is random, the metadata keeps the file order
	seen := map[string]bool{}
	for _, key := range md.Keys() {
		if len(key) != 2 || key[0] != "profiles" || seen[key[1]] {
			continue
		}
		seen[key[1]] = true
		monitors, ok := doc.Profiles[key[1]]
		if !ok {
			return nil, errors.New("profile " + key[1] + " must be an array of tables")
		}
		raw.Profiles = append(raw.Profiles, &rawProfile{Name: key[1], Monitors: monitors})
	}
	return raw, nil
}
