package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/monitorctl/monitorctl/internal/xrandr"
	"gopkg.in/yaml.v3"
)

// fileMonitor is the on-disk shape of a ProfileMonitor.
type fileMonitor struct {
	Output     string   `yaml:"output" toml:"output"`
	Desktops   []string `yaml:"desktops,flow" toml:"desktops"`
	Resolution string   `yaml:"resolution,omitempty" toml:"resolution,omitempty"`
	Rotation   string   `yaml:"rotation,omitempty" toml:"rotation,omitempty"`
	RightOf    string   `yaml:"right_of,omitempty" toml:"right_of,omitempty"`
	LeftOf     string   `yaml:"left_of,omitempty" toml:"left_of,omitempty"`
	Above      string   `yaml:"above,omitempty" toml:"above,omitempty"`
	Below      string   `yaml:"below,omitempty" toml:"below,omitempty"`
}

func toFileMonitors(profile *Profile) []fileMonitor {
	monitors := make([]fileMonitor, 0, len(profile.Monitors))
	for _, monitor := range profile.Monitors {
		fm := fileMonitor{Output: monitor.Output, Desktops: monitor.Desktops}
		if fm.Desktops == nil {
			fm.Desktops = []string{}
		}
		if monitor.Resolution != xrandr.AutoResolution {
			fm.Resolution = monitor.Resolution
		}
		if monitor.Rotation != DefaultRotation {
			fm.Rotation = monitor.Rotation
		}
		if monitor.Position != nil {
			switch monitor.Position.Relation {
			case xrandr.RightOf:
				fm.RightOf = monitor.Position.Reference
			case xrandr.LeftOf:
				fm.LeftOf = monitor.Position.Reference
			case xrandr.Above:
				fm.Above = monitor.Position.Reference
			case xrandr.Below:
				fm.Below = monitor.Position.Reference
			}
		}
		monitors = append(monitors, fm)
	}
	return monitors
}

type fileSettings struct {
	OnProfileLoadCmd *string               `yaml:"on_profile_load_cmd,omitempty" toml:"on_profile_load_cmd,omitempty"`
	Notifications    *NotificationsSection `yaml:"notifications,omitempty" toml:"notifications,omitempty"`
	AutoSelect       *AutoSelectSection    `yaml:"auto_select,omitempty" toml:"auto_select,omitempty"`
}

// Marshal renders cfg in the given format, keeping the profile order.
// AppendProfile edits files in place instead; Marshal serves callers that
// write a whole configuration from scratch, such as the test config builder.
func Marshal(fileType FileType, cfg *Config) ([]byte, error) {
	settings := fileSettings{
		OnProfileLoadCmd: cfg.OnProfileLoadCmd,
		Notifications:    cfg.Notifications,
		AutoSelect:       cfg.AutoSelect,
	}

	switch fileType {
	case YAML:
		var doc yaml.Node
		if err := doc.Encode(settings); err != nil {
			return nil, fmt.Errorf("cant encode settings: %w", err)
		}
		doc.Style = 0
		profiles, err := yamlProfiles(cfg.Profiles)
		if err != nil {
			return nil, err
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "profiles"}, profiles)
		return encodeYAML(&doc)
	case TOML:
		buf := new(bytes.Buffer)
		encoder := toml.NewEncoder(buf)
		encoder.Indent = ""
		if err := encoder.Encode(settings); err != nil {
			return nil, fmt.Errorf("cant encode settings: %w", err)
		}
		for _, profile := range cfg.Profiles {
			encoded, err := encodeTOMLProfile(profile)
			if err != nil {
				return nil, err
			}
			buf.WriteString("\n")
			buf.Write(encoded)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported file type %d", fileType)
}

func yamlProfiles(profiles []*Profile) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, profile := range profiles {
		var value yaml.Node
		if err := value.Encode(toFileMonitors(profile)); err != nil {
			return nil, fmt.Errorf("cant encode profile %s: %w", profile.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: profile.Name}, &value)
	}
	return node, nil
}

func encodeYAML(node *yaml.Node) ([]byte, error) {
	buf := new(bytes.Buffer)
	encoder := yaml.NewEncoder(buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(node); err != nil {
		return nil, fmt.Errorf("cant encode yaml: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("cant flush yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeTOMLProfile(profile *Profile) ([]byte, error) {
	buf := new(bytes.Buffer)
	encoder := toml.NewEncoder(buf)
	encoder.Indent = ""
	doc := map[string]map[string][]fileMonitor{
		"profiles": {profile.Name: toFileMonitors(profile)},
	}
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("cant encode profile %s: %w", profile.Name, err)
	}
	return buf.Bytes(), nil
}

// AppendProfile adds profile at the end of the configuration file on disk.
func (c *Config) AppendProfile(profile *Profile) error {
	if _, err := c.FindProfile(profile.Name); err == nil {
		return fmt.Errorf("a profile named %s already exists", profile.Name)
	}

	// nolint:gosec
	content, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("cant read the current config file: %w", err)
	}

	var updated []byte
	switch c.fileType {
	case YAML:
		updated, err = appendYAMLProfile(content, profile)
	case TOML:
		var encoded []byte
		encoded, err = encodeTOMLProfile(profile)
		updated = append(append(bytes.TrimRight(content, "\n"), '\n', '\n'), encoded...)
	}
	if err != nil {
		return err
	}

	if err := utils.WriteAtomic(c.path, updated); err != nil {
		return fmt.Errorf("cant write the final config file: %w", err)
	}
	c.Profiles = append(c.Profiles, profile)
	return nil
}

// appendYAMLProfile edits the document tree so comments and ordering of the rest of the file survive.
func appendYAMLProfile(content []byte, profile *Profile) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("cant parse the current config file: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("config file is not a yaml mapping")
	}

	root := doc.Content[0]
	var profiles *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "profiles" {
			profiles = root.Content[i+1]
			break
		}
	}
	if profiles == nil || profiles.Kind != yaml.MappingNode {
		return nil, errors.New("config file has no profiles mapping")
	}

	encoded, err := yamlProfiles([]*Profile{profile})
	if err != nil {
		return nil, err
	}
	profiles.Content = append(profiles.Content, encoded.Content...)
	profiles.Style = 0
	return encodeYAML(&doc)
}
