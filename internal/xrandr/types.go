package xrandr

import (
	"fmt"
	"strings"
)

// Relation is the placement of an output relative to another one.
type Relation int

const (
	RightOf Relation = iota
	LeftOf
	Above
	Below
)

// Relations lists every relation in the order config keys are checked.
var Relations = []Relation{RightOf, LeftOf, Above, Below}

// Value is the config key spelling, e.g. right_of.
func (r Relation) Value() string {
	switch r {
	case RightOf:
		return "right_of"
	case LeftOf:
		return "left_of"
	case Above:
		return "above"
	case Below:
		return "below"
	}
	return ""
}

// Flag is the xrandr flag spelling, e.g. --right-of.
func (r Relation) Flag() string {
	return "--" + strings.ReplaceAll(r.Value(), "_", "-")
}

type RelativePosition struct {
	Relation  Relation
	Reference string
}

func (p RelativePosition) String() string {
	return fmt.Sprintf("%s %s", p.Relation.Value(), p.Reference)
}

const AutoResolution = "auto"

// Settings describe how an output is turned on.
type Settings struct {
	Resolution string
	Rotation   string
	Position   *RelativePosition
}

// Args renders the settings as xrandr parameters.
func (s Settings) Args() []string {
	args := []string{}
	if s.Resolution == "" || s.Resolution == AutoResolution {
		args = append(args, "--auto")
	} else {
		args = append(args, "--mode", s.Resolution)
	}

	if s.Rotation != "" {
		args = append(args, "--rotate", s.Rotation)
	}

	if s.Position != nil {
		args = append(args, s.Position.Relation.Flag(), s.Position.Reference)
	}
	return args
}

// Output mirrors one line of `xrandr -q`. It is always refreshed by a full re-read.
type Output struct {
	Name      string
	Connected bool
	Primary   bool
	Geometry  *string
	// Rotation is empty for normal orientation.
	Rotation string
}

func (o *Output) String() string {
	state := "disconnected"
	if o.Connected {
		state = "connected"
	}
	parts := []string{o.Name, state}
	if o.Primary {
		parts = append(parts, "primary")
	}
	if o.Geometry != nil {
		parts = append(parts, *o.Geometry)
	}
	return strings.Join(parts, " ")
}

// IsOn reports whether the output is currently driving a mode.
func (o *Output) IsOn() bool {
	return o.Geometry != nil
}

func (o *Output) overwrite(loaded *Output) {
	o.Connected = loaded.Connected
	o.Primary = loaded.Primary
	o.Geometry = loaded.Geometry
	o.Rotation = loaded.Rotation
}

// Geometry is a parsed WxH+X+Y rectangle in screen coordinates.
type Geometry struct {
	Width, Height int
	X, Y          int
}

func ParseGeometry(value string) (Geometry, error) {
	var g Geometry
	if _, err := fmt.Sscanf(value, "%dx%d+%d+%d", &g.Width, &g.Height, &g.X, &g.Y); err != nil {
		return Geometry{}, fmt.Errorf("cant parse geometry %q: %w", value, err)
	}
	return g, nil
}

// Mode is the unrotated WxH mode that produced the geometry.
func (g Geometry) Mode(rotation string) string {
	if rotation == "left" || rotation == "right" {
		return fmt.Sprintf("%dx%d", g.Height, g.Width)
	}
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}
