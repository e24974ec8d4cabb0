package testutils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/monitorctl/monitorctl/internal/utils"
)

const rotations = "(normal left inverted right x axis y axis)"

// FakeOutput is a physical output as xrandr would report it.
type FakeOutput struct {
	Name          string
	Connected     bool
	Primary       bool
	PreferredMode string
	On            bool
	Mode          string
	Rotation      string
	X, Y          int
}

func (o *FakeOutput) size() (int, int) {
	w, h := parseMode(o.Mode)
	if o.Rotation == "left" || o.Rotation == "right" {
		return h, w
	}
	return w, h
}

// Geometry renders WxH+X+Y, empty when the output is off.
func (o *FakeOutput) Geometry() string {
	if !o.On {
		return ""
	}
	w, h := o.size()
	return fmt.Sprintf("%dx%d+%d+%d", w, h, o.X, o.Y)
}

type FakeDesktop struct {
	ID   uint32
	Name string
}

type FakeMonitor struct {
	ID       uint32
	Name     string
	Geometry string
	Desktops []*FakeDesktop
}

// FakeWorld implements utils.Runner and simulates xrandr and bspwm.
// Like bspwm it refuses to leave a monitor without desktops or the tree without monitors,
// and gives every new monitor a default desktop.
type FakeWorld struct {
	Outputs  []*FakeOutput
	Monitors []*FakeMonitor
	Calls    []string
	Failures map[string]error
	nextID   uint32
}

func NewFakeWorld() *FakeWorld {
	return &FakeWorld{Failures: map[string]error{}, nextID: 0x00200000}
}

func (w *FakeWorld) WithOutput(name, preferredMode string, connected bool) *FakeWorld {
	w.Outputs = append(w.Outputs, &FakeOutput{
		Name: name, Connected: connected, PreferredMode: preferredMode, Rotation: "normal",
	})
	return w
}

// WithActiveOutput adds a connected output that is already on at the given offset.
func (w *FakeWorld) WithActiveOutput(name, mode string, x, y int) *FakeWorld {
	w.Outputs = append(w.Outputs, &FakeOutput{
		Name: name, Connected: true, PreferredMode: mode, On: true, Mode: mode,
		Rotation: "normal", X: x, Y: y,
	})
	return w
}

func (w *FakeWorld) WithPrimary(name string) *FakeWorld {
	for _, output := range w.Outputs {
		output.Primary = output.Name == name
	}
	return w
}

func (w *FakeWorld) WithMonitor(name, geometry string, desktops ...string) *FakeWorld {
	monitor := &FakeMonitor{ID: w.id(), Name: name, Geometry: geometry}
	for _, desktop := range desktops {
		monitor.Desktops = append(monitor.Desktops, &FakeDesktop{ID: w.id(), Name: desktop})
	}
	w.Monitors = append(w.Monitors, monitor)
	return w
}

// FailOn makes the exact call (binary and args joined by spaces) exit with status 1.
func (w *FakeWorld) FailOn(call string) *FakeWorld {
	w.Failures[call] = nil
	return w
}

func (w *FakeWorld) id() uint32 {
	w.nextID++
	return w.nextID
}

func (w *FakeWorld) Run(_ context.Context, name string, args ...string) (string, error) {
	call := strings.TrimSpace(name + " " + strings.Join(args, " "))
	w.Calls = append(w.Calls, call)
	if err, ok := w.Failures[call]; ok {
		if err == nil {
			err = errors.New("injected failure")
		}
		return "", w.exit(name, args, err)
	}

	var (
		out string
		err error
	)
	switch name {
	case "xrandr":
		out, err = w.xrandr(args)
	case "bspc":
		out, err = w.bspc(args)
	default:
		return "", &utils.CommandError{Name: name, Args: args, Err: errors.New("executable file not found in $PATH")}
	}
	if err != nil {
		return "", w.exit(name, args, err)
	}
	return strings.TrimSpace(out), nil
}

func (w *FakeWorld) exit(name string, args []string, err error) error {
	return &utils.CommandError{
		Name: name, Args: args, ExitCode: 1, Stderr: err.Error(),
		Err: errors.New("exit status 1"),
	}
}

func (w *FakeWorld) output(name string) *FakeOutput {
	for _, output := range w.Outputs {
		if output.Name == name {
			return output
		}
	}
	return nil
}

// Output returns the simulated output or nil.
func (w *FakeWorld) Output(name string) *FakeOutput {
	return w.output(name)
}

func (w *FakeWorld) xrandr(args []string) (string, error) {
	if len(args) == 1 && args[0] == "-q" {
		return w.renderXrandr(), nil
	}
	if len(args) < 2 || args[0] != "--output" {
		return "", fmt.Errorf("unsupported xrandr call %v", args)
	}

	output := w.output(args[1])
	if output == nil {
		return "", fmt.Errorf("warning: output %s not found; ignoring", args[1])
	}

	mode, rotation := "", output.Rotation
	var relation, reference string
	off := false
	for i := 2; i < len(args); i++ {
		switch args[i] {
		case "--off":
			off = true
		case "--auto":
			mode = output.PreferredMode
		case "--mode", "--rotate", "--right-of", "--left-of", "--above", "--below":
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s requires an argument", args[i])
			}
			value := args[i+1]
			i++
			switch args[i-1] {
			case "--mode":
				mode = value
			case "--rotate":
				rotation = value
			default:
				relation, reference = args[i-1], value
			}
		default:
			return "", fmt.Errorf("unrecognized option '%s'", args[i])
		}
	}

	if off || (!output.Connected && mode == output.PreferredMode) {
		output.On = false
		return "", nil
	}
	if !output.Connected {
		return "", fmt.Errorf("cannot find mode %s for disconnected output %s", mode, output.Name)
	}

	output.On = true
	output.Mode = mode
	output.Rotation = rotation
	if relation != "" {
		ref := w.output(reference)
		if ref == nil || !ref.On {
			return "", fmt.Errorf("output %s is not active", reference)
		}
		ow, oh := output.size()
		rw, rh := ref.size()
		switch relation {
		case "--right-of":
			output.X, output.Y = ref.X+rw, ref.Y
		case "--left-of":
			output.X, output.Y = ref.X-ow, ref.Y
		case "--above":
			output.X, output.Y = ref.X, ref.Y-oh
		case "--below":
			output.X, output.Y = ref.X, ref.Y+rh
		}
	}
	w.normalize()
	return "", nil
}

func (w *FakeWorld) normalize() {
	minX, minY := 0, 0
	first := true
	for _, output := range w.Outputs {
		if !output.On {
			continue
		}
		if first || output.X < minX {
			minX = output.X
		}
		if first || output.Y < minY {
			minY = output.Y
		}
		first = false
	}
	for _, output := range w.Outputs {
		if output.On {
			output.X -= minX
			output.Y -= minY
		}
	}
}

func (w *FakeWorld) renderXrandr() string {
	width, height := 0, 0
	for _, output := range w.Outputs {
		if output.On {
			ow, oh := output.size()
			width = max(width, output.X+ow)
			height = max(height, output.Y+oh)
		}
	}
	lines := []string{fmt.Sprintf("Screen 0: minimum 8 x 8, current %d x %d, maximum 32767 x 32767", width, height)}
	for _, output := range w.Outputs {
		if !output.Connected {
			lines = append(lines, fmt.Sprintf("%s disconnected %s", output.Name, rotations))
			continue
		}
		parts := []string{output.Name, "connected"}
		if output.Primary {
			parts = append(parts, "primary")
		}
		if output.On {
			parts = append(parts, output.Geometry())
			if output.Rotation != "normal" && output.Rotation != "" {
				parts = append(parts, output.Rotation)
			}
		}
		parts = append(parts, rotations)
		if output.On {
			parts = append(parts, "520mm x 320mm")
		}
		lines = append(lines, strings.Join(parts, " "))
		lines = append(lines, fmt.Sprintf("   %s     60.00 +", output.PreferredMode))
	}
	return strings.Join(lines, "\n")
}

func parseMode(mode string) (int, int) {
	w, h, ok := strings.Cut(mode, "x")
	if !ok {
		return 0, 0
	}
	width, _ := strconv.Atoi(w)
	height, _ := strconv.Atoi(h)
	return width, height
}

func (w *FakeWorld) monitorRef(ref string) (int, *FakeMonitor) {
	for i, monitor := range w.Monitors {
		if strconv.FormatUint(uint64(monitor.ID), 10) == ref || monitor.Name == ref {
			return i, monitor
		}
	}
	return -1, nil
}

func (w *FakeWorld) desktopRef(ref string) (*FakeMonitor, int) {
	for _, monitor := range w.Monitors {
		for i, desktop := range monitor.Desktops {
			if strconv.FormatUint(uint64(desktop.ID), 10) == ref || desktop.Name == ref {
				return monitor, i
			}
		}
	}
	return nil, -1
}

type fakeTree struct {
	Name     string        `json:"name"`
	ID       uint32        `json:"id"`
	Desktops []fakeDesktop `json:"desktops"`
}

type fakeDesktop struct {
	Name string `json:"name"`
	ID   uint32 `json:"id"`
}

func (w *FakeWorld) bspc(args []string) (string, error) {
	switch {
	case slices.Equal(args, []string{"query", "--monitors", "--names"}):
		names := []string{}
		for _, monitor := range w.Monitors {
			names = append(names, monitor.Name)
		}
		return strings.Join(names, "\n"), nil

	case len(args) == 4 && args[0] == "query" && args[1] == "--tree" && args[2] == "--monitor":
		_, monitor := w.monitorRef(args[3])
		if monitor == nil {
			return "", errors.New("")
		}
		tree := fakeTree{Name: monitor.Name, ID: monitor.ID, Desktops: []fakeDesktop{}}
		for _, desktop := range monitor.Desktops {
			tree.Desktops = append(tree.Desktops, fakeDesktop{Name: desktop.Name, ID: desktop.ID})
		}
		raw, err := json.Marshal(tree)
		return string(raw), err

	case len(args) == 4 && args[0] == "wm" && args[1] == "--add-monitor":
		w.WithMonitor(args[2], args[3], "Desktop")
		return "", nil

	case len(args) >= 4 && args[0] == "monitor" && args[2] == "--add-desktops":
		_, monitor := w.monitorRef(args[1])
		if monitor == nil {
			return "", fmt.Errorf("monitor %s: invalid descriptor", args[1])
		}
		for _, name := range args[3:] {
			monitor.Desktops = append(monitor.Desktops, &FakeDesktop{ID: w.id(), Name: name})
		}
		return "", nil

	case len(args) == 3 && args[0] == "monitor" && args[2] == "--remove":
		i, monitor := w.monitorRef(args[1])
		if monitor == nil {
			return "", fmt.Errorf("monitor %s: invalid descriptor", args[1])
		}
		if len(w.Monitors) == 1 {
			return "", errors.New("monitor --remove: cant remove the last monitor")
		}
		w.Monitors = slices.Delete(w.Monitors, i, i+1)
		return "", nil

	case len(args) == 4 && args[0] == "desktop" && args[2] == "--to-monitor":
		source, i := w.desktopRef(args[1])
		_, target := w.monitorRef(args[3])
		if source == nil || target == nil {
			return "", fmt.Errorf("desktop %s: invalid descriptor", args[1])
		}
		if source == target {
			return "", nil
		}
		if len(source.Desktops) == 1 {
			return "", errors.New("desktop --to-monitor: source monitor would have no desktops")
		}
		desktop := source.Desktops[i]
		source.Desktops = slices.Delete(source.Desktops, i, i+1)
		target.Desktops = append(target.Desktops, desktop)
		return "", nil

	case len(args) == 3 && args[0] == "desktop" && args[2] == "--remove":
		monitor, i := w.desktopRef(args[1])
		if monitor == nil {
			return "", fmt.Errorf("desktop %s: invalid descriptor", args[1])
		}
		if len(monitor.Desktops) == 1 {
			return "", errors.New("desktop --remove: cant remove the last desktop of a monitor")
		}
		monitor.Desktops = slices.Delete(monitor.Desktops, i, i+1)
		return "", nil
	}
	return "", fmt.Errorf("unsupported bspc call %v", args)
}

// MonitorNames lists the monitor names in tree order.
func (w *FakeWorld) MonitorNames() []string {
	names := []string{}
	for _, monitor := range w.Monitors {
		names = append(names, monitor.Name)
	}
	return names
}

// DesktopNames lists the desktop names of a monitor in tree order, nil if it does not exist.
func (w *FakeWorld) DesktopNames(monitor string) []string {
	_, m := w.monitorRef(monitor)
	if m == nil {
		return nil
	}
	names := []string{}
	for _, desktop := range m.Desktops {
		names = append(names, desktop.Name)
	}
	return names
}

// ActiveOutputs lists the names of the outputs that are on.
func (w *FakeWorld) ActiveOutputs() []string {
	names := []string{}
	for _, output := range w.Outputs {
		if output.On {
			names = append(names, output.Name)
		}
	}
	return names
}

// LayoutState is the observable end state used for idempotence checks.
type LayoutState struct {
	Geometry string
	Rotation string
	Desktops []string
}

// Layout maps each active output to its geometry, rotation and sorted desktop names.
func (w *FakeWorld) Layout() map[string]LayoutState {
	layout := map[string]LayoutState{}
	for _, output := range w.Outputs {
		if !output.On {
			continue
		}
		desktops := slices.Clone(w.DesktopNames(output.Name))
		slices.Sort(desktops)
		layout[output.Name] = LayoutState{
			Geometry: output.Geometry(),
			Rotation: output.Rotation,
			Desktops: desktops,
		}
	}
	return layout
}

// ResetCalls forgets the recorded calls.
func (w *FakeWorld) ResetCalls() {
	w.Calls = nil
}
