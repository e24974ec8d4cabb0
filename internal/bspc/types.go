package bspc

import (
	"fmt"
	"strconv"
)

type identityKind int

const (
	unbound identityKind = iota
	bound
)

// Identity is the set/map key of a tree node: Bound(id) once the window
// manager knows it, Unbound(name) before that.
type Identity struct {
	kind  identityKind
	value string
}

func BoundIdentity(id string) Identity {
	return Identity{kind: bound, value: id}
}

func UnboundIdentity(name string) Identity {
	return Identity{kind: unbound, value: name}
}

func (i Identity) IsBound() bool {
	return i.kind == bound
}

func (i Identity) String() string {
	if i.IsBound() {
		return "id:" + i.value
	}
	return "name:" + i.value
}

func identityOf(name, id string) Identity {
	if id != "" {
		return BoundIdentity(id)
	}
	return UnboundIdentity(name)
}

type Desktop struct {
	Name string
	ID   string
}

func (d Desktop) Key() Identity {
	return identityOf(d.Name, d.ID)
}

func (d Desktop) String() string {
	id := d.ID
	if id == "" {
		id = "NoID"
	}
	return fmt.Sprintf("%s (%s)", d.Name, id)
}

// Desktops keeps tree order; membership goes through Identity.
type Desktops []Desktop

func (ds Desktops) Contains(d Desktop) bool {
	for _, desktop := range ds {
		if desktop.Key() == d.Key() {
			return true
		}
	}
	return false
}

// Difference returns the desktops of ds that are absent from other.
func (ds Desktops) Difference(other Desktops) Desktops {
	diff := Desktops{}
	for _, desktop := range ds {
		if !other.Contains(desktop) {
			diff = append(diff, desktop)
		}
	}
	return diff
}

func (ds Desktops) Names() []string {
	names := make([]string, 0, len(ds))
	for _, desktop := range ds {
		names = append(names, desktop.Name)
	}
	return names
}

// ByName indexes desktops by name, the last one wins on duplicates.
func (ds Desktops) ByName() map[string]Desktop {
	byName := make(map[string]Desktop, len(ds))
	for _, desktop := range ds {
		byName[desktop.Name] = desktop
	}
	return byName
}

// RefreshResult is the outcome of re-reading a monitor from the tree.
type RefreshResult int

const (
	Refreshed RefreshResult = iota
	// Absent means the window manager does not know the monitor; prior state is kept.
	Absent
)

func (r RefreshResult) String() string {
	switch r {
	case Refreshed:
		return "refreshed"
	case Absent:
		return "absent"
	}
	return "unknown"
}

type treeDesktop struct {
	Name string `json:"name"`
	ID   uint32 `json:"id"`
}

// monitorTree is the subset of `bspc query --tree --monitor` we read.
type monitorTree struct {
	Name     string        `json:"name"`
	ID       *uint32       `json:"id"`
	Desktops []treeDesktop `json:"desktops"`
}

func (m *monitorTree) Validate() error {
	if m.ID == nil {
		return fmt.Errorf("monitor %q has no id", m.Name)
	}
	return nil
}

func formatID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
