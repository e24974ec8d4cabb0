package bspc

import (
	"context"
	"errors"
	"fmt"

	"github.com/monitorctl/monitorctl/internal/errs"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/sirupsen/logrus"
)

// Monitor mirrors one monitor node of the window manager tree.
// A monitor with an empty ID is unbound and has no desktops.
type Monitor struct {
	client   *Client
	Name     string
	ID       string
	Desktops Desktops
}

func (m *Monitor) Key() Identity {
	return identityOf(m.Name, m.ID)
}

func (m *Monitor) Bound() bool {
	return m.ID != ""
}

func (m *Monitor) String() string {
	id := m.ID
	if id == "" {
		id = "NoID"
	}
	return fmt.Sprintf("%s (%s)", m.Name, id)
}

func (m *Monitor) fields() logrus.Fields {
	return logrus.Fields{"monitor": m.Name, "monitor_id": m.ID}
}

// Refresh re-reads the monitor by name. A failing query means the monitor is
// not in the tree: the result is Absent and the mirror keeps its prior state.
func (m *Monitor) Refresh(ctx context.Context) (RefreshResult, error) {
	out, err := m.client.run(ctx, "query", "--tree", "--monitor", m.Name)
	if err != nil {
		var cmdErr *utils.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Exited() {
			logrus.WithFields(m.fields()).Debug("Monitor not in tree, keeping previous state")
			return Absent, nil
		}
		return Absent, fmt.Errorf("cant query monitor %s: %w", m.Name, err)
	}

	var tree monitorTree
	if err := utils.UnmarshalResponse([]byte(out), &tree); err != nil {
		return Absent, fmt.Errorf("cant parse tree of monitor %s: %w", m.Name, err)
	}
	if err := tree.Validate(); err != nil {
		return Absent, fmt.Errorf("invalid tree for monitor %s: %w", m.Name, err)
	}

	m.ID = formatID(*tree.ID)
	desktops := make(Desktops, 0, len(tree.Desktops))
	for _, desktop := range tree.Desktops {
		desktops = append(desktops, Desktop{Name: desktop.Name, ID: formatID(desktop.ID)})
	}
	m.Desktops = desktops
	return Refreshed, nil
}

func (m *Monitor) refresh(ctx context.Context) error {
	_, err := m.Refresh(ctx)
	return err
}

// AddDesktop creates a desktop on this monitor and returns it, identified by
// diffing the desktop set before and after the command.
func (m *Monitor) AddDesktop(ctx context.Context, name string) (Desktop, error) {
	if !m.Bound() {
		return Desktop{}, fmt.Errorf("cant add desktop %s to unbound monitor %s: %w", name, m.Name, errs.ErrNotFound)
	}
	before := m.Desktops
	if _, err := m.client.run(ctx, "monitor", m.ID, "--add-desktops", name); err != nil {
		return Desktop{}, fmt.Errorf("cant add desktop %s to %s: %w", name, m, err)
	}
	if err := m.refresh(ctx); err != nil {
		return Desktop{}, err
	}

	diff := m.Desktops.Difference(before)
	if len(diff) != 1 {
		return Desktop{}, fmt.Errorf("adding desktop %s to %s produced %d new desktops: %w",
			name, m, len(diff), errs.ErrInconsistentState)
	}
	logrus.WithFields(m.fields()).WithField("desktop", diff[0].String()).Debug("Desktop added")
	return diff[0], nil
}

func (m *Monitor) MoveDesktopHere(ctx context.Context, desktop Desktop) error {
	if _, err := m.client.run(ctx, "desktop", desktop.ID, "--to-monitor", m.ID); err != nil {
		return fmt.Errorf("cant move desktop %s to %s: %w", desktop, m, err)
	}
	logrus.WithFields(m.fields()).WithField("desktop", desktop.String()).Debug("Desktop moved")
	return m.refresh(ctx)
}

func (m *Monitor) RemoveDesktop(ctx context.Context, desktop Desktop) error {
	if _, err := m.client.run(ctx, "desktop", desktop.ID, "--remove"); err != nil {
		return fmt.Errorf("cant remove desktop %s from %s: %w", desktop, m, err)
	}
	logrus.WithFields(m.fields()).WithField("desktop", desktop.String()).Debug("Desktop removed")
	return m.refresh(ctx)
}

// Remove drops the monitor from the tree and resets the mirror to unbound without re-querying.
func (m *Monitor) Remove(ctx context.Context) error {
	if _, err := m.client.run(ctx, "monitor", m.ID, "--remove"); err != nil {
		return fmt.Errorf("cant remove monitor %s: %w", m, err)
	}
	logrus.WithFields(m.fields()).Debug("Monitor removed")
	m.ID = ""
	m.Desktops = Desktops{}
	return nil
}
