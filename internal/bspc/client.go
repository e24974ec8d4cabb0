// Package bspc mirrors the bspwm monitor/desktop tree through the bspc command line tool.
package bspc

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/monitorctl/monitorctl/internal/utils"
)

const binary = "bspc"

type Client struct {
	runner utils.Runner
}

func NewClient(runner utils.Runner) *Client {
	return &Client{runner: runner}
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	return c.runner.Run(ctx, binary, args...)
}

// Load returns the monitor named name; it stays unbound when the tree does not know it.
func (c *Client) Load(ctx context.Context, name string) (*Monitor, error) {
	monitor := &Monitor{client: c, Name: name, Desktops: Desktops{}}
	if _, err := monitor.Refresh(ctx); err != nil {
		return nil, err
	}
	return monitor, nil
}

// LoadAll loads every monitor of the tree, deduplicated by identity.
func (c *Client) LoadAll(ctx context.Context) ([]*Monitor, error) {
	out, err := c.run(ctx, "query", "--monitors", "--names")
	if err != nil {
		return nil, fmt.Errorf("cant list monitors: %w", err)
	}

	seen := map[Identity]bool{}
	monitors := []*Monitor{}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		monitor, err := c.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		if seen[monitor.Key()] {
			continue
		}
		seen[monitor.Key()] = true
		monitors = append(monitors, monitor)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cant scan monitor names: %w", err)
	}
	return monitors, nil
}

// AddMonitor creates a monitor with the given xrandr style geometry and loads it.
func (c *Client) AddMonitor(ctx context.Context, name, geometry string) (*Monitor, error) {
	if _, err := c.run(ctx, "wm", "--add-monitor", name, geometry); err != nil {
		return nil, fmt.Errorf("cant add monitor %s (%s): %w", name, geometry, err)
	}
	return c.Load(ctx, name)
}
