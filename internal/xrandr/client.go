// Package xrandr mirrors physical output state by parsing `xrandr -q` and drives it with `xrandr --output`.
package xrandr

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/monitorctl/monitorctl/internal/errs"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/sirupsen/logrus"
)

const binary = "xrandr"

var rotations = map[string]bool{"left": true, "right": true, "inverted": true}

type Client struct {
	runner utils.Runner
}

func NewClient(runner utils.Runner) *Client {
	return &Client{runner: runner}
}

func (c *Client) ListOutputs(ctx context.Context) ([]*Output, error) {
	out, err := c.runner.Run(ctx, binary, "-q")
	if err != nil {
		return nil, fmt.Errorf("cant query outputs: %w", err)
	}

	outputs := []*Output{}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		output, ok := parseOutputLine(scanner.Text())
		if ok {
			outputs = append(outputs, output)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cant scan xrandr output: %w", err)
	}

	logrus.WithField("count", len(outputs)).Debug("Queried outputs")
	return outputs, nil
}

// GetOutput returns the first output named name.
func (c *Client) GetOutput(ctx context.Context, name string) (*Output, error) {
	outputs, err := c.ListOutputs(ctx)
	if err != nil {
		return nil, err
	}
	for _, output := range outputs {
		if output.Name == name {
			return output, nil
		}
	}
	return nil, fmt.Errorf("output %s: %w", name, errs.ErrNotFound)
}

func (c *Client) TurnOn(ctx context.Context, output *Output, settings Settings) error {
	args := append([]string{"--output", output.Name}, settings.Args()...)
	logrus.WithFields(logrus.Fields{"output": output.Name, "args": args}).Debug("Turning output on")
	if _, err := c.runner.Run(ctx, binary, args...); err != nil {
		return fmt.Errorf("cant turn on output %s: %w", output.Name, err)
	}
	return c.Refresh(ctx, output)
}

// TurnOff does not check whether desktops still live on the output, callers evacuate them first.
func (c *Client) TurnOff(ctx context.Context, output *Output) error {
	logrus.WithField("output", output.Name).Debug("Turning output off")
	if _, err := c.runner.Run(ctx, binary, "--output", output.Name, "--off"); err != nil {
		return fmt.Errorf("cant turn off output %s: %w", output.Name, err)
	}
	return c.Refresh(ctx, output)
}

func (c *Client) Refresh(ctx context.Context, output *Output) error {
	loaded, err := c.GetOutput(ctx, output.Name)
	if err != nil {
		return fmt.Errorf("cant refresh output %s: %w", output.Name, err)
	}
	output.overwrite(loaded)
	return nil
}

// parseOutputLine reads lines such as
//
//	HDMI1 connected primary 1920x1080+0+0 (normal left inverted right x axis y axis) 520mm x 320mm
//	VGA1 disconnected (normal left inverted right x axis y axis)
func parseOutputLine(line string) (*Output, bool) {
	if !strings.Contains(line, "connected") {
		return nil, false
	}
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return nil, false
	}

	output := &Output{
		Name:      tokens[0],
		Connected: !strings.Contains(line, "disconnected"),
		Primary:   strings.Contains(line, "primary"),
	}

	if !output.Connected {
		return output, true
	}

	geometryIdx := 2
	if output.Primary {
		geometryIdx++
	}
	if geometryIdx < len(tokens) && !strings.HasPrefix(tokens[geometryIdx], "(") {
		geometry := tokens[geometryIdx]
		output.Geometry = &geometry
		if next := geometryIdx + 1; next < len(tokens) && rotations[tokens[next]] {
			output.Rotation = tokens[next]
		}
	}

	return output, true
}
