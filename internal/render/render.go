// Package render prints command results to the terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/monitorctl/monitorctl/internal/app"
	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/matchers"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("105"))
	ItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
	MissingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

const bullet = " → "

type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// line renders a single line; lipgloss pads multi-line blocks to a common width.
func (p *Printer) line(style lipgloss.Style, text string) {
	_, _ = fmt.Fprintln(p.w, style.Render(text))
}

func (p *Printer) Monitors(statuses []*app.MonitorStatus) {
	p.line(TitleStyle, "Current monitors:")
	for _, status := range statuses {
		var desktops string
		switch {
		case status.Desktops == nil:
			desktops = "monitor not in bspwm"
		case len(status.Desktops) == 0:
			desktops = "none"
		default:
			desktops = strings.Join(status.Desktops, " ")
		}
		style := ItemStyle
		if !status.Connected {
			style = MissingStyle
		}
		p.line(style, fmt.Sprintf("%s%s desktops: %s", bullet, status.Name, desktops))
	}
}

func (p *Printer) Profiles(names []string) {
	p.line(TitleStyle, "Profiles list:")
	for _, name := range names {
		p.line(ItemStyle, bullet+name)
	}
}

// AutoSelected prints the selected profile, or none when nothing qualified.
func (p *Printer) AutoSelected(matched *matchers.MatchedProfile) {
	p.line(TitleStyle, "Auto selected profile based on current status:")
	if matched == nil {
		p.line(MutedStyle, bullet+"none")
		return
	}
	p.line(ItemStyle, bullet+matched.Profile.Name)
}

func (p *Printer) ProfileDetails(profile *config.Profile) {
	p.line(TitleStyle, "Profile details:")
	p.line(ItemStyle, profile.Name+":")
	for _, monitor := range profile.Monitors {
		parts := []string{monitor.Rotation, monitor.Resolution}
		if monitor.Position != nil {
			parts = append(parts, monitor.Position.String())
		}
		p.line(ItemStyle, fmt.Sprintf("  - %s: %s", monitor.Output, strings.Join(parts, " ")))
		p.line(ItemStyle, "    bspwm desktops: "+strings.Join(monitor.Desktops, " "))
	}
}

func (p *Printer) AutoDetecting() {
	p.line(TitleStyle, "Auto detecting profile")
}

func (p *Printer) Applying(name string, dryRun bool) {
	if dryRun {
		p.line(MutedStyle, fmt.Sprintf("Dry run, profile '%s' would be applied", name))
		return
	}
	p.line(TitleStyle, fmt.Sprintf("Applying profile '%s'", name))
}

func (p *Printer) Frozen(profile *config.Profile, path string) {
	p.line(TitleStyle, fmt.Sprintf("Profile '%s' appended to %s", profile.Name, path))
	p.line(ItemStyle, bullet+strings.Join(profile.Outputs(), " "))
}

func (p *Printer) Valid(path string) {
	p.line(ItemStyle, "Configuration "+path+" is valid")
}
