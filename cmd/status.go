package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/monitorctl/monitorctl/internal/render"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var showSections = []string{"monitors", "profiles", "autoselect"}

// sectionValue restricts --show to one of showSections.
type sectionValue string

var _ pflag.Value = (*sectionValue)(nil)

func (s *sectionValue) String() string { return string(*s) }

func (s *sectionValue) Set(value string) error {
	value = strings.ToLower(value)
	if !slices.Contains(showSections, value) {
		return fmt.Errorf("invalid --show value %q, expected one of %v", value, showSections)
	}
	*s = sectionValue(value)
	return nil
}

func (s *sectionValue) Type() string { return "section" }

var showOnly sectionValue

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"details"},
	Short:   "Show monitors, profiles and the auto selected profile",
	Long: `Show the current monitors with their bspwm desktops, the existing profiles and
the profile that apply --auto would pick for the connected outputs.

Use --show to print a single section.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		application, err := newApplication()
		if err != nil {
			return err
		}
		printer := render.NewPrinter(cmd.OutOrStdout())

		if showOnly == "" || showOnly == "monitors" {
			statuses, err := application.MonitorStatus(ctx)
			if err != nil {
				return fmt.Errorf("cant read monitor status: %w", err)
			}
			printer.Monitors(statuses)
		}

		if showOnly == "" || showOnly == "profiles" {
			printer.Profiles(application.Config().ProfileNames())
		}

		if showOnly == "" || showOnly == "autoselect" {
			matched, err := application.AutoSelect(ctx)
			if err != nil {
				return fmt.Errorf("cant auto select a profile: %w", err)
			}
			printer.AutoSelected(matched)
		}
		return nil
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the profiles of the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication()
		if err != nil {
			return err
		}
		render.NewPrinter(cmd.OutOrStdout()).Profiles(application.Config().ProfileNames())
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show PROFILE",
	Short: "Show the details of a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication()
		if err != nil {
			return err
		}
		profile, err := application.Profile(args[0])
		if err != nil {
			return err
		}
		render.NewPrinter(cmd.OutOrStdout()).ProfileDetails(profile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(showCmd)

	statusCmd.Flags().VarP(
		&showOnly,
		"show",
		"s",
		"Only show one section: monitors, profiles or autoselect",
	)
}
