package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/monitorctl/monitorctl/internal/render"
	"github.com/spf13/cobra"
)

var profileName string

var freezeCmd = &cobra.Command{
	Use:   "freeze",
	Short: "Freeze the current monitor layout as a new profile",
	Long: `Freeze the current xrandr and bspwm layout and append it to the configuration file
as a new profile.

Every connected output that is turned on becomes a profile monitor with its current mode,
rotation and bspwm desktops. Relative positions are derived from the output geometry:
an output that touches a previously listed one is placed right_of, left_of, above or
below it.

PREREQUISITES:
- The profile name must not already exist in your configuration (it will be checked)
- At least one connected output must be turned on`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if profileName == "" {
			return errors.New("profile-name can't be empty")
		}
		application, err := newApplication()
		if err != nil {
			return fmt.Errorf("the current config is not valid: %w", err)
		}

		profile, err := application.Freeze(context.Background(), profileName)
		if err != nil {
			return fmt.Errorf("cant freeze the current settings as a new profile: %w", err)
		}

		render.NewPrinter(cmd.OutOrStdout()).Frozen(profile, application.Config().Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(freezeCmd)

	freezeCmd.Flags().StringVar(
		&profileName,
		"profile-name",
		"",
		"What profile name to set the frozen profile to.",
	)
	_ = freezeCmd.MarkFlagRequired("profile-name")
}
