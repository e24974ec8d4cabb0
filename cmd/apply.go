package cmd

import (
	"context"
	"errors"

	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/render"
	"github.com/monitorctl/monitorctl/internal/signal"
	"github.com/spf13/cobra"
)

var (
	autoSelect bool
	dryRun     bool
)

var applyCmd = &cobra.Command{
	Use:   "apply [PROFILE]",
	Short: "Apply a profile",
	Long: `Apply a profile by name, or the best one for the connected outputs with --auto.

Every bspwm desktop is first parked on a temporary DUMMY monitor and every output is
turned off. The profile outputs are then turned on and receive their declared desktops,
undeclared desktops and monitors are removed.

After a successful apply a desktop notification is sent and on_profile_load_cmd is started.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if autoSelect && len(args) == 1 {
			return errors.New("invalid input, use either 'apply PROFILE' or 'apply --auto'")
		}
		if !autoSelect && len(args) == 0 {
			return errors.New("a profile name is required unless --auto is passed")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		application, err := newApplication()
		if err != nil {
			return err
		}
		printer := render.NewPrinter(cmd.OutOrStdout())

		var profile *config.Profile
		if autoSelect {
			printer.AutoDetecting()
			profile, err = application.ResolveAuto(ctx)
		} else {
			profile, err = application.Profile(args[0])
		}
		if err != nil {
			return err
		}
		printer.Applying(profile.Name, dryRun)

		// a half-applied profile leaves every desktop on the DUMMY monitor
		return signal.NewGuard().Run(ctx, func(ctx context.Context) error {
			return application.ApplyProfile(ctx, profile, dryRun)
		})
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().BoolVar(
		&autoSelect,
		"auto",
		false,
		"Apply the profile that best fits the connected outputs",
	)
	applyCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Show what would be done without making changes",
	)
}
