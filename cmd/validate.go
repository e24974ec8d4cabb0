package cmd

import (
	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/render"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file for syntax errors and logical consistency.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		logrus.WithField("config_path", configPath).Debug("Validating configuration")

		cfg, err := config.Load(configPath)
		if err != nil {
			utils.PrettyPrintError(err)
			logrus.Fatal("Configuration validation failed")
			return
		}

		render.NewPrinter(cmd.OutOrStdout()).Valid(cfg.Path())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
