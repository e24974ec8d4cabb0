// Package cmd provides the entry point for the monitorctl application.
// It switches xrandr outputs and bspwm desktops between declared monitor profiles.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/monitorctl/monitorctl/internal/app"
	"github.com/monitorctl/monitorctl/internal/config"
	"github.com/monitorctl/monitorctl/internal/errs"
	"github.com/monitorctl/monitorctl/internal/signal"
	"github.com/monitorctl/monitorctl/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	Version    = "dev"
	Commit     = "none"
	BuildDate  = "unknown"
	BinaryName = "monitorctl"
)

var (
	debug                bool
	verbose              bool
	enableJSONLogsFormat bool
	configPath           string
	rootCmd              = &cobra.Command{
		Use:              BinaryName,
		Short:            "Manage bspwm/xrandr monitor profiles",
		Long:             "Monitorctl switches xrandr outputs and the bspwm monitors and desktops living on them between the profiles declared in a configuration file.",
		Version:          fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		PersistentPreRun: setupLogger,
		SilenceErrors:    true,
		SilenceUsage:     true,
	}
)

func Execute() {
	err := rootCmd.Execute()
	var interrupted *signal.Interrupted
	if errors.As(err, &interrupted) {
		logrus.WithField("signal", interrupted.Signal).Warn("Exiting after the interrupted operation finished")
		os.Exit(interrupted.ExitCode())
	}
	if errors.Is(err, errs.ErrNotFound) {
		logrus.WithError(err).Fatal("Not found")
		return
	}
	if errors.Is(err, errs.ErrInvalidConfig) {
		logrus.WithError(err).Fatal("Invalid configuration, run validate for details")
		return
	}
	if err != nil {
		logrus.WithError(err).Fatal("Command failed")
	}
	logrus.Debug("Exiting...")
}

func newApplication() (*app.Application, error) {
	logrus.WithField("version", Version).Debug("Starting monitorctl")
	application, err := app.NewApplication(configPath, utils.NewExecRunner())
	if err != nil {
		return nil, fmt.Errorf("cant create application: %w", err)
	}
	return application, nil
}

func setupLogger(cmd *cobra.Command, args []string) {
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	if verbose {
		logrus.SetReportCaller(true)
	}

	if enableJSONLogsFormat {
		logrus.SetFormatter(&logrus.JSONFormatter{
			DisableTimestamp: false,
			TimestampFormat:  time.RFC3339Nano,
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: false,
			DisableColors:    false,
			TimestampFormat:  time.RFC3339Nano,
			FullTimestamp:    true,
			ForceQuote:       true,
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				fn := filepath.Base(f.Function)
				file := fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
				return fn, file
			},
		})
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(
		&configPath,
		"config",
		config.DefaultConfigPath,
		"Path to the profiles file (.yml, .yaml or .toml)",
	)
	rootCmd.PersistentFlags().BoolVar(&enableJSONLogsFormat, "enable-json-logs-format", false, "Enable structured logging")
}
