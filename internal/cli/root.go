// Package cli implements the checkoutctl commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/strongdm/checkout-actions/internal/config"
	"github.com/strongdm/checkout-actions/internal/logging"
	"github.com/strongdm/checkout-actions/internal/telemetry"
)

// app is the state shared by all commands of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg     *config.Config
	logger  *logrus.Logger
	closers []func(context.Context) error
}

func (a *app) addCloser(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// shutdown runs closers in reverse order.
func (a *app) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.verbose {
		cfg.Log.Level = "debug"
		cfg.Analytics.Verbose = true
	}
	a.cfg = cfg

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	if cfg.Log.File == "" {
		logger.SetOutput(cmd.ErrOrStderr())
	}
	a.logger = logger
	a.addCloser(func(context.Context) error { return logCloser.Close() })

	if cfg.Tracing.Enabled {
		shutdown, err := telemetry.InitTracer(cfg.Tracing.ServiceName, cmd.ErrOrStderr(), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		a.addCloser(shutdown)
	}

	if cfg.Metrics.Addr != "" {
		if err := a.serveMetrics(cfg.Metrics.Addr); err != nil {
			return err
		}
	}
	return nil
}

// newRootCmd builds the command tree. The caller must run a.shutdown after
// Execute, which cobra's post-run hooks do not guarantee on error.
func newRootCmd(version string) (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "checkoutctl",
		Short: "checkoutctl - checkout actions and analytics toolbox",
		Long: `checkoutctl decodes checkout actions, submits 3DS2 fingerprints and drives
the checkout analytics pipeline against the test or live environments.

Settings come from an optional YAML file and CHECKOUT_ environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging and print analytics events")

	rootCmd.AddCommand(newDecodeActionCmd(a))
	rootCmd.AddCommand(newRedirectDetailsCmd(a))
	rootCmd.AddCommand(newCodesCmd(a))
	rootCmd.AddCommand(newInitialAnalyticsCmd(a))
	rootCmd.AddCommand(newSubmitFingerprintCmd(a))
	rootCmd.AddCommand(newSpoolCmd(a))

	return rootCmd, a
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd, a := newRootCmd(version)
	err := rootCmd.Execute()
	if shutdownErr := a.shutdown(); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
