package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cdtdelta/daybook/internal/config"
	"github.com/cdtdelta/daybook/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the daybook release, overridden at build time with
// -ldflags "-X main.Version=...".
var Version = "dev"

// cli holds state shared by every command in one invocation.
type cli struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *zap.Logger
}

// newRootCmd builds the command tree. Each call returns an independent
// tree so flag state never leaks between executions.
func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "daybook",
		Short: "Turn event logs into day-grouped timeline reports",
		Long: `daybook reads tabular event logs (CSV or JSON lines) with a timestamp and
an operation code per row, resolves each code against a lookup table, and
writes a human-readable timeline grouped by day. Consecutive repeats of the
same operation collapse into a single line with a time range and count.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "init" {
				return nil
			}
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", config.DefaultPath, "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(
		c.reportCmd(),
		c.codesCmd(),
		c.importCmd(),
		c.exportCmd(),
		c.configCmd(),
		versionCmd(),
	)
	return rootCmd
}

// setup loads the config, applies flag overrides and builds the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		if _, err := os.Stat(c.cfgFile); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
	}

	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Logging.Format = c.logFormat
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = logger
	logger.Debug("configuration loaded", zap.String("config", c.cfgFile))
	return nil
}

func (c *cli) newApp(cmd *cobra.Command) *App {
	return NewApp(c.cfg, c.logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
