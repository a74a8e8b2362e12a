package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/gridcrawl/internal/config"
	"github.com/JakeFAU/gridcrawl/internal/logging"
)

// runtimeEnv is built once per invocation and shared with subcommands
// through the command context.
type runtimeEnv struct {
	cfg    config.Config
	logger *zap.Logger
}

type envKey struct{}

// NewRootCmd creates the root command for gridcrawl.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "gridcrawl",
		Short: "Resumable crawler for grid-addressed archived sites",
		Long: `gridcrawl walks a bounded 2-D grid of archived pages, following the
North/South/East/West links between cells. Every discovery and result is
appended to a plain-text record log, which is the crawl's only state:
rerunning "gridcrawl crawl" picks up wherever the last run stopped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Config{
				Development: cfg.Logging.Development,
				Level:       cfg.Logging.Level,
				File:        cfg.Logging.File,
				MaxSizeMB:   cfg.Logging.MaxSizeMB,
				MaxBackups:  cfg.Logging.MaxBackups,
				MaxAgeDays:  cfg.Logging.MaxAgeDays,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, &runtimeEnv{cfg: cfg, logger: logger}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if env, ok := cmd.Context().Value(envKey{}).(*runtimeEnv); ok {
				_ = env.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./config.yaml, then "+config.Dir()+"/config.yaml)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}

// Execute runs the root command, canceling on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envFrom(cmd *cobra.Command) (*runtimeEnv, error) {
	env, ok := cmd.Context().Value(envKey{}).(*runtimeEnv)
	if !ok || env == nil {
		return nil, errors.New("configuration not loaded")
	}
	return env, nil
}
