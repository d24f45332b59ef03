// Command pingboardd serves the authoritative host collection to pingboard
// clients.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/kylerisse/pingboard/pkg/config"
	"github.com/kylerisse/pingboard/pkg/hostfile"
	"github.com/kylerisse/pingboard/pkg/resolve"
	"github.com/kylerisse/pingboard/pkg/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile, logLevel string

	cmd := &cobra.Command{
		Use:           "pingboardd",
		Short:         "Backend for the pingboard host dashboard",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig(configFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Level = logLevel
			}
			logger, err := cfg.NewLogger(os.Stderr)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "pingboardd.yaml", "config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	return cmd
}

func run(ctx context.Context, cfg *config.ServerConfig, logger *logrus.Logger) error {
	opts := []server.Option{
		server.WithListenAddr(cfg.ListenAddr),
		server.WithHistoryWindow(cfg.HistoryWindow),
		server.WithSaveLimit(rate.Limit(cfg.SaveRate), cfg.SaveBurst),
	}
	if cfg.Resolver != "" {
		r, err := resolve.New(cfg.Resolver, resolve.WithTimeout(cfg.ResolverTimeout))
		if err != nil {
			return err
		}
		opts = append(opts, server.WithResolver(r, cfg.ResolverTimeout))
		logger.Infof("Naming unnamed hosts via PTR lookups against %s", r.Server())
	}

	srv, err := server.NewServer(hostfile.New(cfg.DataFile), cfg.Token, logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return err
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped.")
	return nil
}
