package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kylerisse/pingboard/pkg/config"
	"github.com/kylerisse/pingboard/pkg/host"
	"github.com/kylerisse/pingboard/pkg/render"
	"github.com/kylerisse/pingboard/pkg/store"
	"github.com/kylerisse/pingboard/pkg/syncer"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

// session is one authenticated connection to the backend.
type session struct {
	cfg      *config.ClientConfig
	logger   *logrus.Logger
	engine   *syncer.Engine
	renderer *render.Renderer
}

type rootOptions struct {
	configFile string
	logLevel   string
	noColor    bool
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "pingboard",
		Short: "Terminal dashboard for pingboardd host monitoring",
		Long: `pingboard shows every host known to a pingboardd backend with its
current status and uptime, keeps the view refreshed, and adds, edits or
removes hosts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&opts.configFile, "config", "pingboard.yaml", "config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable ANSI colors")

	root.AddCommand(
		newWatchCmd(opts),
		newListCmd(opts),
		newStatsCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newRemoveCmd(opts),
	)
	return root
}

// connect loads config, builds the engine and performs the first
// authenticated fetch.
func connect(ctx context.Context, cmd *cobra.Command, opts *rootOptions, engineOpts ...syncer.Option) (*session, error) {
	cfg, err := config.LoadClientConfig(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Level = opts.logLevel
	}
	logger, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	backend, err := syncer.NewHTTPBackend(cfg.ServerURL, syncer.WithRequestTimeout(cfg.RequestTimeout))
	if err != nil {
		return nil, err
	}

	creds := syncer.NewStaticToken(cfg.Token, func(error) {
		logger.Errorf("Backend rejected the configured token, update it in %s or %s", opts.configFile, config.TokenEnv)
	})

	var renderOpts []render.Option
	if opts.noColor {
		renderOpts = append(renderOpts, render.WithColor(false))
	}

	s := &session{
		cfg:      cfg,
		logger:   logger,
		renderer: render.New(cmd.OutOrStdout(), renderOpts...),
	}
	engineOpts = append([]syncer.Option{syncer.WithLogger(logger)}, engineOpts...)
	s.engine = syncer.New(backend, store.New(), creds, engineOpts...)

	logger.Debugf("Connecting to %s", cfg.ServerURL)
	if err := s.engine.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("could not load hosts from %s: %w", cfg.ServerURL, err)
	}
	return s, nil
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the dashboard and refresh it on every poll",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var s *session
			redraw := func(store.Stats) {
				if s == nil {
					return
				}
				fmt.Fprint(cmd.OutOrStdout(), clearScreen)
				if err := s.renderer.Dashboard(s.engine.Store(), filter); err != nil {
					s.logger.Warnf("Could not draw dashboard: %v", err)
				}
			}

			s, err := connect(ctx, cmd, opts, syncer.WithOnChange(redraw))
			if err != nil {
				return err
			}
			redraw(s.engine.Store().Stats())

			p := s.engine.StartPolling(ctx, s.cfg.PollInterval)
			defer s.engine.StopPolling()

			select {
			case <-ctx.Done():
				return nil
			case <-p.Done():
				if s.engine.State() == syncer.Unauthenticated {
					return errors.New("backend rejected the token, stopped refreshing")
				}
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only show hosts whose name contains this text")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [filter]",
		Short: "Fetch the hosts once and print them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := connect(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return s.renderer.Dashboard(s.engine.Store(), query)
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print total, online and down counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := connect(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			stats := s.engine.Store().Stats()
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(stats)
			}
			return s.renderer.Stats(stats)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <ip>",
		Short: "Add a host",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := connect(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			saved, err := s.engine.Save(cmd.Context(), host.Host{Name: args[0], Address: args[1]})
			if err != nil {
				return saveError(saved, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) as #%d\n", saved.Name, saved.Address, saved.ID)
			return nil
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var name, address string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a host's name or address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if name == "" && address == "" {
				return errors.New("nothing to change: pass --name and/or --ip")
			}

			s, err := connect(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			h, ok := s.engine.Store().Get(id)
			if !ok {
				return fmt.Errorf("no host with id %d", id)
			}
			if name != "" {
				h.Name = name
			}
			if address != "" {
				h.Address = address
			}

			saved, err := s.engine.Save(cmd.Context(), h)
			if err != nil {
				return saveError(saved, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d: %s (%s)\n", saved.ID, saved.Name, saved.Address)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&address, "ip", "", "new IPv4 address")
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Remove a host",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := connect(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			if err := s.engine.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed #%d\n", id)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid host id %q", s)
	}
	return id, nil
}

// saveError explains what happened to a local edit whose push failed.
func saveError(saved host.Host, err error) error {
	if errors.Is(err, host.ErrValidation) || saved.ID == 0 {
		return err
	}
	return fmt.Errorf("host #%d was not saved on the backend: %w", saved.ID, err)
}
