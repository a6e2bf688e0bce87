package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/sydlexius/glyphbadge/internal/assets"
	"github.com/sydlexius/glyphbadge/internal/catalog"
	"github.com/sydlexius/glyphbadge/internal/config"
	"github.com/sydlexius/glyphbadge/internal/database"
	"github.com/sydlexius/glyphbadge/internal/event"
	"github.com/sydlexius/glyphbadge/internal/logging"
	"github.com/sydlexius/glyphbadge/internal/preset"
	"github.com/sydlexius/glyphbadge/internal/version"
)

// app is the state shared by all commands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfgPath string
	cfg     *config.Config
	logs    *logging.Manager
	logger  *slog.Logger

	src     assets.Source
	db      *sql.DB
	closers []func() error
}

// run builds the command tree and executes it with args.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	return multierr.Append(err, a.close())
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "glyphbadge",
		Short:         "Build styled app-icon badges from a glyph catalog",
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (default is $GB_CONFIG_PATH or the user config dir)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json)")
	pf.String("assets", "", "glyph asset directory (overrides assets.dir)")
	pf.String("assets-url", "", "glyph asset base URL (overrides assets.base_url)")

	root.AddCommand(
		a.searchCmd(),
		a.exportCmd(),
		a.watchCmd(),
		a.thumbsCmd(),
		a.manifestCmd(),
		a.presetCmd(),
		a.versionCmd(),
	)
	return root
}

// init loads configuration and logging. Flags explicitly set on the command
// line override the config file and environment.
func (a *app) init(cmd *cobra.Command) error {
	path := a.cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("assets") {
		cfg.Assets.Dir, _ = flags.GetString("assets")
		cfg.Assets.BaseURL = ""
	}
	if flags.Changed("assets-url") {
		cfg.Assets.BaseURL, _ = flags.GetString("assets-url")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating flags: %w", err)
	}

	logs, logger := logging.NewManager(cfg.Logging, a.stderr)
	a.cfg = cfg
	a.logs = logs
	a.logger = logger
	a.closers = append(a.closers, logs.Close)
	logger.Debug("configuration loaded", slog.String("path", path), slog.String("logging", cfg.Logging.String()))
	return nil
}

// source returns the configured asset source behind an in-memory cache.
func (a *app) source() assets.Source {
	if a.src != nil {
		return a.src
	}
	var base assets.Source
	if a.cfg.Assets.Remote() {
		base = assets.NewHTTPSource(a.cfg.Assets.BaseURL, assets.HTTPOptions{
			Catalog:           a.cfg.Assets.Catalog,
			Timeout:           a.cfg.Assets.Timeout,
			RequestsPerSecond: a.cfg.Assets.RequestsPerSecond,
			Retries:           a.cfg.Assets.Retries,
			UserAgent:         version.UserAgent(),
		}, a.logger)
	} else {
		base = assets.NewDirSource(os.DirFS(a.cfg.Assets.Dir), a.cfg.Assets.Catalog, a.logger)
	}
	a.src = assets.NewCache(base, a.cfg.Assets.CacheEntries)
	return a.src
}

// loader returns a catalog loader over the configured source.
func (a *app) loader(bus *event.Bus) *catalog.Loader {
	return catalog.NewLoader(a.source(), bus, a.logger, catalog.WithTimeout(a.cfg.Assets.Timeout))
}

// bus starts an event bus that is drained and stopped when the command
// finishes.
func (a *app) bus() *event.Bus {
	b := event.NewBus(a.logger, 256)
	go b.Start()
	a.closers = append(a.closers, func() error {
		b.Stop()
		<-b.Drained()
		return nil
	})
	return b
}

// presets opens the preset store.
func (a *app) presets(ctx context.Context) (*preset.Service, error) {
	if a.db == nil {
		db, err := database.OpenMigrated(ctx, a.cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("opening preset store: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
	}
	return preset.NewService(a.db), nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
