package cli

import (
	"io"
	"log/slog"

	"github.com/roach88/cube/internal/config"
	"github.com/roach88/cube/internal/hunt"
	"github.com/roach88/cube/internal/hunt/catalog"
	"github.com/roach88/cube/internal/store"
)

// environment is what every database command starts from: the loaded
// config, the opened store and the configured hunt.
type environment struct {
	cfg   *config.Config
	store *store.Store
	def   hunt.Definition
	hunt  *store.HuntStatusStore
}

func openEnvironment(opts *RootOptions, f *OutputFormatter) (*environment, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	configureLogging(f.GetErrWriter(), cfg, opts.Verbose)

	def, err := catalog.Lookup(cfg.Hunt.Name, cfg.Hunt.File)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeHunt, "failed to load hunt", err)
	}

	slog.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}

	return &environment{
		cfg:   cfg,
		store: st,
		def:   def,
		hunt:  store.NewHuntStatusStore(st, def.StatusSet()),
	}, nil
}

func (env *environment) Close() {
	if err := env.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// configureLogging installs the default slog handler. --verbose forces
// debug level; otherwise logging.level applies.
func configureLogging(w io.Writer, cfg *config.Config, verbose bool) {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
