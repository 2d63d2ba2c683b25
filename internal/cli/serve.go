package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/cube/internal/api"
	"github.com/roach88/cube/internal/engine"
	"github.com/roach88/cube/internal/hunt"
	"github.com/roach88/cube/internal/store"
	"github.com/roach88/cube/internal/timer"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen string

	// FlowGenerator allows overriding the cascade token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	FlowGenerator engine.FlowTokenGenerator
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hunt server",
		Long: `Start the hunt server.

Opens the database (creating it if it doesn't exist), installs the configured
hunt's puzzles, and runs the event engine, the periodic timer and the HTTP
API until interrupted.

Example:
  cube serve --config ./cube.yaml
  cube serve --db /tmp/hunt.db --listen :8080 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	env, err := openEnvironment(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.cfg
	if opts.Listen != "" {
		cfg.ListenAddress = opts.Listen
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := hunt.Install(ctx, env.hunt, env.def); err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to install hunt", err)
	}

	flowGen := opts.FlowGenerator
	if flowGen == nil {
		flowGen = engine.UUIDv7Generator{}
	}
	proc := engine.NewProcessor()
	hunt.Wire(proc, env.hunt, env.def, time.Now)
	eng := engine.New(proc, flowGen)

	svc := hunt.NewService(eng, store.NewSubmissionStore(env.store), env.hunt)
	e := api.BuildEcho(slog.Default())
	api.NewHandler(svc, store.NewUserStore(env.store)).AddRoutes(e)

	ticks := timer.New(eng, timer.WithInterval(cfg.Timer.Interval))

	slog.Info("server starting",
		"listen", cfg.ListenAddress,
		"db", cfg.Database.Path,
		"hunt", env.def.Name(),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving hunt %q on %s. Press Ctrl-C to stop.\n", env.def.Name(), cfg.ListenAddress)

	g, gctx := errgroup.WithContext(ctx)

	// The engine outlives the HTTP server so in-flight requests can finish
	// their cascades; it is stopped once the server has shut down.
	g.Go(func() error {
		return eng.Run(context.Background())
	})
	g.Go(func() error {
		return ticks.Run(gctx)
	})
	g.Go(func() error {
		if err := e.Start(cfg.ListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", "grace", cfg.GracefulShutdown())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdown())
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		eng.Stop()
		if err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "server error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
