package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/convertkit/unitconv/internal/logging"
	"github.com/convertkit/unitconv/internal/rates"
	"github.com/convertkit/unitconv/internal/server"
	"github.com/convertkit/unitconv/internal/watch"
)

type serveOptions struct {
	listen   string
	watch    bool
	debounce time.Duration
}

func newServeCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Long: `Serve runs a JSON HTTP API over the converter:

  GET    /health             liveness check
  GET    /categories         category table
  GET    /categories/:name   units of one category
  POST   /convert            {"value", "from", "to", "category"}
  GET    /history            recorded conversions
  DELETE /history            clear the history
  GET    /rates              current rate snapshot

Every conversion is recorded in the history log (--history-db, or
memory when unset). With --watch the --rates-file snapshot is reloaded
whenever it changes; a snapshot that fails to parse keeps the previous
rates in service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.listen, "listen", server.DefaultListenAddr, "address to listen on")
	f.BoolVar(&opts.watch, "watch", false, "reload --rates-file when it changes")
	f.DurationVar(&opts.debounce, "debounce", watch.DefaultOptions().Debounce, "debounce interval for rate file changes")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *serveOptions) error {
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}

	if opts.watch && rt.static == nil {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("--watch requires --rates-file")}
	}

	log, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(rt.dispatcher, log,
		server.WithRateProvider(rt.provider),
		server.WithLogger(logging.ForComponent(ctx, logging.ComponentServer)),
	)

	if opts.watch {
		watchOpts := watch.DefaultOptions()
		watchOpts.Debounce = opts.debounce
		watchOpts.Logger = logging.ForComponent(ctx, logging.ComponentWatch)
		watchOpts.Out = cmd.ErrOrStderr()

		go func() {
			if err := rates.WatchFile(ctx, rt.static, watchOpts, nil); err != nil && !errors.Is(err, context.Canceled) {
				watchOpts.Logger.Error("rate file watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	if err := srv.Run(ctx, opts.listen); err != nil {
		return &ExitError{Code: exitError, Err: fmt.Errorf("serving: %w", err)}
	}

	return nil
}
