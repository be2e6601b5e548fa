package rates

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/convertkit/unitconv/internal/watch"
)

// WatchFile reloads p whenever its backing file changes and calls onReload
// (if non-nil) after each successful reload. It blocks until ctx is done.
func WatchFile(ctx context.Context, p *StaticProvider, opts watch.Options, onReload func(*Snapshot)) error {
	if p.Path() == "" {
		return fmt.Errorf("rate provider has no backing file")
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	opts.Files = []string{p.Path()}

	return watch.Run(ctx, opts, func(ctx context.Context, path string) error {
		if path == "" {
			return nil
		}

		if err := p.Reload(); err != nil {
			opts.Logger.Warn("keeping previous rates", slog.String("error", err.Error()))
			return err
		}

		s, err := p.Snapshot(ctx)
		if err != nil {
			return err
		}

		opts.Logger.Info("rates reloaded",
			slog.String("path", path),
			slog.Int("currencies", len(s.Rates)),
		)

		if onReload != nil {
			onReload(s)
		}

		return nil
	})
}
