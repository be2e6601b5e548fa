package cli

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/convertkit/unitconv/internal/config"
	"github.com/convertkit/unitconv/internal/converter"
	"github.com/convertkit/unitconv/internal/history"
	"github.com/convertkit/unitconv/internal/logging"
	"github.com/convertkit/unitconv/internal/rates"
	"github.com/convertkit/unitconv/internal/units"
)

// runtime bundles the collaborators shared by the conversion commands.
type runtime struct {
	cfg        *config.Config
	provider   rates.Provider
	static     *rates.StaticProvider
	dispatcher *converter.Dispatcher
}

// newRuntime builds the unit registry, the rate provider and the dispatcher
// from the configuration carried in ctx.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	registry, err := newRegistry(ctx)
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}

	rt := &runtime{cfg: cfg}

	if cfg.RatesFile != "" {
		static, err := rates.NewStaticProvider(cfg.RatesFile)
		if err != nil {
			return nil, &ExitError{Code: exitUsage, Err: err}
		}

		rt.static = static
		rt.provider = static

		logger.Debug("using rate snapshot file", slog.String("path", cfg.RatesFile))
	} else {
		burst := max(1, int(math.Ceil(cfg.RatesRPS)))

		ratesLogger := logging.ForComponent(ctx, logging.ComponentRates)

		var p rates.Provider = rates.NewHTTPProvider(cfg.RatesURL, cfg.RatesTimeout,
			rates.WithRateLimit(cfg.RatesRPS, burst),
			rates.WithHTTPLogger(ratesLogger),
		)

		if cfg.RatesTTL > 0 {
			p = rates.NewCachedProvider(p, cfg.RatesTTL, rates.WithCacheLogger(ratesLogger))
		}

		rt.provider = p

		logger.Debug("using rate service",
			slog.String("url", cfg.RatesURL),
			slog.Duration("ttl", cfg.RatesTTL),
			slog.Duration("timeout", cfg.RatesTimeout),
		)
	}

	rt.dispatcher = converter.New(
		converter.WithRegistry(registry),
		converter.WithRateProvider(rt.provider),
		converter.WithTimeout(cfg.RatesTimeout),
		converter.WithLogger(logging.ForComponent(ctx, logging.ComponentConverter)),
	)

	return rt, nil
}

// newRegistry returns the default registry, or a fresh one extended with the
// custom units of the config file.
func newRegistry(ctx context.Context) (*units.Registry, error) {
	unitsCfg, err := config.LoadUnitsConfig(config.ConfigFileFromContext(ctx))
	if err != nil {
		return nil, err
	}

	if unitsCfg.IsEmpty() {
		return units.Default(), nil
	}

	r := units.New()
	if err := unitsCfg.Apply(r); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("custom units defined", slog.Int("count", len(unitsCfg.Units)))

	return r, nil
}

// openHistory opens the configured history log. Without --history-db the log
// lives in memory and is empty at start.
func openHistory(ctx context.Context) (history.Log, error) {
	path := config.FromContext(ctx).HistoryDB

	defer logging.Elapsed(logging.ForComponent(ctx, logging.ComponentHistory), "history opened",
		time.Now(), slog.String("path", path))

	log, err := history.Open(ctx, path)
	if err != nil {
		return nil, &ExitError{Code: exitError, Err: fmt.Errorf("opening history: %w", err)}
	}

	return log, nil
}

// record appends r to every log, reporting the first failure.
func record(ctx context.Context, r history.Record, logs ...history.Log) error {
	for _, l := range logs {
		if l == nil {
			continue
		}

		if err := l.Append(ctx, r); err != nil {
			return fmt.Errorf("recording conversion: %w", err)
		}
	}

	return nil
}
