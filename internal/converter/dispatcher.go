// Package converter dispatches unit conversions to one of three strategies by
// category: currency cross rates, temperature formulas, or the generic
// dimensional unit registry.
//
// Every outcome is a Result. Failures, including panics inside a strategy,
// are classified into a Kind and never escape as a Go error or a panic.
package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/convertkit/unitconv/internal/logging"
	"github.com/convertkit/unitconv/internal/rates"
	"github.com/convertkit/unitconv/internal/units"
)

// Request is one conversion request. Category may be empty, in which case it
// is inferred from the table (falling back to the generic registry).
type Request struct {
	Value    float64  `json:"value"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Category Category `json:"category,omitempty"`
}

// Dispatcher routes requests to conversion strategies. It is safe for
// concurrent use if its rate provider is.
type Dispatcher struct {
	registry *units.Registry
	provider rates.Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRegistry replaces the default unit registry.
func WithRegistry(r *units.Registry) Option {
	return func(d *Dispatcher) {
		d.registry = r
	}
}

// WithRateProvider sets the currency rate source. Without one, every
// currency conversion fails with RateUnavailable.
func WithRateProvider(p rates.Provider) Option {
	return func(d *Dispatcher) {
		d.provider = p
	}
}

// WithTimeout bounds the currency round-trip. Zero means no extra bound
// beyond the caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithLogger sets the dispatcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New creates a dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: units.Default(),
		logger:   logging.Discard(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Resolve returns the category a request is dispatched under: the table
// spelling of a known category, the inferred category when empty, or the
// category string unchanged.
func Resolve(req Request) Category {
	if req.Category == "" {
		if c, ok := InferCategory(req.From, req.To); ok {
			return c
		}

		return ""
	}

	c, _ := ParseCategory(string(req.Category))

	return c
}

// strategy selects the conversion strategy for c.
func (d *Dispatcher) strategy(c Category) Strategy {
	switch c {
	case Currency:
		return currencyStrategy{provider: d.provider}
	case Temperature:
		return temperatureStrategy{}
	default:
		// The remaining table categories and any category outside the
		// table resolve through the unit registry.
		return genericStrategy{registry: d.registry}
	}
}

// Convert performs one conversion. It never panics.
func (d *Dispatcher) Convert(ctx context.Context, req Request) (res Result) {
	category := Resolve(req)

	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: &Error{
				Kind:    ConversionFailed,
				Message: fmt.Sprintf("conversion panicked: %v", r),
			}}
		}

		d.log(req, category, res)
	}()

	if category == Currency && d.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	v, err := d.strategy(category).Convert(ctx, req.Value, req.From, req.To)
	if err != nil {
		return Result{Err: classify(err)}
	}

	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Result{Err: &Error{
			Kind:    ConversionFailed,
			Message: fmt.Sprintf("result is not a finite number (%v)", v),
		}}
	}

	return Result{Value: v}
}

func (d *Dispatcher) log(req Request, category Category, res Result) {
	attrs := []any{
		slog.Float64("value", req.Value),
		slog.String("from", req.From),
		slog.String("to", req.To),
		slog.String("category", string(category)),
	}

	if res.Err != nil {
		d.logger.Debug("conversion failed", append(attrs,
			slog.String("kind", res.Err.Kind.String()),
			slog.String("error", res.Err.Message),
		)...)

		return
	}

	d.logger.Debug("conversion done", append(attrs, slog.Float64("result", res.Value))...)
}

// classify maps collaborator errors onto the error taxonomy.
func classify(err error) *Error {
	var convErr *Error
	if errors.As(err, &convErr) {
		return convErr
	}

	var unknown *units.UnknownUnitError
	if errors.As(err, &unknown) {
		return newError(UnknownUnit, err)
	}

	var dim *units.DimensionalityError
	if errors.As(err, &dim) {
		return newError(IncompatibleUnits, err)
	}

	if errors.Is(err, rates.ErrRateUnavailable) {
		return newError(RateUnavailable, err)
	}

	return newError(ConversionFailed, err)
}
