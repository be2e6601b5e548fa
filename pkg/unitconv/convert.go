// Package unitconv provides a public Go API for converting values between
// units of measurement and currencies.
//
// Basic usage:
//
//	res, err := unitconv.Convert(ctx, 1000, "meter", "kilometer")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Display) // "1"
//
// A failed conversion is not a Go error: it is reported in the Result with
// a Kind and a message. The error return is reserved for invalid options,
// such as an unreadable rate snapshot file.
//
// Reuse a Converter to share the currency rate cache between calls:
//
//	c, err := unitconv.New(unitconv.WithRatesFile("rates.yaml"))
//	res := c.Convert(ctx, 20, "EUR", "JPY", unitconv.WithCategory("Currency"))
package unitconv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/convertkit/unitconv/internal/converter"
	"github.com/convertkit/unitconv/internal/logging"
	"github.com/convertkit/unitconv/internal/rates"
)

// Kind classifies a failed conversion.
type Kind = converter.Kind

// Failure kinds.
const (
	RateUnavailable            = converter.RateUnavailable
	UnknownUnit                = converter.UnknownUnit
	IncompatibleUnits          = converter.IncompatibleUnits
	UnspecifiedTemperaturePair = converter.UnspecifiedTemperaturePair
	ConversionFailed           = converter.ConversionFailed
)

// Result is the outcome of one conversion.
type Result struct {
	// Value is the converted value. Zero when the conversion failed.
	Value float64 `json:"value"`

	// Category is the category the conversion was dispatched under.
	Category string `json:"category,omitempty"`

	// Display is the numeric result as text, or "Error: <message>".
	Display string `json:"display"`

	// Kind is set when the conversion failed.
	Kind Kind `json:"kind,omitempty"`

	// Message describes the failure.
	Message string `json:"message,omitempty"`
}

// OK reports whether the conversion succeeded.
func (r Result) OK() bool {
	return r.Kind == 0
}

// Err returns the failure as an error value, or nil on success. The error
// matches the converter sentinels of its kind with errors.Is.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}

	return &converter.Error{Kind: r.Kind, Message: r.Message}
}

// Option configures a Converter or a single conversion.
type Option func(*options)

type options struct {
	category  string
	ratesFile string
	ratesURL  string
	ratesTTL  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	provider  rates.Provider
}

func defaultOptions() options {
	return options{
		ratesURL: rates.DefaultURL,
		ratesTTL: rates.DefaultTTL,
		timeout:  rates.DefaultTimeout,
		logger:   logging.Discard(),
	}
}

// WithCategory sets the conversion category. Without it the category is
// inferred from the units.
func WithCategory(c string) Option { return func(o *options) { o.category = c } }

// WithRatesFile serves currency rates from a YAML snapshot file.
func WithRatesFile(path string) Option { return func(o *options) { o.ratesFile = path } }

// WithRatesURL sets the base URL of the rate service.
func WithRatesURL(url string) Option { return func(o *options) { o.ratesURL = url } }

// WithRatesTTL sets how long fetched rates are reused.
func WithRatesTTL(ttl time.Duration) Option { return func(o *options) { o.ratesTTL = ttl } }

// WithTimeout bounds one currency conversion.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithLogger sets the logger for conversion diagnostics.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithRates serves currency rates from a fixed table of units per one USD.
func WithRates(table map[string]float64) Option {
	return func(o *options) {
		o.provider = rates.NewSnapshotProvider(&rates.Snapshot{
			SchemaVersion: rates.SchemaVersion,
			Base:          rates.ReferenceCurrency,
			Rates:         table,
		})
	}
}

// Converter performs conversions with a fixed rate source.
type Converter struct {
	dispatcher *converter.Dispatcher
	opts       options
}

// New creates a Converter.
func New(opts ...Option) (*Converter, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	provider, err := newProvider(o)
	if err != nil {
		return nil, err
	}

	return &Converter{
		dispatcher: converter.New(
			converter.WithRateProvider(provider),
			converter.WithTimeout(o.timeout),
			converter.WithLogger(o.logger),
		),
		opts: o,
	}, nil
}

func newProvider(o options) (rates.Provider, error) {
	switch {
	case o.provider != nil:
		return o.provider, nil
	case o.ratesFile != "":
		p, err := rates.NewStaticProvider(o.ratesFile)
		if err != nil {
			return nil, fmt.Errorf("loading rates: %w", err)
		}

		return p, nil
	default:
		var p rates.Provider = rates.NewHTTPProvider(o.ratesURL, o.timeout, rates.WithHTTPLogger(o.logger))
		if o.ratesTTL > 0 {
			p = rates.NewCachedProvider(p, o.ratesTTL, rates.WithCacheLogger(o.logger))
		}

		return p, nil
	}
}

// Convert converts value. Only WithCategory is honoured among opts; the
// rate source is fixed at construction.
func (c *Converter) Convert(ctx context.Context, value float64, from, to string, opts ...Option) Result {
	o := c.opts
	for _, opt := range opts {
		opt(&o)
	}

	req := converter.Request{
		Value:    value,
		From:     from,
		To:       to,
		Category: converter.Category(o.category),
	}

	res := c.dispatcher.Convert(ctx, req)

	out := Result{
		Category: string(converter.Resolve(req)),
		Display:  res.String(),
	}

	if res.OK() {
		out.Value = res.Value
	} else {
		out.Kind = res.Err.Kind
		out.Message = res.Err.Message
	}

	return out
}

// Convert performs one conversion with a new Converter.
func Convert(ctx context.Context, value float64, from, to string, opts ...Option) (Result, error) {
	c, err := New(opts...)
	if err != nil {
		return Result{}, err
	}

	return c.Convert(ctx, value, from, to), nil
}

// Categories returns the category names in display order.
func Categories() []string {
	cats := converter.Categories()

	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}

	return out
}

// Units returns the units of a category (case-insensitive). The boolean is
// false for an unknown category.
func Units(category string) ([]string, bool) {
	c, ok := converter.ParseCategory(category)
	if !ok {
		return nil, false
	}

	return converter.Units(c)
}
