// Package rates resolves currency exchange rates against a reference
// currency.
//
// Rates are quoted as units of a currency per one unit of the reference
// currency (USD), so converting between two currencies is
// value * (rate[to] / rate[from]).
//
// Providers:
//
//   - HTTPProvider fetches the latest rates from a Frankfurter-compatible
//     JSON API, with a request timeout and client-side rate limiting.
//   - StaticProvider serves a snapshot loaded from a YAML file and can be
//     reloaded when the file changes (see WatchFile).
//   - CachedProvider keeps the last snapshot of another provider for a TTL.
//
// Every resolution failure wraps ErrRateUnavailable.
package rates

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ReferenceCurrency is the currency every rate is quoted against.
const ReferenceCurrency = "USD"

// ErrRateUnavailable is wrapped by every error returned when a rate cannot be
// resolved: unsupported code, network failure, malformed response or timeout.
var ErrRateUnavailable = errors.New("rate unavailable")

// Rate is the exchange rate of one currency against the snapshot base.
type Rate struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Value     float64   `json:"value"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Provider resolves exchange rates.
type Provider interface {
	// Rate returns the rate of code against the reference currency.
	Rate(ctx context.Context, code string) (Rate, error)

	// Snapshot returns all known rates. Callers may modify the result.
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Info describes the freshness of cached rates.
type Info struct {
	Source    string        `json:"source"`
	FetchedAt time.Time     `json:"fetchedAt"`
	TTL       time.Duration `json:"ttl"`
	IsStale   bool          `json:"isStale"`
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrRateUnavailable}, args...)...)
}
