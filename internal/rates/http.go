package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultURL is the public Frankfurter API.
	DefaultURL = "https://api.frankfurter.app"

	// DefaultTimeout bounds a single rate request.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

// HTTPProvider fetches the latest rates from a Frankfurter-compatible API:
//
//	GET {baseURL}/latest?from=USD
//	{"amount":1.0,"base":"USD","date":"2024-05-02","rates":{"EUR":0.93,...}}
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithHTTPClient replaces the default client. The client's own timeout is
// used as-is.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		p.client = c
	}
}

// WithRateLimit throttles outgoing requests to rps per second with the given
// burst. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(p *HTTPProvider) {
		if rps <= 0 {
			p.limiter = nil
			return
		}

		if burst < 1 {
			burst = 1
		}

		p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPLogger sets the provider's logger.
func WithHTTPLogger(l *slog.Logger) HTTPOption {
	return func(p *HTTPProvider) {
		p.logger = l
	}
}

// NewHTTPProvider creates a provider for baseURL. A zero timeout selects
// DefaultTimeout.
func NewHTTPProvider(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPProvider {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Rate implements Provider.
func (p *HTTPProvider) Rate(ctx context.Context, code string) (Rate, error) {
	s, err := p.Snapshot(ctx)
	if err != nil {
		return Rate{}, err
	}

	return s.Rate(code)
}

type latestResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// Snapshot implements Provider with one HTTP round-trip.
func (p *HTTPProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, unavailable("waiting for rate limiter: %v", err)
		}
	}

	endpoint := p.baseURL + "/latest?" + url.Values{"from": {ReferenceCurrency}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, unavailable("building request: %v", err)
	}

	req.Header.Set("Accept", "application/json")

	start := p.now()

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, unavailable("fetching %s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	p.logger.Debug("fetched rates",
		slog.String("url", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", p.now().Sub(start)),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, unavailable("rate service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var body latestResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, unavailable("decoding rate response: %v", err)
	}

	if len(body.Rates) == 0 {
		return nil, unavailable("rate service returned no rates")
	}

	s := &Snapshot{
		SchemaVersion: SchemaVersion,
		Base:          body.Base,
		Date:          body.Date,
		Source:        p.baseURL,
		Rates:         body.Rates,
		FetchedAt:     p.now(),
	}
	s.normalize()

	if amount := body.Amount; amount > 0 && amount != 1 {
		for code, r := range s.Rates {
			s.Rates[code] = r / amount
		}
	}

	if err := s.Validate(); err != nil {
		return nil, unavailable("invalid rate response: %v", err)
	}

	return s, nil
}

// String describes the provider for logs.
func (p *HTTPProvider) String() string {
	return fmt.Sprintf("http(%s)", p.baseURL)
}
