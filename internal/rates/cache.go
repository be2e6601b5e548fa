package rates

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is how long a fetched snapshot is served before refetching.
const DefaultTTL = time.Hour

// CachedProvider serves the last snapshot of another provider until it is
// older than the TTL. A snapshot past its TTL is never served: if the
// refetch fails the error is returned.
type CachedProvider struct {
	next   Provider
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	snap    *Snapshot
	fetched time.Time
}

// CacheOption configures a CachedProvider.
type CacheOption func(*CachedProvider)

// WithCacheLogger sets the cache's logger.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *CachedProvider) {
		c.logger = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *CachedProvider) {
		c.now = now
	}
}

// NewCachedProvider wraps next. A non-positive ttl selects DefaultTTL.
func NewCachedProvider(next Provider, ttl time.Duration, opts ...CacheOption) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &CachedProvider{
		next:   next,
		ttl:    ttl,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Rate implements Provider.
func (c *CachedProvider) Rate(ctx context.Context, code string) (Rate, error) {
	s, err := c.current(ctx)
	if err != nil {
		return Rate{}, err
	}

	return s.Rate(code)
}

// Snapshot implements Provider.
func (c *CachedProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	s, err := c.current(ctx)
	if err != nil {
		return nil, err
	}

	return s.Clone(), nil
}

// Invalidate drops the cached snapshot.
func (c *CachedProvider) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap = nil
}

// Info reports the age of the cached snapshot.
func (c *CachedProvider) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := Info{TTL: c.ttl, IsStale: true}
	if c.snap != nil {
		info.Source = c.snap.Source
		info.FetchedAt = c.fetched
		info.IsStale = c.now().Sub(c.fetched) >= c.ttl
	}

	return info
}

// current returns the cached snapshot, refetching it when missing or
// expired. Concurrent callers wait for a single refetch.
func (c *CachedProvider) current(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil && c.now().Sub(c.fetched) < c.ttl {
		return c.snap, nil
	}

	s, err := c.next.Snapshot(ctx)
	if err != nil {
		c.logger.Warn("refreshing rates failed", slog.String("error", err.Error()))
		return nil, err
	}

	c.snap = s
	c.fetched = c.now()

	c.logger.Debug("rates refreshed",
		slog.String("source", s.Source),
		slog.Int("currencies", len(s.Rates)),
	)

	return s, nil
}
