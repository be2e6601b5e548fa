package rates

import (
	"context"
	"fmt"
	"sync"
)

// StaticProvider serves rates from an in-memory snapshot, optionally backed
// by a YAML file that can be reloaded.
type StaticProvider struct {
	path string

	mu   sync.RWMutex
	snap *Snapshot
}

// NewStaticProvider loads the snapshot file at path.
func NewStaticProvider(path string) (*StaticProvider, error) {
	s, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	return &StaticProvider{path: path, snap: s}, nil
}

// NewSnapshotProvider serves a fixed snapshot. Reload is a no-op.
func NewSnapshotProvider(s *Snapshot) *StaticProvider {
	c := s.Clone()
	c.normalize()

	return &StaticProvider{snap: c}
}

// Path returns the backing file, or "" for a fixed snapshot.
func (p *StaticProvider) Path() string {
	return p.path
}

// Reload re-reads the backing file. On error the previous snapshot is kept.
func (p *StaticProvider) Reload() error {
	if p.path == "" {
		return nil
	}

	s, err := LoadFile(p.path)
	if err != nil {
		return fmt.Errorf("reloading rates: %w", err)
	}

	p.mu.Lock()
	p.snap = s
	p.mu.Unlock()

	return nil
}

// Rate implements Provider.
func (p *StaticProvider) Rate(ctx context.Context, code string) (Rate, error) {
	if err := ctx.Err(); err != nil {
		return Rate{}, unavailable("%v", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.snap.Rate(code)
}

// Snapshot implements Provider.
func (p *StaticProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("%v", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.snap.Clone(), nil
}
