// Package history records conversions in an append-only log owned by the
// caller. Failed conversions are recorded too; consumers such as charts must
// tolerate records without a numeric result.
package history

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/convertkit/unitconv/internal/converter"
)

// ErrClosed is returned by operations on a closed log.
var ErrClosed = errors.New("history log is closed")

// Record is one logged conversion.
type Record struct {
	ID        string         `json:"id"`
	Time      time.Time      `json:"time"`
	Value     float64        `json:"value"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Category  string         `json:"category,omitempty"`
	Result    *float64       `json:"result"`
	ErrorKind converter.Kind `json:"errorKind,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// NewRecord builds a record for a dispatched request and its result.
func NewRecord(req converter.Request, category converter.Category, res converter.Result) Record {
	r := Record{
		ID:       uuid.New().String(),
		Time:     time.Now().UTC(),
		Value:    req.Value,
		From:     req.From,
		To:       req.To,
		Category: string(category),
	}

	if res.OK() {
		v := res.Value
		r.Result = &v
	} else {
		r.ErrorKind = res.Err.Kind
		r.Error = res.Err.Message
	}

	return r
}

// Numeric returns the result and true for a successful conversion.
func (r Record) Numeric() (float64, bool) {
	if r.Result == nil {
		return 0, false
	}

	return *r.Result, true
}

// Display renders the result the way the dispatcher does.
func (r Record) Display() string {
	if r.Result == nil {
		return "Error: " + r.Error
	}

	return strconv.FormatFloat(*r.Result, 'g', -1, 64)
}

// Log is an ordered, append-only record of conversions.
type Log interface {
	// Append adds a record at the end of the log.
	Append(ctx context.Context, r Record) error

	// List returns all records in insertion order.
	List(ctx context.Context) ([]Record, error)

	// Clear removes all records.
	Clear(ctx context.Context) error

	// Close releases resources held by the log.
	Close() error
}

// Open returns a SQLite-backed log at path, or an in-memory log when path is
// empty.
func Open(ctx context.Context, path string) (Log, error) {
	if path == "" {
		return NewMemoryLog(), nil
	}

	return OpenSQLite(ctx, path)
}

// MemoryLog is a Log held in process memory. It is safe for concurrent use.
type MemoryLog struct {
	mu      sync.RWMutex
	records []Record
	closed  bool
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append implements Log.
func (m *MemoryLog) Append(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.records = append(m.records, r)

	return nil
}

// List implements Log.
func (m *MemoryLog) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	return slices.Clone(m.records), nil
}

// Clear implements Log.
func (m *MemoryLog) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.records = nil

	return nil
}

// Close implements Log.
func (m *MemoryLog) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}
