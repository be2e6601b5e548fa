package history

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/convertkit/unitconv/internal/converter"
)

func okRecord(value float64, from, to string, result float64) Record {
	return NewRecord(
		converter.Request{Value: value, From: from, To: to},
		converter.Length,
		converter.Result{Value: result},
	)
}

func failedRecord() Record {
	return NewRecord(
		converter.Request{Value: 1, From: "meter", To: "liter"},
		"Length-vs-Volume-mismatch",
		converter.Result{Err: &converter.Error{Kind: converter.IncompatibleUnits, Message: "Cannot convert"}},
	)
}

// logs returns one of each Log implementation for shared behavior tests.
func logs(t *testing.T) map[string]Log {
	t.Helper()

	sqliteLog, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = sqliteLog.Close() })

	return map[string]Log{
		"memory": NewMemoryLog(),
		"sqlite": sqliteLog,
	}
}

// ---------------------------------------------------------------------------
// Record
// ---------------------------------------------------------------------------

func TestNewRecord_Success(t *testing.T) {
	r := okRecord(1000, "meter", "kilometer", 1)

	assert.NotEmpty(t, r.ID)
	assert.False(t, r.Time.IsZero())
	assert.Equal(t, "Length", r.Category)

	v, ok := r.Numeric()
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, "1", r.Display())
	assert.Zero(t, r.ErrorKind)
}

func TestNewRecord_Failure(t *testing.T) {
	r := failedRecord()

	_, ok := r.Numeric()
	assert.False(t, ok)
	assert.Equal(t, converter.IncompatibleUnits, r.ErrorKind)
	assert.Equal(t, "Error: Cannot convert", r.Display())
}

func TestNewRecord_UniqueIDs(t *testing.T) {
	a := okRecord(1, "m", "m", 1)
	b := okRecord(1, "m", "m", 1)
	assert.NotEqual(t, a.ID, b.ID)
}

// ---------------------------------------------------------------------------
// Log implementations
// ---------------------------------------------------------------------------

func TestLog_AppendListPreservesOrder(t *testing.T) {
	for name, l := range logs(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first := okRecord(1000, "meter", "kilometer", 1)
			second := failedRecord()
			third := okRecord(1, "mile", "kilometer", 1.609344)

			for _, r := range []Record{first, second, third} {
				require.NoError(t, l.Append(ctx, r))
			}

			got, err := l.List(ctx)
			require.NoError(t, err)
			require.Len(t, got, 3)

			assert.Equal(t, first.ID, got[0].ID)
			assert.Equal(t, second.ID, got[1].ID)
			assert.Equal(t, third.ID, got[2].ID)

			assert.Nil(t, got[1].Result)
			assert.Equal(t, converter.IncompatibleUnits, got[1].ErrorKind)
			assert.Equal(t, "Cannot convert", got[1].Error)
			assert.Equal(t, "Length-vs-Volume-mismatch", got[1].Category)

			require.NotNil(t, got[2].Result)
			assert.Equal(t, 1.609344, *got[2].Result)
			assert.True(t, first.Time.Equal(got[0].Time))
		})
	}
}

func TestLog_Clear(t *testing.T) {
	for name, l := range logs(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, l.Append(ctx, okRecord(1, "m", "km", 0.001)))
			require.NoError(t, l.Clear(ctx))

			got, err := l.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, l.Append(ctx, okRecord(2, "m", "km", 0.002)))
			got, err = l.List(ctx)
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestLog_ConcurrentAppends(t *testing.T) {
	for name, l := range logs(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)

				go func(i int) {
					defer wg.Done()
					assert.NoError(t, l.Append(ctx, okRecord(float64(i), "m", "km", float64(i)/1000)))
				}(i)
			}

			wg.Wait()

			got, err := l.List(ctx)
			require.NoError(t, err)
			assert.Len(t, got, 20)
		})
	}
}

func TestMemoryLog_ListIsCopy(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()
	require.NoError(t, l.Append(ctx, okRecord(1, "m", "km", 0.001)))

	got, err := l.List(ctx)
	require.NoError(t, err)
	got[0].From = "mutated"

	again, err := l.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m", again[0].From)
}

func TestMemoryLog_Closed(t *testing.T) {
	l := NewMemoryLog()
	require.NoError(t, l.Close())

	assert.ErrorIs(t, l.Append(context.Background(), okRecord(1, "m", "m", 1)), ErrClosed)
	_, err := l.List(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSQLiteLog_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	l, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, okRecord(3, "foot", "yard", 1)))
	require.NoError(t, l.Close())

	l, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer l.Close()

	got, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "foot", got[0].From)
}

func TestSQLiteLog_InMemory(t *testing.T) {
	ctx := context.Background()

	l, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Append(ctx, okRecord(1, "m", "km", 0.001)))
	got, err := l.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteLog_DuplicateID(t *testing.T) {
	ctx := context.Background()

	l, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer l.Close()

	r := okRecord(1, "m", "km", 0.001)
	require.NoError(t, l.Append(ctx, r))
	assert.Error(t, l.Append(ctx, r))
}

func TestOpen(t *testing.T) {
	l, err := Open(context.Background(), "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryLog{}, l)

	l, err = Open(context.Background(), filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteLog{}, l)
	require.NoError(t, l.Close())
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

func TestExport_JSON(t *testing.T) {
	records := []Record{okRecord(1000, "meter", "kilometer", 1), failedRecord()}

	out, err := Export(records, "json")
	require.NoError(t, err)

	var doc struct {
		Count   int              `json:"count"`
		Records []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))

	assert.Equal(t, 2, doc.Count)
	assert.Equal(t, 1.0, doc.Records[0]["result"])
	assert.NotContains(t, doc.Records[0], "errorKind")
	assert.Nil(t, doc.Records[1]["result"])
	assert.Equal(t, "IncompatibleUnits", doc.Records[1]["errorKind"])
}

func TestExport_YAML(t *testing.T) {
	out, err := Export([]Record{failedRecord()}, "yaml")
	require.NoError(t, err)

	var doc Document
	require.NoError(t, sigsyaml.Unmarshal(out, &doc))
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, converter.IncompatibleUnits, doc.Records[0].ErrorKind)
	assert.Contains(t, string(out), "errorKind: IncompatibleUnits")
}

func TestExport_JSONLines(t *testing.T) {
	out, err := Export([]Record{okRecord(1000, "meter", "kilometer", 1), failedRecord()}, "jsonl")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	require.Len(t, lines, 2)

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "kilometer", rec.To)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, converter.IncompatibleUnits, rec.ErrorKind)
}

func TestExport_Empty(t *testing.T) {
	out, err := Export(nil, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":0,"records":[]}`, string(out))
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := Export(nil, "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
