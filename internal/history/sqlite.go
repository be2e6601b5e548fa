package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/convertkit/unitconv/internal/converter"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT    NOT NULL UNIQUE,
	created_at    TEXT    NOT NULL,
	value         REAL    NOT NULL,
	from_unit     TEXT    NOT NULL,
	to_unit       TEXT    NOT NULL,
	category      TEXT    NOT NULL DEFAULT '',
	result        REAL,
	error_kind    TEXT    NOT NULL DEFAULT '',
	error_message TEXT    NOT NULL DEFAULT ''
);
`

// SQLiteLog is a Log persisted in a SQLite database.
type SQLiteLog struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the history database at path.
// ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteLog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	// SQLite supports one writer; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configuring history database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &SQLiteLog{db: db}, nil
}

// Append implements Log.
func (s *SQLiteLog) Append(ctx context.Context, r Record) error {
	var result sql.NullFloat64
	if v, ok := r.Numeric(); ok {
		result = sql.NullFloat64{Float64: v, Valid: true}
	}

	var kind string
	if r.ErrorKind != 0 {
		kind = r.ErrorKind.String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, created_at, value, from_unit, to_unit, category, result, error_kind, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Time.UTC().Format(time.RFC3339Nano), r.Value, r.From, r.To, r.Category,
		result, kind, r.Error,
	)
	if err != nil {
		return fmt.Errorf("appending history record: %w", err)
	}

	return nil
}

// List implements Log.
func (s *SQLiteLog) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, value, from_unit, to_unit, category, result, error_kind, error_message
		 FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []Record

	for rows.Next() {
		var (
			r       Record
			created string
			result  sql.NullFloat64
			kind    string
		)

		if err := rows.Scan(&r.ID, &created, &r.Value, &r.From, &r.To, &r.Category, &result, &kind, &r.Error); err != nil {
			return nil, fmt.Errorf("reading history record: %w", err)
		}

		if r.Time, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("record %s: invalid timestamp: %w", r.ID, err)
		}

		if result.Valid {
			v := result.Float64
			r.Result = &v
		}

		if kind != "" {
			if r.ErrorKind, err = converter.ParseKind(kind); err != nil {
				return nil, fmt.Errorf("record %s: %w", r.ID, err)
			}
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	return out, nil
}

// Clear implements Log.
func (s *SQLiteLog) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}

	return nil
}

// Close implements Log.
func (s *SQLiteLog) Close() error {
	return s.db.Close()
}
