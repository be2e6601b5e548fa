package rates

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// SchemaVersion is written into snapshots produced by this package.
const SchemaVersion = "1.0.0"

// schemaConstraint accepts every snapshot layout this package can read.
const schemaConstraint = "^1"

// Snapshot is a set of rates quoted against one base currency.
type Snapshot struct {
	SchemaVersion string             `yaml:"schemaVersion" json:"schemaVersion"`
	Base          string             `yaml:"base" json:"base"`
	Date          string             `yaml:"date,omitempty" json:"date,omitempty"`
	Source        string             `yaml:"source,omitempty" json:"source,omitempty"`
	Rates         map[string]float64 `yaml:"rates" json:"rates"`

	// FetchedAt records when the snapshot was obtained. It is not part of
	// the file format.
	FetchedAt time.Time `yaml:"-" json:"-"`
}

// ParseSnapshot decodes and validates a YAML snapshot document. Currency
// codes are normalized to upper case.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing rate snapshot: %w", err)
	}

	s.normalize()

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// LoadFile reads and parses a snapshot file.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided file
	if err != nil {
		return nil, fmt.Errorf("reading rate snapshot: %w", err)
	}

	s, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if s.Source == "" {
		s.Source = path
	}

	if info, statErr := os.Stat(path); statErr == nil {
		s.FetchedAt = info.ModTime()
	}

	return s, nil
}

// Validate checks the schema version, base currency and rate values.
func (s *Snapshot) Validate() error {
	if s.SchemaVersion == "" {
		return fmt.Errorf("schemaVersion is required")
	}

	v, err := semver.NewVersion(s.SchemaVersion)
	if err != nil {
		return fmt.Errorf("invalid schemaVersion %q: %w", s.SchemaVersion, err)
	}

	c, err := semver.NewConstraint(schemaConstraint)
	if err != nil {
		return fmt.Errorf("invalid schema constraint: %w", err)
	}

	if !c.Check(v) {
		return fmt.Errorf("unsupported schemaVersion %s (want %s)", s.SchemaVersion, schemaConstraint)
	}

	if s.Base == "" {
		return fmt.Errorf("base currency is required")
	}

	for code, r := range s.Rates {
		if r <= 0 {
			return fmt.Errorf("rate for %s must be positive, got %g", code, r)
		}
	}

	return nil
}

// Rate returns the rate of code against the snapshot base. The base itself
// always has rate 1. Codes are matched case-insensitively.
func (s *Snapshot) Rate(code string) (Rate, error) {
	code = normalizeCode(code)

	r := Rate{From: s.Base, To: code, Source: s.Source, Timestamp: s.FetchedAt}

	if code == s.Base {
		r.Value = 1
		return r, nil
	}

	v, ok := s.Rates[code]
	if !ok || v <= 0 {
		return Rate{}, unavailable("currency rate %s => %s not available", code, s.Base)
	}

	r.Value = v

	return r, nil
}

// Codes returns the sorted currency codes in the snapshot, including the base.
func (s *Snapshot) Codes() []string {
	codes := slices.Collect(maps.Keys(s.Rates))
	if s.Base != "" && !slices.Contains(codes, s.Base) {
		codes = append(codes, s.Base)
	}

	slices.Sort(codes)

	return codes
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Rates = maps.Clone(s.Rates)

	return &c
}

// Canonical renders the snapshot as YAML with sorted keys, suitable for
// diffing.
func (s *Snapshot) Canonical() (string, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("rendering rate snapshot: %w", err)
	}

	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("rendering rate snapshot: %w", err)
	}

	return buf.String(), nil
}

func (s *Snapshot) normalize() {
	s.Base = normalizeCode(s.Base)
	if s.Base == "" {
		s.Base = ReferenceCurrency
	}

	if len(s.Rates) == 0 {
		return
	}

	out := make(map[string]float64, len(s.Rates))
	for code, r := range s.Rates {
		out[normalizeCode(code)] = r
	}

	s.Rates = out
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
