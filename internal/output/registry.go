package output

import (
	"fmt"
	"slices"
	"strings"
)

// Format is a named serialization accepted by --output and --format flags.
type Format struct {
	Name    string
	Aliases []string
	Encode  Encoder
}

// Registry resolves format names, case-insensitively, to encoders.
type Registry struct {
	formats []Format
	byName  map[string]Encoder
}

// NewRegistry creates a registry of formats. A later format replaces an
// earlier one with the same name or alias.
func NewRegistry(formats ...Format) *Registry {
	r := &Registry{byName: make(map[string]Encoder)}

	for _, f := range formats {
		r.formats = append(r.formats, f)

		for _, name := range append([]string{f.Name}, f.Aliases...) {
			r.byName[strings.ToLower(name)] = f.Encode
		}
	}

	return r
}

// DefaultRegistry holds the built-in formats: yaml (alias yml), json and
// jsonl.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Format{Name: "yaml", Aliases: []string{"yml"}, Encode: YAML},
		Format{Name: "json", Encode: JSON},
		Format{Name: "jsonl", Encode: JSONLines},
	)
}

// Encoder returns the encoder registered under name.
func (r *Registry) Encoder(name string) (Encoder, error) {
	enc, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, r.Available())
	}

	return enc, nil
}

// Encode serializes v in the named format.
func (r *Registry) Encode(name string, v any) ([]byte, error) {
	enc, err := r.Encoder(name)
	if err != nil {
		return nil, err
	}

	return enc(v)
}

// Names returns the primary format names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.formats))
	for _, f := range r.formats {
		if !slices.Contains(names, f.Name) {
			names = append(names, f.Name)
		}
	}

	slices.Sort(names)

	return names
}

// Available returns the primary format names as a comma-separated list.
func (r *Registry) Available() string {
	names := r.Names()
	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, ", ")
}
