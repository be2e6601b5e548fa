package config

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/convertkit/unitconv/internal/units"
)

// UnitsConfig holds custom unit definitions loaded from the config file
// (.unitconv.yaml).
type UnitsConfig struct {
	// Units are definitions added to the unit registry.
	Units []UnitDefinition `json:"units,omitempty"`
}

// UnitDefinition defines one unit in terms of units already known, e.g.
// name "furlong" with definition "201.168 meter".
type UnitDefinition struct {
	// Name is the canonical long name of the unit.
	Name string `json:"name"`

	// Definition is "<factor> <expression>" or just "<expression>".
	Definition string `json:"definition"`

	// Aliases are alternative long names.
	Aliases []string `json:"aliases,omitempty"`

	// Symbols are case-sensitive short forms.
	Symbols []string `json:"symbols,omitempty"`

	// Prefixable allows SI prefixes such as "kilo".
	Prefixable bool `json:"prefixable,omitempty"`
}

// ParseUnitsConfig parses the units section from raw config file bytes.
func ParseUnitsConfig(data []byte) (*UnitsConfig, error) {
	var raw struct {
		Units []UnitDefinition `json:"units,omitempty"`
	}

	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing units config: %w", err)
	}

	cfg := &UnitsConfig{Units: raw.Units}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadUnitsConfig reads the units section of the config file at path. An
// empty path yields an empty config.
func LoadUnitsConfig(path string) (*UnitsConfig, error) {
	if path == "" {
		return &UnitsConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	return ParseUnitsConfig(data)
}

// unitNamePattern validates unit names and aliases.
// Must start with a letter and contain only letters, digits and underscores.
var unitNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// unitSymbolPattern validates symbols. Symbols are case-sensitive and may
// start with any letter, e.g. "µs" or "Ω".
var unitSymbolPattern = regexp.MustCompile(`^\pL[\pL\pN_]*$`)

// Validate checks the units config for correctness.
func (c *UnitsConfig) Validate() error {
	seen := make(map[string]bool)

	for i, u := range c.Units {
		if u.Name == "" {
			return fmt.Errorf("units[%d]: name is required", i)
		}

		if !unitNamePattern.MatchString(u.Name) {
			return fmt.Errorf("units[%d]: name %q is invalid (must match %s)", i, u.Name, unitNamePattern.String())
		}

		key := strings.ToLower(u.Name)
		if seen[key] {
			return fmt.Errorf("units[%d]: duplicate unit %q", i, u.Name)
		}

		seen[key] = true

		for _, a := range u.Aliases {
			if !unitNamePattern.MatchString(a) {
				return fmt.Errorf("units[%s]: alias %q is invalid", u.Name, a)
			}
		}

		for _, sym := range u.Symbols {
			if !unitSymbolPattern.MatchString(sym) {
				return fmt.Errorf("units[%s]: symbol %q is invalid", u.Name, sym)
			}
		}

		if strings.TrimSpace(u.Definition) == "" {
			return fmt.Errorf("units[%s]: definition is required", u.Name)
		}

		if _, _, err := splitDefinition(u.Definition); err != nil {
			return fmt.Errorf("units[%s]: %w", u.Name, err)
		}
	}

	return nil
}

// Apply adds the definitions to r in order, so later units may be defined
// in terms of earlier ones. A name, alias or symbol that already resolves in
// r is rejected: custom units extend the registry and never redefine it.
func (c *UnitsConfig) Apply(r *units.Registry) error {
	for _, u := range c.Units {
		for _, name := range append(append([]string{u.Name}, u.Aliases...), u.Symbols...) {
			if r.Resolves(name) {
				return fmt.Errorf("units[%s]: %q is already defined", u.Name, name)
			}
		}

		factor, expr, err := splitDefinition(u.Definition)
		if err != nil {
			return fmt.Errorf("units[%s]: %w", u.Name, err)
		}

		q, err := r.Parse(expr)
		if err != nil {
			return fmt.Errorf("units[%s]: %w", u.Name, err)
		}

		r.Define(units.Definition{
			Name:       u.Name,
			Factor:     factor * q.Factor,
			Dim:        q.Dim,
			Prefixable: u.Prefixable,
			Aliases:    u.Aliases,
			Symbols:    u.Symbols,
		})
	}

	return nil
}

// IsEmpty returns true if no units are defined.
func (c *UnitsConfig) IsEmpty() bool {
	return len(c.Units) == 0
}

// splitDefinition separates an optional leading factor from the unit
// expression.
func splitDefinition(def string) (float64, string, error) {
	fields := strings.Fields(def)
	if len(fields) == 0 {
		return 0, "", fmt.Errorf("empty definition")
	}

	factor, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 1, strings.Join(fields, " "), nil
	}

	if factor <= 0 || math.IsInf(factor, 0) || math.IsNaN(factor) {
		return 0, "", fmt.Errorf("factor %q must be positive and finite", fields[0])
	}

	if len(fields) == 1 {
		return 0, "", fmt.Errorf("definition %q has no unit expression", def)
	}

	return factor, strings.Join(fields[1:], " "), nil
}
