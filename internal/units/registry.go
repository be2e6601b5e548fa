// Package units implements a small dimensional-analysis registry for named
// physical units.
//
// A unit expression such as "kilometer/hour", "square foot" or "kWh" is
// reduced to a scale factor relative to the coherent base units (meter,
// kilogram, second, bit) and a Dimension vector. Two expressions convert into
// each other only when their dimensions are equal.
//
// Temperature scales are deliberately absent: offset units do not compose
// multiplicatively and are handled by the converter package.
package units

import (
	"math"
	"sort"
	"strings"
)

var (
	dimLength   = Dimension{Length: 1}
	dimMass     = Dimension{Mass: 1}
	dimTime     = Dimension{Time: 1}
	dimInfo     = Dimension{Information: 1}
	dimArea     = dimLength.Pow(2)
	dimVolume   = dimLength.Pow(3)
	dimSpeed    = Dimension{Length: 1, Time: -1}
	dimForce    = Dimension{Length: 1, Mass: 1, Time: -2}
	dimEnergy   = Dimension{Length: 2, Mass: 1, Time: -2}
	dimPower    = Dimension{Length: 2, Mass: 1, Time: -3}
	dimPressure = Dimension{Length: -1, Mass: 1, Time: -2}
)

const (
	usGallon = 3.785411784e-3
	julYear  = 365.25 * 86400
)

// Definition describes one named unit.
type Definition struct {
	// Name is the canonical long name, e.g. "meter".
	Name string

	// Factor converts one of this unit into coherent base units.
	Factor float64

	// Dim is the dimension of the unit.
	Dim Dimension

	// Prefixable allows SI prefixes such as "kilo" or "k".
	Prefixable bool

	// Aliases are alternative long names (case-insensitive).
	Aliases []string

	// Symbols are case-sensitive short forms.
	Symbols []string
}

var builtin = []Definition{
	// Length.
	{Name: "meter", Factor: 1, Dim: dimLength, Prefixable: true, Aliases: []string{"metre"}, Symbols: []string{"m"}},
	{Name: "mile", Factor: 1609.344, Dim: dimLength, Symbols: []string{"mi"}},
	{Name: "yard", Factor: 0.9144, Dim: dimLength, Symbols: []string{"yd"}},
	{Name: "foot", Factor: 0.3048, Dim: dimLength, Aliases: []string{"feet"}, Symbols: []string{"ft"}},
	{Name: "inch", Factor: 0.0254, Dim: dimLength, Symbols: []string{"in"}},
	{Name: "nautical_mile", Factor: 1852, Dim: dimLength, Symbols: []string{"nmi"}},

	// Mass.
	{Name: "gram", Factor: 1e-3, Dim: dimMass, Prefixable: true, Aliases: []string{"gramme"}, Symbols: []string{"g"}},
	{Name: "pound", Factor: 0.45359237, Dim: dimMass, Symbols: []string{"lb", "lbs"}},
	{Name: "ounce", Factor: 0.028349523125, Dim: dimMass, Symbols: []string{"oz"}},
	{Name: "stone", Factor: 6.35029318, Dim: dimMass, Symbols: []string{"st"}},
	{Name: "ton", Factor: 907.18474, Dim: dimMass, Aliases: []string{"short_ton"}},
	{Name: "tonne", Factor: 1000, Dim: dimMass, Aliases: []string{"metric_ton"}, Symbols: []string{"t"}},

	// Time.
	{Name: "second", Factor: 1, Dim: dimTime, Prefixable: true, Aliases: []string{"sec"}, Symbols: []string{"s"}},
	{Name: "minute", Factor: 60, Dim: dimTime, Symbols: []string{"min"}},
	{Name: "hour", Factor: 3600, Dim: dimTime, Symbols: []string{"h", "hr"}},
	{Name: "day", Factor: 86400, Dim: dimTime, Symbols: []string{"d"}},
	{Name: "week", Factor: 7 * 86400, Dim: dimTime, Symbols: []string{"wk"}},
	{Name: "fortnight", Factor: 14 * 86400, Dim: dimTime},
	{Name: "month", Factor: julYear / 12, Dim: dimTime},
	{Name: "year", Factor: julYear, Dim: dimTime, Symbols: []string{"yr"}},

	// Area.
	{Name: "acre", Factor: 4046.8564224, Dim: dimArea, Symbols: []string{"ac"}},
	{Name: "hectare", Factor: 1e4, Dim: dimArea, Symbols: []string{"ha"}},

	// Volume.
	{Name: "liter", Factor: 1e-3, Dim: dimVolume, Prefixable: true, Aliases: []string{"litre"}, Symbols: []string{"L", "l"}},
	{Name: "gallon", Factor: usGallon, Dim: dimVolume, Symbols: []string{"gal"}},
	{Name: "quart", Factor: usGallon / 4, Dim: dimVolume, Symbols: []string{"qt"}},
	{Name: "pint", Factor: usGallon / 8, Dim: dimVolume, Symbols: []string{"pt"}},
	{Name: "cup", Factor: usGallon / 16, Dim: dimVolume},
	{Name: "fluid_ounce", Factor: usGallon / 128, Dim: dimVolume, Symbols: []string{"floz"}},

	// Speed.
	{Name: "knot", Factor: 1852.0 / 3600.0, Dim: dimSpeed, Symbols: []string{"kn", "kt"}},
	{Name: "mile_per_hour", Factor: 1609.344 / 3600.0, Dim: dimSpeed, Symbols: []string{"mph"}},
	{Name: "kilometer_per_hour", Factor: 1000.0 / 3600.0, Dim: dimSpeed, Symbols: []string{"kph"}},

	// Force, energy, power.
	{Name: "newton", Factor: 1, Dim: dimForce, Prefixable: true, Symbols: []string{"N"}},
	{Name: "joule", Factor: 1, Dim: dimEnergy, Prefixable: true, Symbols: []string{"J"}},
	{Name: "calorie", Factor: 4.184, Dim: dimEnergy, Prefixable: true, Symbols: []string{"cal"}},
	{Name: "british_thermal_unit", Factor: 1055.05585262, Dim: dimEnergy, Aliases: []string{"btu"}, Symbols: []string{"BTU"}},
	{Name: "watt_hour", Factor: 3600, Dim: dimEnergy, Prefixable: true, Symbols: []string{"Wh"}},
	{Name: "watt", Factor: 1, Dim: dimPower, Prefixable: true, Symbols: []string{"W"}},
	{Name: "horsepower", Factor: 745.69987158227022, Dim: dimPower, Symbols: []string{"hp"}},

	// Pressure.
	{Name: "pascal", Factor: 1, Dim: dimPressure, Prefixable: true, Symbols: []string{"Pa"}},
	{Name: "bar", Factor: 1e5, Dim: dimPressure, Prefixable: true},
	{Name: "psi", Factor: 6894.757293168361, Dim: dimPressure},
	{Name: "atmosphere", Factor: 101325, Dim: dimPressure, Symbols: []string{"atm"}},
	{Name: "torr", Factor: 101325.0 / 760.0, Dim: dimPressure, Symbols: []string{"Torr"}},

	// Information. Prefixes are decimal: one kilobyte is 1000 bytes.
	{Name: "bit", Factor: 1, Dim: dimInfo, Prefixable: true, Symbols: []string{"b"}},
	{Name: "byte", Factor: 8, Dim: dimInfo, Prefixable: true, Symbols: []string{"B"}},
}

type prefix struct {
	name   string
	symbol string
	mult   float64
}

var prefixes = []prefix{
	{"tera", "T", 1e12},
	{"giga", "G", 1e9},
	{"mega", "M", 1e6},
	{"kilo", "k", 1e3},
	{"hecto", "h", 1e2},
	{"deci", "d", 1e-1},
	{"centi", "c", 1e-2},
	{"milli", "m", 1e-3},
	{"micro", "u", 1e-6},
	{"nano", "n", 1e-9},
}

// Registry resolves unit names and expressions. It is safe for concurrent
// reads once constructed.
type Registry struct {
	names   map[string]*Definition
	symbols map[string]*Definition
}

var defaultRegistry = New()

// Default returns the shared registry holding the built-in definitions.
func Default() *Registry {
	return defaultRegistry
}

// New returns a registry populated with the built-in definitions.
func New() *Registry {
	r := &Registry{
		names:   make(map[string]*Definition),
		symbols: make(map[string]*Definition),
	}

	for i := range builtin {
		r.Define(builtin[i])
	}

	return r
}

// Define adds or replaces a unit definition. It must not be called
// concurrently with lookups.
func (r *Registry) Define(def Definition) {
	d := def

	r.names[strings.ToLower(d.Name)] = &d
	for _, a := range d.Aliases {
		r.names[strings.ToLower(a)] = &d
	}

	for _, s := range d.Symbols {
		r.symbols[s] = &d
	}
}

// Names returns the sorted canonical names of all defined units.
func (r *Registry) Names() []string {
	seen := make(map[string]bool, len(r.names))
	out := make([]string, 0, len(r.names))

	for _, d := range r.names {
		if seen[d.Name] {
			continue
		}

		seen[d.Name] = true
		out = append(out, d.Name)
	}

	sort.Strings(out)

	return out
}

// Resolves reports whether name, a single unit token, resolves to a unit:
// as a symbol, a long name or alias, a plural, or a prefixed form of one.
func (r *Registry) Resolves(name string) bool {
	_, _, ok := r.lookup(name)
	return ok
}

// Known reports whether expr parses into a quantity.
func (r *Registry) Known(expr string) bool {
	_, err := r.Parse(expr)
	return err == nil
}

// Convert converts value from one unit expression to another.
func (r *Registry) Convert(value float64, from, to string) (float64, error) {
	fq, err := r.Parse(from)
	if err != nil {
		return 0, err
	}

	tq, err := r.Parse(to)
	if err != nil {
		return 0, err
	}

	if fq.Dim != tq.Dim {
		return 0, &DimensionalityError{From: from, To: to, FromDim: fq.Dim, ToDim: tq.Dim}
	}

	return value * (fq.Factor / tq.Factor), nil
}

// lookup resolves a single unit token to its factor and dimension.
func (r *Registry) lookup(name string) (float64, Dimension, bool) {
	if d, ok := r.symbols[name]; ok {
		return d.Factor, d.Dim, true
	}

	if f, dim, ok := r.lookupName(strings.ToLower(name)); ok {
		return f, dim, true
	}

	for _, p := range prefixes {
		rest, found := strings.CutPrefix(name, p.symbol)
		if !found || rest == "" {
			continue
		}

		if d, ok := r.symbols[rest]; ok && d.Prefixable {
			return d.Factor * p.mult, d.Dim, true
		}
	}

	return 0, Dimension{}, false
}

// lookupName resolves a lower-case long name, allowing one SI prefix and a
// plural suffix.
func (r *Registry) lookupName(name string) (float64, Dimension, bool) {
	if f, dim, ok := r.prefixedName(name); ok {
		return f, dim, true
	}

	if len(name) <= 3 {
		return 0, Dimension{}, false
	}

	for _, suffix := range []string{"s", "es"} {
		if stem, ok := strings.CutSuffix(name, suffix); ok {
			if f, dim, ok := r.prefixedName(stem); ok {
				return f, dim, true
			}
		}
	}

	return 0, Dimension{}, false
}

func (r *Registry) prefixedName(name string) (float64, Dimension, bool) {
	if d, ok := r.names[name]; ok {
		return d.Factor, d.Dim, true
	}

	for _, p := range prefixes {
		rest, found := strings.CutPrefix(name, p.name)
		if !found || rest == "" {
			continue
		}

		if d, ok := r.names[rest]; ok && d.Prefixable {
			return d.Factor * p.mult, d.Dim, true
		}
	}

	return 0, Dimension{}, false
}

// pow is math.Pow with exact results for the small integer exponents that
// unit expressions use.
func pow(f float64, exp int) float64 {
	switch exp {
	case 1:
		return f
	case -1:
		return 1 / f
	default:
		return math.Pow(f, float64(exp))
	}
}
