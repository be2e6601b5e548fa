package converter

import (
	"slices"
	"strings"
)

// Category names a conversion domain.
type Category string

// The fixed conversion categories.
const (
	Length      Category = "Length"
	Weight      Category = "Weight"
	Temperature Category = "Temperature"
	Time        Category = "Time"
	Currency    Category = "Currency"
	Area        Category = "Area"
	Volume      Category = "Volume"
	Speed       Category = "Speed"
	Energy      Category = "Energy"
	Pressure    Category = "Pressure"
	Data        Category = "Data"
)

// Entry is one row of the category table.
type Entry struct {
	Category Category `json:"name"`
	Units    []string `json:"units"`
}

var table = []Entry{
	{Length, []string{"meter", "kilometer", "mile", "yard", "foot", "inch", "centimeter", "millimeter"}},
	{Weight, []string{"kilogram", "gram", "pound", "ounce", "milligram", "ton"}},
	{Temperature, []string{"celsius", "fahrenheit", "kelvin"}},
	{Time, []string{"second", "minute", "hour", "day", "week", "month", "year"}},
	{Currency, []string{"USD", "EUR", "GBP", "INR", "JPY", "AUD", "CAD"}},
	{Area, []string{"square meter", "square kilometer", "square mile", "square yard", "square foot", "acre", "hectare"}},
	{Volume, []string{"liter", "milliliter", "cubic meter", "cubic centimeter", "gallon", "quart", "pint", "cup"}},
	{Speed, []string{"meter/second", "kilometer/hour", "mile/hour", "foot/second", "knot"}},
	{Energy, []string{"joule", "kilojoule", "calorie", "kilocalorie", "watt hour", "kilowatt hour"}},
	{Pressure, []string{"pascal", "bar", "psi", "atmosphere"}},
	{Data, []string{"bit", "byte", "kilobyte", "megabyte", "gigabyte", "terabyte"}},
}

// Table returns a copy of the category table in display order.
func Table() []Entry {
	out := make([]Entry, len(table))
	for i, e := range table {
		out[i] = Entry{Category: e.Category, Units: slices.Clone(e.Units)}
	}

	return out
}

// Categories returns the category names in display order.
func Categories() []Category {
	out := make([]Category, len(table))
	for i, e := range table {
		out[i] = e.Category
	}

	return out
}

// Units returns a copy of the unit labels of c. The boolean is false for a
// category outside the table.
func Units(c Category) ([]string, bool) {
	for _, e := range table {
		if e.Category == c {
			return slices.Clone(e.Units), true
		}
	}

	return nil, false
}

// ParseCategory resolves s case-insensitively against the table. Unknown
// names are returned unchanged with ok == false; they still convert through
// the generic unit registry.
func ParseCategory(s string) (c Category, ok bool) {
	s = strings.TrimSpace(s)
	for _, e := range table {
		if strings.EqualFold(string(e.Category), s) {
			return e.Category, true
		}
	}

	return Category(s), false
}

// InferCategory returns the first table category listing both units.
func InferCategory(from, to string) (Category, bool) {
	for _, e := range table {
		if containsFold(e.Units, from) && containsFold(e.Units, to) {
			return e.Category, true
		}
	}

	return "", false
}

func containsFold(list []string, s string) bool {
	s = strings.TrimSpace(s)

	return slices.ContainsFunc(list, func(u string) bool {
		return strings.EqualFold(u, s)
	})
}
