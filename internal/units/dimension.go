package units

import (
	"fmt"
	"strings"
)

// Base quantities tracked by a Dimension.
const (
	Length = iota
	Mass
	Time
	Information

	numBase
)

var baseNames = [numBase]string{"length", "mass", "time", "information"}

// Dimension is the exponent vector of a quantity over the base quantities.
// The zero value is dimensionless.
type Dimension [numBase]int8

// Dimensionless reports whether every exponent is zero.
func (d Dimension) Dimensionless() bool {
	return d == Dimension{}
}

// Mul returns the dimension of the product of two quantities.
func (d Dimension) Mul(o Dimension) Dimension {
	var out Dimension
	for i := range d {
		out[i] = d[i] + o[i]
	}

	return out
}

// Pow returns the dimension raised to n.
func (d Dimension) Pow(n int8) Dimension {
	var out Dimension
	for i := range d {
		out[i] = d[i] * n
	}

	return out
}

// String renders the dimension in bracket notation, e.g. "[length] / [time]".
func (d Dimension) String() string {
	if d.Dimensionless() {
		return "dimensionless"
	}

	var num, den []string

	for i, exp := range d {
		switch {
		case exp > 0:
			num = append(num, term(baseNames[i], exp))
		case exp < 0:
			den = append(den, term(baseNames[i], -exp))
		}
	}

	out := strings.Join(num, " * ")
	if out == "" {
		out = "1"
	}

	if len(den) > 0 {
		out += " / " + strings.Join(den, " / ")
	}

	return out
}

func term(name string, exp int8) string {
	if exp == 1 {
		return "[" + name + "]"
	}

	return fmt.Sprintf("[%s]^%d", name, exp)
}
