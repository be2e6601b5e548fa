package units

import (
	"math"
	"strconv"
	"strings"
)

// Quantity is a unit expression reduced to base units.
type Quantity struct {
	Expr   string
	Factor float64
	Dim    Dimension
}

// Parse reduces a unit expression to a Quantity.
//
// Grammar: factors separated by whitespace or '*' multiply; everything after
// '/' or "per" divides. A factor may be preceded by "square" or "cubic" and
// may carry an integer exponent ("meter^2", "s**-1").
func (r *Registry) Parse(expr string) (Quantity, error) {
	tokens := tokenize(expr)
	if len(tokens) == 0 {
		return Quantity{}, &UnknownUnitError{Name: expr}
	}

	q := Quantity{Expr: expr, Factor: 1}

	var (
		sign    = 1
		pending int
		acc     [numBase]int
	)

	for _, tok := range tokens {
		switch strings.ToLower(tok) {
		case "/", "per":
			if pending != 0 {
				return Quantity{}, &UnknownUnitError{Name: expr}
			}

			sign = -1

			continue
		case "square":
			pending = 2
			continue
		case "cubic":
			pending = 3
			continue
		}

		name, exp, ok := splitExponent(tok)
		if !ok {
			return Quantity{}, &UnknownUnitError{Name: tok}
		}

		if pending != 0 {
			exp *= pending
			pending = 0
		}

		factor, dim, ok := r.lookup(name)
		if !ok {
			return Quantity{}, &UnknownUnitError{Name: name}
		}

		exp *= sign
		q.Factor *= pow(factor, exp)

		for i, d := range dim {
			acc[i] += int(d) * exp
		}
	}

	if pending != 0 {
		return Quantity{}, &UnknownUnitError{Name: expr}
	}

	for i, n := range acc {
		if n < math.MinInt8 || n > math.MaxInt8 {
			return Quantity{}, &ExponentError{Expr: expr}
		}

		q.Dim[i] = int8(n)
	}

	return q, nil
}

func tokenize(expr string) []string {
	expr = strings.ReplaceAll(expr, "**", "^")
	expr = strings.ReplaceAll(expr, "*", " ")
	expr = strings.ReplaceAll(expr, "/", " / ")

	return strings.Fields(expr)
}

// splitExponent splits "meter^2" into ("meter", 2).
func splitExponent(tok string) (string, int, bool) {
	name, expStr, found := strings.Cut(tok, "^")
	if !found {
		return tok, 1, true
	}

	n, err := strconv.ParseInt(expStr, 10, 8)
	if err != nil || name == "" || n == 0 {
		return "", 0, false
	}

	return name, int(n), true
}
