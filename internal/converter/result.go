package converter

import "strconv"

// Result is the outcome of one conversion: a value, or an error.
type Result struct {
	Value float64
	Err   *Error
}

// OK reports whether the conversion succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Float returns the value, or the error as a plain error value.
func (r Result) Float() (float64, error) {
	if r.Err != nil {
		return 0, r.Err
	}

	return r.Value, nil
}

// String renders the numeric result, or "Error: <message>" on failure.
func (r Result) String() string {
	if r.Err != nil {
		return "Error: " + r.Err.Error()
	}

	return strconv.FormatFloat(r.Value, 'g', -1, 64)
}
