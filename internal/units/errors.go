package units

import "fmt"

// UnknownUnitError is returned when a unit name is not defined in the registry.
type UnknownUnitError struct {
	Name string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("'%s' is not defined in the unit registry", e.Name)
}

// DimensionalityError is returned when two units measure different quantities.
type DimensionalityError struct {
	From    string
	To      string
	FromDim Dimension
	ToDim   Dimension
}

func (e *DimensionalityError) Error() string {
	return fmt.Sprintf("Cannot convert from '%s' (%s) to '%s' (%s)", e.From, e.FromDim, e.To, e.ToDim)
}

// ExponentError is returned when an expression's combined exponent for a
// base quantity does not fit a Dimension.
type ExponentError struct {
	Expr string
}

func (e *ExponentError) Error() string {
	return fmt.Sprintf("exponent out of range in '%s'", e.Expr)
}
