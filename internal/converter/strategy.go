package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/convertkit/unitconv/internal/rates"
	"github.com/convertkit/unitconv/internal/units"
)

// Strategy converts a value within one family of categories.
type Strategy interface {
	Convert(ctx context.Context, value float64, from, to string) (float64, error)
}

// currencyStrategy crosses two currencies through the reference currency.
type currencyStrategy struct {
	provider rates.Provider
}

func (s currencyStrategy) Convert(ctx context.Context, value float64, from, to string) (float64, error) {
	if s.provider == nil {
		return 0, newError(RateUnavailable, fmt.Errorf("%w: no rate provider configured", rates.ErrRateUnavailable))
	}

	rateFrom, err := s.provider.Rate(ctx, from)
	if err != nil {
		return 0, rateError(err)
	}

	rateTo, err := s.provider.Rate(ctx, to)
	if err != nil {
		return 0, rateError(err)
	}

	return value * (rateTo.Value / rateFrom.Value), nil
}

func rateError(err error) *Error {
	if !errors.Is(err, rates.ErrRateUnavailable) {
		err = fmt.Errorf("%w: %w", rates.ErrRateUnavailable, err)
	}

	return newError(RateUnavailable, err)
}

// temperatureScale is one of the three supported absolute scales.
type temperatureScale int

const (
	celsius temperatureScale = iota + 1
	fahrenheit
	kelvin
)

func parseScale(s string) (temperatureScale, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "celsius", "degc", "°c", "c":
		return celsius, true
	case "fahrenheit", "degf", "°f", "f":
		return fahrenheit, true
	case "kelvin", "k":
		return kelvin, true
	default:
		return 0, false
	}
}

// temperatureStrategy applies closed-form formulas between scales.
type temperatureStrategy struct{}

func (temperatureStrategy) Convert(_ context.Context, v float64, from, to string) (float64, error) {
	f, okFrom := parseScale(from)
	t, okTo := parseScale(to)

	if !okFrom || !okTo {
		return 0, &Error{
			Kind:    UnspecifiedTemperaturePair,
			Message: fmt.Sprintf("temperature conversion from '%s' to '%s' is not specified", from, to),
		}
	}

	switch {
	case f == t:
		return v, nil
	case f == celsius && t == fahrenheit:
		return v*9/5 + 32, nil
	case f == fahrenheit && t == celsius:
		return (v - 32) * 5 / 9, nil
	case f == celsius && t == kelvin:
		return v + 273.15, nil
	case f == kelvin && t == celsius:
		return v - 273.15, nil
	case f == fahrenheit && t == kelvin:
		return (v-32)*5/9 + 273.15, nil
	case f == kelvin && t == fahrenheit:
		return (v-273.15)*9/5 + 32, nil
	}

	// Unreachable: every ordered pair of the three scales is listed above.
	return 0, &Error{
		Kind:    UnspecifiedTemperaturePair,
		Message: fmt.Sprintf("temperature conversion from '%s' to '%s' is not specified", from, to),
	}
}

// genericStrategy delegates to the dimensional unit registry.
type genericStrategy struct {
	registry *units.Registry
}

func (s genericStrategy) Convert(_ context.Context, value float64, from, to string) (float64, error) {
	return s.registry.Convert(value, from, to)
}
