package converter

import (
	"fmt"
	"strings"
)

// Kind classifies a conversion failure.
type Kind int

const (
	// RateUnavailable: a currency rate could not be resolved.
	RateUnavailable Kind = iota + 1
	// UnknownUnit: a unit string is not recognized.
	UnknownUnit
	// IncompatibleUnits: the units measure different quantities.
	IncompatibleUnits
	// UnspecifiedTemperaturePair: no temperature formula covers the pair.
	UnspecifiedTemperaturePair
	// ConversionFailed: any other failure, including a panic.
	ConversionFailed
)

var kindNames = map[Kind]string{
	RateUnavailable:            "RateUnavailable",
	UnknownUnit:                "UnknownUnit",
	IncompatibleUnits:          "IncompatibleUnits",
	UnspecifiedTemperaturePair: "UnspecifiedTemperaturePair",
	ConversionFailed:           "ConversionFailed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses a kind name (case-insensitive).
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return k, nil
		}
	}

	return 0, fmt.Errorf("unknown error kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("invalid error kind %d", int(k))
	}

	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// Error is a classified conversion failure. It matches the per-kind sentinels
// with errors.Is and unwraps to the collaborator error that caused it.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// Per-kind sentinels for errors.Is.
var (
	ErrRateUnavailable            = &Error{Kind: RateUnavailable}
	ErrUnknownUnit                = &Error{Kind: UnknownUnit}
	ErrIncompatibleUnits          = &Error{Kind: IncompatibleUnits}
	ErrUnspecifiedTemperaturePair = &Error{Kind: UnspecifiedTemperaturePair}
	ErrConversionFailed           = &Error{Kind: ConversionFailed}
)

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Message: cause.Error(), cause: cause}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}

	return e.Message
}

// Unwrap returns the underlying collaborator error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}
