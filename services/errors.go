package services

import (
	"errors"
	"fmt"
)

// Input errors are detected before any market data is fetched.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidFilter      = fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	ErrUnknownField       = fmt.Errorf("%w: unknown field", ErrInvalidFilter)
	ErrInvalidQuery       = fmt.Errorf("%w: invalid query", ErrInvalidInput)
	ErrMissingTradingDays = fmt.Errorf("%w: tradingdays is required", ErrInvalidQuery)
	ErrUnknownPreset      = fmt.Errorf("%w: unknown preset", ErrInvalidInput)
)

// ErrInvalidSpot is returned when a provider reports a non-positive spot price
var ErrInvalidSpot = errors.New("invalid spot price")

// IsInputError reports whether err was caused by caller input rather than a collaborator
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// FilterSyntaxError reports where a filter or query string failed to parse
type FilterSyntaxError struct {
	Pos int
	Msg string
	Err error
}

func (e *FilterSyntaxError) Error() string {
	return fmt.Sprintf("invalid filter at position %d: %s", e.Pos, e.Msg)
}

func (e *FilterSyntaxError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidFilter
	}
	return e.Err
}
