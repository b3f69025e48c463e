package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSKU           = errors.New("unknown_sku")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInvalidMarginPercent = errors.New("invalid_margin_percent")
	ErrMissingPercent       = errors.New("missing_percent")
	ErrInvalidPricingMode   = errors.New("invalid_pricing_mode")
	ErrInvalidTaxRate       = errors.New("invalid_tax_rate")
)

// LineError wraps a validation error with the index and SKU of the
// offending line so callers can point at it without the engine knowing
// anything about a UI.
type LineError struct {
	Index int
	SKU   string
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Index, e.SKU, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// NewLineError builds a LineError for the given line position.
func NewLineError(index int, sku string, err error) error {
	return &LineError{Index: index, SKU: sku, Err: err}
}
