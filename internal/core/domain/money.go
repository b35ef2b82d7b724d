package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const VND Currency = "VND"

// AmountScale is the number of decimal places stored for every amount.
const AmountScale = 2

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrFractionalAmount = errors.New("amount has more precision than the target encoding allows")
)

// ValidateAmount checks that amount is positive and fits the stored scale.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if !amount.Round(AmountScale).Equal(amount) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, AmountScale)
	}
	return nil
}

// ToMinorUnits renders amount multiplied by 10^scale as a plain integer string.
// VNPay, for example, transmits 50000 VND as "5000000" (scale 2).
func ToMinorUnits(amount decimal.Decimal, scale int32) (string, error) {
	shifted := amount.Shift(scale)
	if !shifted.IsInteger() {
		return "", ErrFractionalAmount
	}
	return shifted.Truncate(0).String(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits. raw must be a string of
// decimal digits; anything else is rejected rather than coerced.
func FromMinorUnits(raw string, scale int32) (decimal.Decimal, error) {
	if raw == "" || strings.TrimLeft(raw, "0123456789") != "" {
		return decimal.Zero, fmt.Errorf("%w: %q is not an integer", ErrInvalidAmount, raw)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return d.Shift(-scale), nil
}

// ParseAmount parses a literal decimal amount such as "100000" or "100000.50".
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return d, nil
}
