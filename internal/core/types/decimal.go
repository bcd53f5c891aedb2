// Package types provides common type aliases and utilities.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity is a stock quantity in the item's stock UOM.
type Quantity = decimal.Decimal

// DefaultPrecision is the number of fractional digits used when the
// configuration does not specify one.
const DefaultPrecision int32 = 3

// AgePrecision is the rounding applied to average lot age in days.
const AgePrecision int32 = 2

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustDecimal parses a decimal string, panics on error.
// Use only for constants and tests.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Round rounds d half away from zero to precision fractional digits.
func Round(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Round(precision)
}

// IsZeroAt reports whether d rounds to zero at precision.
func IsZeroAt(d decimal.Decimal, precision int32) bool {
	return d.Round(precision).IsZero()
}

// NonNegativeAt reports whether d is >= 0 once rounded to precision.
// A tiny negative residue such as -0.0001 at precision 3 counts as non-negative.
func NonNegativeAt(d decimal.Decimal, precision int32) bool {
	return !d.Round(precision).IsNegative()
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last instant of t's day in its own location.
func EndOfDay(t time.Time) time.Time {
	return DateOnly(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// DaysBetween returns the number of calendar days from 'from' to 'to'.
// Time of day is ignored; the result is negative when to is before from.
func DaysBetween(from, to time.Time) int64 {
	f := DateOnly(from)
	t := DateOnly(to.In(from.Location()))
	// Go through UTC dates so DST shifts never produce fractional days.
	fu := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	tu := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int64(tu.Sub(fu).Hours() / 24)
}
