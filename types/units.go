package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// MaxDecimals is the largest decimals value whose scale factor fits in 256 bits.
const MaxDecimals = 77

// ErrDecimals is returned when a decimals value has no 256-bit scale factor.
var ErrDecimals = errors.New("types: decimals out of range")

// Zero returns a new zero amount.
func Zero() *uint256.Int { return new(uint256.Int) }

// Units returns n as a uint256 amount.
func Units(n uint64) *uint256.Int { return uint256.NewInt(n) }

// Pow10 returns 10^decimals.
func Pow10(decimals uint8) (*uint256.Int, error) {
	if decimals > MaxDecimals {
		return nil, fmt.Errorf("%w: %d", ErrDecimals, decimals)
	}
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals))), nil
}

// Whole returns n whole tokens expressed in base units for the given decimals.
// It panics on overflow and is meant for constants and tests.
func Whole(n uint64, decimals uint8) *uint256.Int {
	scale, err := Pow10(decimals)
	if err != nil {
		panic(err)
	}
	out, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(n), scale)
	if overflow {
		panic(fmt.Sprintf("types: %d * 10^%d overflows", n, decimals))
	}
	return out
}

// MulDiv computes floor(x*y/d) using a 512-bit intermediate product.
// overflow is true when the quotient does not fit in 256 bits.
// d must be non-zero.
func MulDiv(x, y, d *uint256.Int) (result *uint256.Int, overflow bool) {
	return new(uint256.Int).MulDivOverflow(x, y, d)
}

// AddChecked returns x+y and whether the sum wrapped.
func AddChecked(x, y *uint256.Int) (*uint256.Int, bool) {
	return new(uint256.Int).AddOverflow(x, y)
}

// SubFloor returns max(0, x-y).
func SubFloor(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(x, y)
}

// Clone returns a copy of x, treating nil as zero.
func Clone(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(x)
}

// FormatUnits renders amount as a decimal string with the given number of
// fractional digits, trimming trailing zeros ("1.5", "42").
func FormatUnits(amount *uint256.Int, decimals uint8) string {
	s := Clone(amount).Dec()
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], strings.TrimRight(s[len(s)-d:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// ParseUnits parses a human decimal string ("1.5") into base units for the
// given decimals. More fractional digits than decimals is an error.
func ParseUnits(s string, decimals uint8) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("types: empty amount")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && frac == "" {
		return nil, fmt.Errorf("types: invalid amount %q", s)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("types: amount %q has more than %d decimals", s, decimals)
	}
	if whole == "" {
		whole = "0"
	}
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("types: invalid amount %q", s)
		}
	}
	out, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fmt.Errorf("types: parse amount %q: %w", s, err)
	}
	return out, nil
}

// ParseAmount parses a base-unit decimal string as stored by the backends.
// The empty string reads as zero.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	out, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("types: parse amount %q: %w", s, err)
	}
	return out, nil
}

// FormatAmount renders a base-unit amount for storage. nil renders as "0".
func FormatAmount(x *uint256.Int) string {
	return Clone(x).Dec()
}
