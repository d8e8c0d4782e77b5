package domain

import (
	"fmt"
	"strconv"
	"strings"

	"systempay-gateway/pkg/apperror"
)

// Amount is an immutable money value in the merchant currency, held as
// integer minor units (two fixed fractional digits). The gateway wire
// format carries minor units, so 50.24 travels as "5024". Integer
// fixed-point keeps decode(encode(x)) == x exact; binary floating point
// cannot guarantee that.
type Amount struct {
	minor int64
}

// ParseAmount parses a major-unit decimal string such as "50.24".
// Fractional digits beyond the second are truncated, matching the
// gateway's minor-unit conversion. Negative amounts are rejected.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return Amount{}, apperror.ErrInvalidAmount()
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		fracPart = fracPart[:2]
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Amount{}, apperror.ErrInvalidAmount()
	}
	cents, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return Amount{}, apperror.ErrInvalidAmount()
	}

	return Amount{minor: units*100 + cents}, nil
}

// AmountFromMinor builds an Amount from the wire's minor-unit integer.
func AmountFromMinor(minor int64) (Amount, error) {
	if minor < 0 {
		return Amount{}, apperror.ErrInvalidAmount()
	}
	return Amount{minor: minor}, nil
}

// MustAmount parses s and panics on failure. For tests and constants.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// MinorUnits encodes the amount as the gateway's indivisible integer
// representation (e.g. 50.24 -> 5024).
func (a Amount) MinorUnits() int64 {
	return a.minor
}

// String renders the exact major-unit decimal with two fractional digits.
func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", a.minor/100, a.minor%100)
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.minor == 0
}

// MarshalJSON renders the amount as a decimal string, never a float.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

// UnmarshalJSON accepts a decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
