package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedAmount indicates a decimal string that cannot be converted to minor units.
var ErrMalformedAmount = errors.New("malformed amount")

// FormatMinor renders minor units as a decimal string, e.g. 28450 -> "284.50".
func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// ParseMinor converts a decimal string like "15.50" to minor units (1550).
// At most two fractional digits are accepted; money never travels as a float.
func ParseMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMalformedAmount
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole := s
	frac := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole, frac = s[:idx], s[idx+1:]
	}
	if whole == "" && frac == "" {
		return 0, ErrMalformedAmount
	}
	if len(frac) > 2 {
		return 0, ErrMalformedAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrMalformedAmount
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrMalformedAmount
	}

	minor := units*100 + cents
	if negative {
		minor = -minor
	}
	return minor, nil
}
