// Package dzphone normalises Algerian phone numbers to their national form
// (0XXXXXXXXX for mobiles, 0XXXXXXXX for landlines).
package dzphone

import (
	"errors"
	"strings"
)

const countryCode = "213"

var ErrInvalid = errors.New("invalid algerian phone number")

// Normalize strips formatting and the country prefix from raw and returns the
// national number. It fails when the result is neither a mobile nor a
// landline number.
func Normalize(raw string) (string, error) {
	digits := onlyDigits(raw)

	switch {
	case strings.HasPrefix(digits, "00"+countryCode):
		digits = nationalize(digits[len("00"+countryCode):])
	case strings.HasPrefix(digits, countryCode) && len(digits) >= 11:
		digits = nationalize(digits[len(countryCode):])
	case len(digits) == 9 && isMobilePrefix(digits[0]):
		digits = "0" + digits
	}

	if !Valid(digits) {
		return "", ErrInvalid
	}
	return digits, nil
}

// Valid reports whether s is already a normalised national number.
func Valid(s string) bool {
	if len(s) < 9 || s[0] != '0' || onlyDigits(s) != s {
		return false
	}
	switch {
	case len(s) == 10:
		return isMobilePrefix(s[1])
	case len(s) == 9:
		return s[1] >= '2' && s[1] <= '4'
	default:
		return false
	}
}

// IsMobile reports whether the normalised number s is a mobile number.
func IsMobile(s string) bool {
	return len(s) == 10 && Valid(s)
}

func nationalize(s string) string {
	if strings.HasPrefix(s, "0") {
		return s
	}
	return "0" + s
}

func isMobilePrefix(b byte) bool {
	return b == '5' || b == '6' || b == '7'
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
