package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidPincode       = errors.New("invalid pincode")
	ErrInvalidAgePreference = errors.New("invalid age preference")
)

// PincodeLen is the fixed length of an Indian postal code.
const PincodeLen = 6

var (
	pincodeRe     = regexp.MustCompile(`(?i)^\s*/?(pincode)?\s*(\d{6})\s*$`)
	disableTextRe = regexp.MustCompile(`(?i)^\s*(disable|stop|pause)\s*$`)
)

// ParsePincode extracts a pincode from inputs like "560001", "pincode 560001"
// or "/pincode 560001".
func ParsePincode(s string) (string, error) {
	m := pincodeRe.FindStringSubmatch(s)
	if len(m) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPincode, strings.TrimSpace(s))
	}
	return m[2], nil
}

// ValidPincode reports whether s is exactly six ASCII digits.
func ValidPincode(s string) bool {
	if len(s) != PincodeLen {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseAgePreference accepts "18", "18+", "45", "45+", "any" or "both".
func ParseAgePreference(s string) (AgePreference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "18", "18+":
		return Age18Plus, nil
	case "45", "45+":
		return Age45Plus, nil
	case "any", "both", "all":
		return AgeAny, nil
	default:
		return AgeUnknown, fmt.Errorf("%w: %q", ErrInvalidAgePreference, s)
	}
}

// IsDisableText reports whether free-form text asks to stop alerts.
func IsDisableText(s string) bool {
	return disableTextRe.MatchString(s)
}
