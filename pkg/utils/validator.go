package utils

import (
	"fmt"
	"regexp"
)

var (
	gstinRegex  = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	periodRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])[0-9]{4}$`)
)

// ValidateGSTIN validates a 15-character GST identification number
func ValidateGSTIN(gstin string) error {
	if len(gstin) != 15 {
		return fmt.Errorf("GSTIN must be 15 characters: %s", gstin)
	}
	if !gstinRegex.MatchString(gstin) {
		return fmt.Errorf("invalid GSTIN format: %s", gstin)
	}
	return nil
}

// ValidatePeriod validates a return period in MMYYYY format
func ValidatePeriod(period string) error {
	if !periodRegex.MatchString(period) {
		return fmt.Errorf("return period must be MMYYYY: %s", period)
	}
	return nil
}

// SanitizeString removes control characters from free-text input
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
