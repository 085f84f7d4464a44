package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateGSTIN(t *testing.T) {
	tests := []struct {
		name    string
		gstin   string
		wantErr bool
	}{
		{"valid", "27AABCU9603R1ZJ", false},
		{"valid other state", "29AAACR5055K1Z5", false},
		{"too short", "27AABCU9603", true},
		{"lowercase", "27aabcu9603r1zj", true},
		{"missing Z marker", "27AABCU9603R1XJ", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGSTIN(tt.gstin)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePeriod(t *testing.T) {
	tests := []struct {
		name    string
		period  string
		wantErr bool
	}{
		{"valid april", "042024", false},
		{"valid december", "122024", false},
		{"month zero", "002024", true},
		{"month thirteen", "132024", true},
		{"too short", "42024", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePeriod(tt.period)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "clean note", SanitizeString("clean\x00 note\x1f"))
	assert.Equal(t, "abc", SanitizeString("a\nb\rc"))
	assert.Equal(t, "untouched", SanitizeString("untouched"))
}
