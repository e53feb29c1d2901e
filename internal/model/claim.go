package model

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxClaimLength is the longest claim (in characters) accepted for verification
const MaxClaimLength = 500

var (
	// ErrEmptyClaim is returned for claims that are blank after trimming
	ErrEmptyClaim = errors.New("claim cannot be empty")

	// ErrClaimTooLong is returned for claims longer than MaxClaimLength characters
	ErrClaimTooLong = errors.New("claim exceeds 500 characters")
)

// ValidateClaim trims the claim and checks it is non-blank and within MaxClaimLength.
// The trimmed claim is returned on success.
func ValidateClaim(claim string) (string, error) {
	trimmed := strings.TrimSpace(claim)
	if trimmed == "" {
		return "", ErrEmptyClaim
	}
	if utf8.RuneCountInString(trimmed) > MaxClaimLength {
		return "", ErrClaimTooLong
	}
	return trimmed, nil
}
