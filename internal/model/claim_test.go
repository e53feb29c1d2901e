package model

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateClaim(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "simple", input: "The moon is made of cheese", want: "The moon is made of cheese"},
		{name: "trims whitespace", input: "  water boils at 100C \n", want: "water boils at 100C"},
		{name: "empty", input: "", wantErr: ErrEmptyClaim},
		{name: "blank", input: " \t\n ", wantErr: ErrEmptyClaim},
		{name: "single char", input: "x", want: "x"},
		{name: "exactly max", input: strings.Repeat("a", MaxClaimLength), want: strings.Repeat("a", MaxClaimLength)},
		{name: "over max", input: strings.Repeat("a", MaxClaimLength+1), wantErr: ErrClaimTooLong},
		{name: "multibyte at max", input: strings.Repeat("é", MaxClaimLength), want: strings.Repeat("é", MaxClaimLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateClaim(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := map[string]Rating{
		"TRUE":             RatingTrue,
		"true":             RatingTrue,
		"MOSTLY_TRUE":      RatingTrue,
		"FALSE":            RatingFalse,
		"mostly_false":     RatingFalse,
		"Misleading":       RatingMisleading,
		"UNABLE_TO_VERIFY": RatingUnableToVerify,
		"MIXED":            RatingUnableToVerify,
		"banana":           RatingUnableToVerify,
		"":                 RatingUnableToVerify,
		" false ":          RatingFalse,
	}

	for input, want := range tests {
		if got := ParseRating(input); got != want {
			t.Errorf("ParseRating(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestNewCitation_TitleDefaultsToURL(t *testing.T) {
	c := NewCitation("  ", "https://a.com", "")
	if c.Title != "https://a.com" {
		t.Errorf("expected title to default to URL, got %q", c.Title)
	}

	c = NewCitation("A", "https://a.com", "2024-01-01")
	if c.Title != "A" || c.Date != "2024-01-01" {
		t.Errorf("unexpected citation: %+v", c)
	}
}

func TestRating_Label(t *testing.T) {
	tests := map[Rating]string{
		RatingTrue:           "True",
		RatingFalse:          "False",
		RatingMisleading:     "Misleading",
		RatingUnableToVerify: "Unable to verify",
	}

	for r, want := range tests {
		if got := r.Label(); got != want {
			t.Errorf("%s.Label() = %q, want %q", r, got, want)
		}
	}
}
