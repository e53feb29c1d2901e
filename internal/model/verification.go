package model

import "strings"

// Rating is the four-way verdict assigned to a claim
type Rating string

const (
	RatingTrue           Rating = "TRUE"             // Fully supported by credible evidence
	RatingFalse          Rating = "FALSE"            // Directly contradicted by credible evidence
	RatingMisleading     Rating = "MISLEADING"       // Partial truth lacking context or deceptively framed
	RatingUnableToVerify Rating = "UNABLE_TO_VERIFY" // Insufficient or inconclusive evidence
)

// Ratings lists the canonical ratings in display order
var Ratings = []Rating{RatingTrue, RatingFalse, RatingMisleading, RatingUnableToVerify}

// ParseRating maps an upstream or stored rating tag to a canonical Rating.
// Matching is case-insensitive. The legacy tags MOSTLY_TRUE and MOSTLY_FALSE
// map to TRUE and FALSE; anything else is UNABLE_TO_VERIFY.
func ParseRating(tag string) Rating {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case "TRUE", "MOSTLY_TRUE":
		return RatingTrue
	case "FALSE", "MOSTLY_FALSE":
		return RatingFalse
	case "MISLEADING":
		return RatingMisleading
	default:
		return RatingUnableToVerify
	}
}

// String returns the rating tag
func (r Rating) String() string {
	return string(r)
}

// Label returns a human-readable label for the rating
func (r Rating) Label() string {
	switch r {
	case RatingTrue:
		return "True"
	case RatingFalse:
		return "False"
	case RatingMisleading:
		return "Misleading"
	default:
		return "Unable to verify"
	}
}

// Citation is a source backing a verdict
type Citation struct {
	Title string `json:"title"`          // Falls back to URL when the source has no title
	URL   string `json:"url"`            // Required
	Date  string `json:"date,omitempty"` // Publication date, when supplied upstream

	Trusted bool `json:"-"` // Host is on the trusted-domain list (render-time only)
}

// NewCitation builds a citation, defaulting the title to the URL
func NewCitation(title, url, date string) Citation {
	title = strings.TrimSpace(title)
	if title == "" {
		title = url
	}
	return Citation{Title: title, URL: url, Date: strings.TrimSpace(date)}
}

// VerificationResult is the canonical verdict for a claim
type VerificationResult struct {
	ID          int64      `json:"id,omitempty"`        // Assigned by the history store on insert
	Claim       string     `json:"claim"`               // Copy of the input claim
	Rating      Rating     `json:"rating"`              // Always one of Ratings
	Summary     string     `json:"summary"`             // Short verdict or synthesized error title
	Explanation string     `json:"explanation"`         // Rationale or error detail
	Citations   []Citation `json:"citations"`           // Never nil
	Timestamp   int64      `json:"timestamp,omitempty"` // Unix millis, set at insert time
}

// Usage tracks token consumption for a single completion
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
