package verify

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/ppiankov/verifica/internal/llm"
	"github.com/ppiankov/verifica/internal/model"
)

// Normalize turns a provider reply, or the error that replaced it, into a
// verdict. It never fails: every failure becomes an UNABLE_TO_VERIFY result
// with a synthesized summary and explanation.
func Normalize(claim string, resp *llm.Response, err error) model.VerificationResult {
	if err != nil {
		return FailureResult(claim, err)
	}

	content := ""
	if resp != nil && len(resp.Choices) > 0 {
		content = resp.Choices[0].Content
	}
	if strings.TrimSpace(content) == "" {
		return model.VerificationResult{
			Claim:       claim,
			Rating:      model.RatingUnableToVerify,
			Summary:     SummaryNoResponse,
			Explanation: explainNoResponse,
			Citations:   []model.Citation{},
		}
	}

	verdict, err := parseVerdict(content)
	if err != nil {
		return FailureResult(claim, err)
	}

	return model.VerificationResult{
		Claim:       claim,
		Rating:      model.ParseRating(verdict.rating),
		Summary:     verdict.summary,
		Explanation: verdict.explanation,
		Citations:   collectCitations(resp),
	}
}

type verdictBody struct {
	rating      string
	summary     string
	explanation string
}

// parseVerdict reads the JSON object carried in the message content.
// Models sometimes wrap it in a markdown fence or surround it with prose.
func parseVerdict(content string) (verdictBody, error) {
	stripped := []byte(stripFences(content))
	var fields map[string]json.RawMessage
	if json.Valid(stripped) {
		// well-formed JSON that is not an object is not a verdict
		if err := json.Unmarshal(stripped, &fields); err != nil {
			return verdictBody{}, errMalformedContent
		}
	} else {
		obj, ok := outermostObject(content)
		if !ok {
			return verdictBody{}, errMalformedContent
		}
		fields = nil
		if err := json.Unmarshal([]byte(obj), &fields); err != nil {
			return verdictBody{}, errMalformedContent
		}
	}
	if fields == nil {
		return verdictBody{}, errMalformedContent
	}

	return verdictBody{
		rating:      stringField(fields["rating"]),
		summary:     stringField(fields["summary"]),
		explanation: stringField(fields["explanation"]),
	}, nil
}

func stripFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func outermostObject(content string) (string, bool) {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

// stringField reads a JSON value as text. Missing or null values are empty;
// non-string scalars keep their literal form.
func stringField(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// collectCitations prefers the structured search_results over the
// deprecated flat citations list. Entries without a URL are dropped, and the
// flat list is used when no search result carries one.
func collectCitations(resp *llm.Response) []model.Citation {
	citations := []model.Citation{}

	for _, r := range resp.SearchResults {
		url := strings.TrimSpace(r.URL)
		if url == "" {
			continue
		}
		citations = append(citations, model.NewCitation(r.Title, url, r.Date))
	}
	if len(citations) > 0 {
		return citations
	}

	for _, u := range resp.Citations {
		url := strings.TrimSpace(u)
		if url == "" {
			continue
		}
		citations = append(citations, model.NewCitation("", url, ""))
	}
	return citations
}
