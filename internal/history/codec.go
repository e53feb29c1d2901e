package history

import (
	"encoding/json"
	"strings"

	"github.com/ppiankov/verifica/internal/model"
)

type storedCitation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date,omitempty"`
}

// EncodeCitations serializes citations as a JSON array of objects
func EncodeCitations(citations []model.Citation) string {
	stored := make([]storedCitation, 0, len(citations))
	for _, c := range citations {
		stored = append(stored, storedCitation{Title: c.Title, URL: c.URL, Date: c.Date})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeCitations reads a stored citation column. Rows written by older
// versions hold a plain array of URL strings; those become citations titled
// by their URL. Anything unreadable decodes to an empty list.
func DecodeCitations(raw string) []model.Citation {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []model.Citation{}
	}

	var stored []storedCitation
	if err := json.Unmarshal([]byte(raw), &stored); err == nil {
		citations := make([]model.Citation, 0, len(stored))
		for _, s := range stored {
			if strings.TrimSpace(s.URL) == "" {
				continue
			}
			citations = append(citations, model.NewCitation(s.Title, s.URL, s.Date))
		}
		return citations
	}

	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err == nil {
		citations := make([]model.Citation, 0, len(urls))
		for _, u := range urls {
			if strings.TrimSpace(u) == "" {
				continue
			}
			citations = append(citations, model.NewCitation("", u, ""))
		}
		return citations
	}

	return []model.Citation{}
}
