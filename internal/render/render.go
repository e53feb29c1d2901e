package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/verifica/internal/model"
	"github.com/ppiankov/verifica/internal/sources"
)

// CardWidth is the outer width of a verdict card
const CardWidth = 80

// EmptyHistory is printed when there is nothing in the history
const EmptyHistory = "No verifications yet. Run 'verifica verify <claim>' to check one."

// Renderer writes verdicts and history to a terminal
type Renderer struct {
	w       io.Writer
	styles  Styles
	trusted *sources.List
}

// New creates a renderer. trusted may be nil, in which case no citation is
// marked as trusted.
func New(w io.Writer, trusted *sources.List) *Renderer {
	return &Renderer{
		w:       w,
		styles:  DefaultStyles(),
		trusted: trusted,
	}
}

// MarkTrusted returns a copy of citations with Trusted set from the allow-list
func MarkTrusted(citations []model.Citation, trusted *sources.List) []model.Citation {
	out := make([]model.Citation, len(citations))
	for i, c := range citations {
		c.Trusted = trusted != nil && trusted.Match(c.URL)
		out[i] = c
	}
	return out
}

// Verdict renders a single result as a card
func (r *Renderer) Verdict(result model.VerificationResult) error {
	s := r.styles
	inner := CardWidth - 4
	wrap := lipgloss.NewStyle().Width(inner)

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		s.LabelBadge(result.Rating), " ", s.Summary.Render(result.Summary))

	sections := []string{
		wrap.Render(header),
		"",
		s.Label.Render("Claim"),
		wrap.Render(result.Claim),
	}

	if result.Explanation != "" {
		sections = append(sections, "", s.Label.Render("Explanation"), wrap.Render(s.Body.Render(result.Explanation)))
	}

	sections = append(sections, "", s.Label.Render("Sources"))
	citations := MarkTrusted(result.Citations, r.trusted)
	if len(citations) == 0 {
		sections = append(sections, s.Muted.Render("No sources returned."))
	}
	for i, c := range citations {
		line := fmt.Sprintf("%d. %s", i+1, c.Title)
		if c.Trusted {
			line += " " + s.Trusted.Render("✓ trusted")
		}
		sections = append(sections, wrap.Render(line))

		link := "   " + s.Link.Render(c.URL)
		meta := []string{string(sources.Categorize(c.URL))}
		if c.Date != "" {
			meta = append(meta, c.Date)
		}
		link += " " + s.Muted.Render("("+strings.Join(meta, ", ")+")")
		sections = append(sections, link)
	}

	if result.ID != 0 || result.Timestamp != 0 {
		meta := []string{}
		if result.ID != 0 {
			meta = append(meta, fmt.Sprintf("#%d", result.ID))
		}
		if result.Timestamp != 0 {
			meta = append(meta, FormatTimestamp(result.Timestamp))
		}
		sections = append(sections, "", s.Muted.Render(strings.Join(meta, " · ")))
	}

	card := s.Card.Width(CardWidth - 2).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
	_, err := fmt.Fprintln(r.w, card)
	return err
}

// History renders records as a table, newest first as given
func (r *Renderer) History(results []model.VerificationResult) error {
	s := r.styles
	if len(results) == 0 {
		_, err := fmt.Fprintln(r.w, s.Muted.Render(EmptyHistory))
		return err
	}

	idWidth := len("ID")
	for _, res := range results {
		if n := len(fmt.Sprint(res.ID)); n > idWidth {
			idWidth = n
		}
	}
	ratingWidth := len(string(model.RatingUnableToVerify)) + 2
	whenWidth := len(FormatTimestamp(0))

	row := func(id, when, rating, claim string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(idWidth+2).Render(id),
			lipgloss.NewStyle().Width(whenWidth+2).Render(when),
			lipgloss.NewStyle().Width(ratingWidth+2).Render(rating),
			claim,
		)
	}

	var b strings.Builder
	b.WriteString(s.Header.Render(row("ID", "When", "Rating", "Claim")))
	b.WriteString("\n")
	for _, res := range results {
		b.WriteString(row(
			fmt.Sprint(res.ID),
			FormatTimestamp(res.Timestamp),
			s.Badge(res.Rating),
			Truncate(res.Claim, CardWidth-idWidth-whenWidth-ratingWidth-6),
		))
		b.WriteString("\n")
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// Sources renders the trusted-domain list
func (r *Renderer) Sources(list *sources.List) error {
	var b strings.Builder
	b.WriteString(r.styles.Header.Render(fmt.Sprintf("Trusted sources (%d/%d)", list.Len(), sources.MaxDomains)))
	b.WriteString("\n")
	for _, d := range list.Domains() {
		b.WriteString("  " + d + "\n")
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Error renders an error line
func (r *Renderer) Error(msg string) error {
	_, err := fmt.Fprintln(r.w, r.styles.Error.Render(msg))
	return err
}

// Muted renders a secondary line
func (r *Renderer) Muted(msg string) error {
	_, err := fmt.Fprintln(r.w, r.styles.Muted.Render(msg))
	return err
}

// JSON writes v as indented JSON
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatTimestamp formats a Unix millisecond timestamp in local time
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

// Truncate shortens s to at most n runes, ending with an ellipsis
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}

// BatchLine renders one line of a batch report. result is nil when the
// claim was never verified; errMsg explains why, or notes a storage failure.
func (r *Renderer) BatchLine(line int, claim string, result *model.VerificationResult, errMsg string) error {
	s := r.styles
	prefix := s.Muted.Render(fmt.Sprintf("%3d", line))

	var text string
	if result == nil {
		text = fmt.Sprintf("%s %s %s", prefix, s.Error.Render("SKIPPED"), Truncate(claim, 50))
	} else {
		text = fmt.Sprintf("%s %s %s  %s", prefix, s.Badge(result.Rating), Truncate(claim, 50), s.Muted.Render(result.Summary))
	}
	if errMsg != "" {
		text += " " + s.Error.Render("("+errMsg+")")
	}

	_, err := fmt.Fprintln(r.w, text)
	return err
}
