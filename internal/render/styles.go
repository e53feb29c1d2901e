package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/verifica/internal/model"
)

var (
	ColorTrue       = lipgloss.Color("#8BC34A") // Lime Green
	ColorFalse      = lipgloss.Color("#e53935") // Red
	ColorMisleading = lipgloss.Color("#FFC107") // Yellow
	ColorUnable     = lipgloss.Color("#9E9E9E") // Grey

	ColorMuted  = lipgloss.Color("#8a94a6")
	ColorLink   = lipgloss.Color("#2196F3") // Blue
	ColorBorder = lipgloss.Color("#2a3850")
)

// RatingColor returns the badge color for a rating
func RatingColor(r model.Rating) lipgloss.Color {
	switch r {
	case model.RatingTrue:
		return ColorTrue
	case model.RatingFalse:
		return ColorFalse
	case model.RatingMisleading:
		return ColorMisleading
	default:
		return ColorUnable
	}
}

// Styles holds the styled components used by the renderer
type Styles struct {
	Card    lipgloss.Style
	Summary lipgloss.Style
	Label   lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Link    lipgloss.Style
	Trusted lipgloss.Style
	Error   lipgloss.Style
	Header  lipgloss.Style
}

// DefaultStyles returns the standard terminal styles
func DefaultStyles() Styles {
	return Styles{
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1),
		Summary: lipgloss.NewStyle().Bold(true),
		Label:   lipgloss.NewStyle().Bold(true).Foreground(ColorMuted),
		Body:    lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
		Link:    lipgloss.NewStyle().Foreground(ColorLink).Underline(true),
		Trusted: lipgloss.NewStyle().Foreground(ColorTrue),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(ColorFalse),
		Header:  lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// Badge renders the rating as a colored tag
func (s Styles) Badge(r model.Rating) string {
	return s.badge(r, r.String())
}

// LabelBadge renders the rating's readable label in the rating's colors
func (s Styles) LabelBadge(r model.Rating) string {
	return s.badge(r, r.Label())
}

func (s Styles) badge(r model.Rating, text string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#101F38")).
		Background(RatingColor(r)).
		Padding(0, 1).
		Render(text)
}
