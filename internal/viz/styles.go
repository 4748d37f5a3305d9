package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles derived from a Theme.
type Styles struct {
	Panel       lipgloss.Style
	Title       lipgloss.Style
	Subtle      lipgloss.Style
	Label       lipgloss.Style
	Value       lipgloss.Style
	StatusOK    lipgloss.Style
	StatusFail  lipgloss.Style
	KeyHint     lipgloss.Style
	SparkHigh   lipgloss.Style
	SparkMid    lipgloss.Style
	SparkLow    lipgloss.Style
	HeaderStyle lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(1, 2),
		Title:      lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Subtle:     lipgloss.NewStyle().Foreground(t.Muted),
		Label:      lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		Value:      lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		StatusOK:   lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		StatusFail: lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		KeyHint:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		SparkHigh:  lipgloss.NewStyle().Foreground(t.Error),
		SparkMid:   lipgloss.NewStyle().Foreground(t.Warning),
		SparkLow:   lipgloss.NewStyle().Foreground(t.Success),
		HeaderStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
	}
}

// AnimatedSpinner returns frame of animated spinner
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}

// Sparkline renders values as block characters, sampled down to width.
// Values above hi are colored as failures.
func (s Styles) Sparkline(values []float64, width int, hi float64) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, top := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		top = max(top, v)
	}
	rng := top - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		v := values[i*step]
		norm := (v - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))

		c := string(chars[idx])
		switch {
		case v > hi:
			result.WriteString(s.SparkHigh.Render(c))
		case v > hi/10:
			result.WriteString(s.SparkMid.Render(c))
		default:
			result.WriteString(s.SparkLow.Render(c))
		}
	}
	return result.String()
}

// Separator draws a decorative rule.
func (s Styles) Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return s.Subtle.Render(left + " ◆ " + right)
}
