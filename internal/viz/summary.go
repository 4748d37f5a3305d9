package viz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/problems"
)

// Summary renders the outcome of one solve. ref may be nil.
func Summary(theme Theme, title string, res *bvp.Result, ref *problems.Reference, tol float64) string {
	s := NewStyles(theme)
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(label), s.Value.Render(value)))
		b.WriteByte('\n')
	}

	b.WriteString(s.HeaderStyle.Render(title))
	b.WriteString("\n\n")

	if res.Success {
		b.WriteString(s.StatusOK.Render("● converged"))
	} else {
		b.WriteString(s.StatusFail.Render(fmt.Sprintf("✗ status %d", res.Status)))
	}
	b.WriteString("  " + s.Subtle.Render(res.Message) + "\n\n")

	sol := res.Solution
	row("nodes", fmt.Sprintf("%d", sol.NumNodes()))
	row("iterations", fmt.Sprintf("%d", res.NIter))
	row("time", res.CompTime.String())
	row("states", fmt.Sprintf("%d", sol.NumStates()))
	if sol.NumQuads() > 0 {
		row("quadratures", fmt.Sprintf("%d", sol.NumQuads()))
	}
	if len(sol.P) > 0 {
		row("p", formatVector(sol.P))
	}
	if len(sol.Nu) > 0 {
		row("nu", formatVector(sol.Nu))
	}
	if len(sol.K) > 0 {
		row("k", formatVector(sol.K))
	}

	if len(res.RMSResiduals) > 0 {
		b.WriteByte('\n')
		row("max residual", fmt.Sprintf("%.3e", slices.Max(res.RMSResiduals)))
		b.WriteString(s.Label.Render("residuals") + s.Sparkline(res.RMSResiduals, 40, tol) + "\n")
	}

	if ref != nil {
		b.WriteByte('\n')
		mark := s.StatusOK.Render("✓")
		if !ref.OK() {
			mark = s.StatusFail.Render("✗")
		}
		row(ref.Quantity, fmt.Sprintf("%.6g (want %.6g) %s", ref.Got, ref.Want, mark))
	}

	return s.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.6g", x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
