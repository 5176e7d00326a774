package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

type palette struct {
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	muted  lipgloss.Style
	panel  lipgloss.Style
	good   lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
}

func stylesFor(t Theme) palette {
	return palette{
		header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value:  lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		muted:  lipgloss.NewStyle().Foreground(t.Muted),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		good: lipgloss.NewStyle().Foreground(t.Good),
		warn: lipgloss.NewStyle().Foreground(t.Warn),
		bad:  lipgloss.NewStyle().Foreground(t.Bad),
	}
}

// Bar renders v in [0,1] as a filled bar of the given width.
func Bar(v float64, width int, st lipgloss.Style) string {
	filled := int(v*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	return st.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

// SteerBar renders a steer value in [-1,1] around a centre mark.
func SteerBar(v float64, width int, st lipgloss.Style) string {
	half := width / 2
	n := int(v*float64(half) + 0.5*sign(v))
	n = max(-half, min(half, n))
	left := strings.Repeat("░", half)
	right := strings.Repeat("░", half)
	if n < 0 {
		left = strings.Repeat("░", half+n) + st.Render(strings.Repeat("█", -n))
	} else if n > 0 {
		right = st.Render(strings.Repeat("█", n)) + strings.Repeat("░", half-n)
	}
	return left + "│" + right
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Sparkline renders the last width values with block glyphs.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	glyphs := []rune("▁▂▃▄▅▆▇█")
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(glyphs)-1))
		b.WriteRune(glyphs[max(0, min(len(glyphs)-1, idx))])
	}
	return b.String()
}

// Chart plots a series with asciigraph; used by the dashboard and the plot
// command.
func Chart(series []float64, caption string, width, height int) string {
	if len(series) == 0 {
		return ""
	}
	if len(series) == 1 {
		series = []float64{series[0], series[0]}
	}
	return asciigraph.Plot(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption))
}
