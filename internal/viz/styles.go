package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorBeam   = lipgloss.Color("#7d56f4")
	colorField  = lipgloss.Color("#4fb3bf")
	colorOK     = lipgloss.Color("#5fd787")
	colorFault  = lipgloss.Color("#e06c75")
	colorMuted  = lipgloss.Color("#6c6f85")
	colorBorder = lipgloss.Color("#3b3f51")
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(1, 2)

	Title       = lipgloss.NewStyle().Bold(true).Foreground(colorBeam)
	Subtle      = lipgloss.NewStyle().Foreground(colorMuted)
	KeyHint     = Subtle.Italic(true)
	MetricLabel = Subtle.Width(14)
	MetricValue = lipgloss.NewStyle().Bold(true).Foreground(colorField)

	StatusRunning = lipgloss.NewStyle().Bold(true).Foreground(colorOK)
	StatusDone    = lipgloss.NewStyle().Bold(true).Foreground(colorField)
	StatusFailed  = lipgloss.NewStyle().Bold(true).Foreground(colorFault)

	barStyle = lipgloss.NewStyle().Foreground(colorBeam)
)

var (
	partialBlocks = []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉'}
	sparkLevels   = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
)

// ProgressBar renders a bar width cells wide filled to fraction, with
// eighth-cell resolution on the leading edge.
func ProgressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	fraction = math.Max(0, math.Min(1, fraction))
	eighths := int(fraction * float64(width*8))
	full, rem := eighths/8, eighths%8

	var sb strings.Builder
	sb.WriteString(strings.Repeat("█", full))
	if full < width {
		if rem > 0 {
			sb.WriteRune(partialBlocks[rem])
			full++
		}
		sb.WriteString(strings.Repeat("░", width-full))
	}
	return barStyle.Render(sb.String())
}

// Sparkline renders values as a one-line bar chart width cells wide.
// Longer series are averaged into width buckets.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	n := min(width, len(values))
	buckets := make([]float64, n)
	for i := range buckets {
		lo, hi := i*len(values)/n, (i+1)*len(values)/n
		sum := 0.0
		for _, v := range values[lo:hi] {
			sum += v
		}
		buckets[i] = sum / float64(hi-lo)
	}

	lo, hi := buckets[0], buckets[0]
	for _, v := range buckets {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	out := make([]rune, n)
	top := len(sparkLevels) - 1
	for i, v := range buckets {
		idx := int(math.Round((v - lo) / span * float64(top)))
		out[i] = sparkLevels[max(0, min(idx, top))]
	}
	return string(out)
}
