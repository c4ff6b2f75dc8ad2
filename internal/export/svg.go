package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/elens/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(sb, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%[1]g\" height=\"%[2]g\" viewBox=\"0 0 %[1]g %[2]g\">\n", width, height)
	fmt.Fprintf(sb, "<rect width=\"100%%\" height=\"100%%\" fill=\"%s\"/>\n", background)
}

// CanvasToSVG draws every lit braille dot as a circle, scale pixels apart.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	var sb strings.Builder
	header(&sb, float64(2*canvas.Width)*scale, float64(4*canvas.Height)*scale)
	sb.WriteString("<g fill=\"#7d56f4\">\n")
	canvas.Dots(func(x, y int) {
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
			(float64(x)+0.5)*scale, (float64(y)+0.5)*scale, 0.4*scale)
	})
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// SeriesToSVG draws a per-turn series as a polyline with a zero line when
// the data changes sign. Non-finite samples break the line.
func SeriesToSVG(values []float64, width, height int, strokeColor, caption string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}
	if math.IsInf(minY, 1) {
		return ""
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = math.Max(math.Abs(maxY), 1)
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	px := func(i int) float64 { return float64(i) / float64(len(values)-1) * float64(width) }
	py := func(v float64) float64 { return float64(height) - (v-minY)/rangeY*float64(height) }

	var sb strings.Builder
	header(&sb, float64(width), float64(height))

	if minY < 0 && maxY > 0 {
		fmt.Fprintf(&sb, "<line x1=\"0\" y1=\"%.1f\" x2=\"%d\" y2=\"%.1f\" stroke=\"#444444\" stroke-dasharray=\"4 4\"/>\n",
			py(0), width, py(0))
	}

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, strokeColor)
	pen := false
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			pen = false
			continue
		}
		cmd := "L"
		if !pen {
			cmd = "M"
			pen = true
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f ", cmd, px(i), py(v))
	}
	sb.WriteString("\"/>\n")

	if caption != "" {
		fmt.Fprintf(&sb, "<text x=\"8\" y=\"16\" fill=\"#cccccc\" font-family=\"monospace\" font-size=\"12\">%s</text>\n", escape(caption))
	}
	sb.WriteString("</svg>\n")
	return sb.String()
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
