package export

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/elens/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 2) != "" {
		t.Error("expected empty output for nil canvas")
	}

	c := viz.NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(7, 7)

	svg := CanvasToSVG(c, 2)
	if !strings.HasPrefix(svg, "<?xml") {
		t.Error("expected xml header")
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if !strings.Contains(svg, `width="16" height="16"`) {
		t.Error("expected 16x16 image for a 4x2 canvas at scale 2")
	}
}

func TestSeriesToSVG(t *testing.T) {
	if SeriesToSVG([]float64{1}, 100, 50, "#fff", "") != "" {
		t.Error("expected empty output for a single sample")
	}
	if SeriesToSVG([]float64{math.NaN(), math.NaN()}, 100, 50, "#fff", "") != "" {
		t.Error("expected empty output when nothing is finite")
	}

	svg := SeriesToSVG([]float64{-1, 0, 1, math.NaN(), 2}, 100, 50, "#00ff00", "<x> & <y>")
	if !strings.Contains(svg, `stroke="#00ff00"`) {
		t.Error("expected stroke color")
	}
	if !strings.Contains(svg, "<line") {
		t.Error("expected zero line for data crossing zero")
	}
	// NaN splits the path into two segments
	if n := strings.Count(svg, "M"); n != 2 {
		t.Errorf("expected 2 path segments, got %d", n)
	}
	if !strings.Contains(svg, "&lt;x&gt; &amp; &lt;y&gt;") {
		t.Error("expected escaped caption")
	}

	flat := SeriesToSVG([]float64{3, 3, 3}, 100, 50, "#fff", "")
	if strings.Contains(flat, "NaN") {
		t.Error("flat series produced NaN coordinates")
	}
}
