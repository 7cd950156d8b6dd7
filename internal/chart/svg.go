package chart

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
)

const emptyMessage = "Aucune donnée"

type point struct {
	X float64
	Y float64
}

// polar converts an angle in radians, measured clockwise from 3 o'clock in
// screen coordinates, into a point on a circle around (cx, cy).
func polar(cx, cy, r, angle float64) point {
	return point{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
}

func num(v float64) string {
	if math.Abs(v) < 0.005 {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func esc(s string) string {
	return html.EscapeString(s)
}

func svgOpen(b *strings.Builder, width, height float64, class string) {
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" class="%s" width="%s" height="%s" viewBox="0 0 %s %s" role="img" font-family="sans-serif">`,
		esc(class), num(width), num(height), num(width), num(height))
}

func emptySVG(width, height float64, msg string) string {
	var b strings.Builder
	svgOpen(&b, width, height, "chart-empty")
	fmt.Fprintf(&b, `<rect width="%s" height="%s" rx="12" fill="#f5f5f5"/><text x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" fill="#999" font-size="14">%s</text></svg>`,
		num(width), num(height), num(width/2), num(height/2), esc(msg))
	return b.String()
}

func textAnchor(angle float64) string {
	c := math.Cos(angle)
	switch {
	case c > 0.1:
		return "start"
	case c < -0.1:
		return "end"
	default:
		return "middle"
	}
}
