package chart

// Palette is a cyclic list of fill colors.
type Palette []string

var DefaultPalette = Palette{
	"#6366f1",
	"#0ea5e9",
	"#10b981",
	"#f59e0b",
	"#ef4444",
	"#8b5cf6",
	"#ec4899",
	"#14b8a6",
}

// At returns the color for position i, wrapping around the palette.
func (p Palette) At(i int) string {
	if len(p) == 0 {
		p = DefaultPalette
	}
	n := len(p)
	return p[((i%n)+n)%n]
}
