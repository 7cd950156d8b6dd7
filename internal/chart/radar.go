package chart

import (
	"fmt"
	"math"
	"strings"
)

// MinRadarPoints is the smallest input that forms a polygon; anything
// shorter is laid out as bars.
const MinRadarPoints = 3

type RadarPoint struct {
	Label     string  `json:"label"`
	Magnitude float64 `json:"magnitude"`
}

type RadarOptions struct {
	Size        float64 `json:"size"`
	Padding     float64 `json:"padding"`
	LabelOffset float64 `json:"label_offset"`
	// MagnitudeFloor is the smallest value the outer ring may stand for, so
	// an all-zero or tiny series does not blow up to full radius.
	MagnitudeFloor float64   `json:"magnitude_floor"`
	Rings          []float64 `json:"rings,omitempty"`
	Palette        Palette   `json:"palette,omitempty"`
}

func DefaultRadarOptions() RadarOptions {
	return RadarOptions{
		Size:           320,
		Padding:        56,
		LabelOffset:    14,
		MagnitudeFloor: 10,
		Rings:          []float64{0.25, 0.5, 0.75, 1},
		Palette:        DefaultPalette,
	}
}

func (o RadarOptions) normalized() RadarOptions {
	def := DefaultRadarOptions()
	if o.Size <= 0 {
		o.Size = def.Size
	}
	if o.Padding < 0 || o.Padding*2 >= o.Size {
		o.Padding = def.Padding
		if o.Padding*2 >= o.Size {
			o.Padding = 0
		}
	}
	if o.LabelOffset < 0 {
		o.LabelOffset = 0
	}
	if o.MagnitudeFloor < 0 {
		o.MagnitudeFloor = 0
	}
	if len(o.Rings) == 0 {
		o.Rings = def.Rings
	}
	if len(o.Palette) == 0 {
		o.Palette = def.Palette
	}
	return o
}

// RadarLayout is either a *RadarPolygon or a *BarFallback.
type RadarLayout interface {
	Kind() string
	SVG() string
	isRadarLayout()
}

type RadarAxis struct {
	Index  int     `json:"index"`
	Label  string  `json:"label"`
	Angle  float64 `json:"angle"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	LabelX float64 `json:"label_x"`
	LabelY float64 `json:"label_y"`
	Anchor string  `json:"anchor"`
}

type RadarVertex struct {
	Index     int     `json:"index"`
	Label     string  `json:"label"`
	Magnitude float64 `json:"magnitude"`
	Angle     float64 `json:"angle"`
	Radius    float64 `json:"radius"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color"`
}

type RadarRing struct {
	Fraction float64 `json:"fraction"`
	Radius   float64 `json:"radius"`
	Label    string  `json:"label"`
}

type RadarPolygon struct {
	Size         float64       `json:"size"`
	Center       float64       `json:"center"`
	OuterRadius  float64       `json:"outer_radius"`
	MaxMagnitude float64       `json:"max_magnitude"`
	Axes         []RadarAxis   `json:"axes"`
	Vertices     []RadarVertex `json:"vertices"`
	Rings        []RadarRing   `json:"rings"`
	Path         string        `json:"path"`
}

type Bar struct {
	Index     int     `json:"index"`
	Label     string  `json:"label"`
	Magnitude float64 `json:"magnitude"`
	Fraction  float64 `json:"fraction"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Color     string  `json:"color"`
}

type BarFallback struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	MaxMagnitude float64 `json:"max_magnitude"`
	Bars         []Bar   `json:"bars"`
}

func (*RadarPolygon) Kind() string   { return "polygon" }
func (*RadarPolygon) isRadarLayout() {}
func (*BarFallback) Kind() string    { return "bars" }
func (*BarFallback) isRadarLayout()  {}

// BuildRadar places the points on evenly spaced axes, axis 0 at 12 o'clock
// and proceeding clockwise. Callers order and filter the points.
func BuildRadar(points []RadarPoint, opts RadarOptions) RadarLayout {
	o := opts.normalized()
	if len(points) < MinRadarPoints {
		return buildBars(points, o)
	}

	n := len(points)
	center := o.Size / 2
	outer := center - o.Padding
	maxMag := o.MagnitudeFloor
	for _, p := range points {
		if m := nonNegative(p.Magnitude); m > maxMag {
			maxMag = m
		}
	}
	rp := &RadarPolygon{
		Size:         o.Size,
		Center:       center,
		OuterRadius:  outer,
		MaxMagnitude: maxMag,
		Axes:         make([]RadarAxis, 0, n),
		Vertices:     make([]RadarVertex, 0, n),
		Rings:        make([]RadarRing, 0, len(o.Rings)),
	}
	for _, f := range o.Rings {
		rp.Rings = append(rp.Rings, RadarRing{
			Fraction: f,
			Radius:   f * outer,
			Label:    num(f*100) + "%",
		})
	}

	step := fullCircle / float64(n)
	var path strings.Builder
	for i, p := range points {
		angle := -math.Pi/2 + float64(i)*step
		end := polar(center, center, outer, angle)
		anchor := polar(center, center, outer+o.LabelOffset, angle)
		rp.Axes = append(rp.Axes, RadarAxis{
			Index:  i,
			Label:  p.Label,
			Angle:  angle,
			X:      end.X,
			Y:      end.Y,
			LabelX: anchor.X,
			LabelY: anchor.Y,
			Anchor: textAnchor(angle),
		})

		mag := nonNegative(p.Magnitude)
		r := 0.0
		if maxMag > 0 {
			r = mag / maxMag * outer
		}
		v := polar(center, center, r, angle)
		rp.Vertices = append(rp.Vertices, RadarVertex{
			Index:     i,
			Label:     p.Label,
			Magnitude: mag,
			Angle:     angle,
			Radius:    r,
			X:         v.X,
			Y:         v.Y,
			Color:     o.Palette.At(i),
		})
		if i == 0 {
			fmt.Fprintf(&path, "M %s %s", num(v.X), num(v.Y))
		} else {
			fmt.Fprintf(&path, " L %s %s", num(v.X), num(v.Y))
		}
	}
	path.WriteString(" Z")
	rp.Path = path.String()
	return rp
}

const (
	barRowHeight   = 28
	barThickness   = 16
	barLabelColumn = 110
	barValueColumn = 48
)

func buildBars(points []RadarPoint, o RadarOptions) *BarFallback {
	bf := &BarFallback{
		Width:  o.Size,
		Height: float64(len(points)*barRowHeight) + 8,
		Bars:   make([]Bar, 0, len(points)),
	}
	for _, p := range points {
		if m := nonNegative(p.Magnitude); m > bf.MaxMagnitude {
			bf.MaxMagnitude = m
		}
	}
	track := o.Size - barLabelColumn - barValueColumn
	if track < 0 {
		track = 0
	}
	for i, p := range points {
		mag := nonNegative(p.Magnitude)
		frac := 0.0
		if bf.MaxMagnitude > 0 {
			frac = mag / bf.MaxMagnitude
		}
		bf.Bars = append(bf.Bars, Bar{
			Index:     i,
			Label:     p.Label,
			Magnitude: mag,
			Fraction:  frac,
			X:         barLabelColumn,
			Y:         float64(i*barRowHeight) + float64(barRowHeight-barThickness)/2 + 4,
			Width:     frac * track,
			Height:    barThickness,
			Color:     o.Palette.At(i),
		})
	}
	return bf
}

func (rp *RadarPolygon) SVG() string {
	var b strings.Builder
	svgOpen(&b, rp.Size, rp.Size, "chart-radar")
	for _, ring := range rp.Rings {
		fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s" fill="none" stroke="#e5e7eb" stroke-dasharray="3 3"/>`,
			num(rp.Center), num(rp.Center), num(ring.Radius))
		fmt.Fprintf(&b, `<text x="%s" y="%s" font-size="9" fill="#9ca3af">%s</text>`,
			num(rp.Center+2), num(rp.Center-ring.Radius-2), esc(ring.Label))
	}
	for _, a := range rp.Axes {
		fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#d1d5db"/>`,
			num(rp.Center), num(rp.Center), num(a.X), num(a.Y))
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="%s" dominant-baseline="middle" font-size="11" fill="#374151">%s</text>`,
			num(a.LabelX), num(a.LabelY), a.Anchor, esc(a.Label))
	}
	fmt.Fprintf(&b, `<path class="radar-shape" d="%s" fill="rgba(99,102,241,0.25)" stroke="#6366f1" stroke-width="2"/>`, rp.Path)
	for _, v := range rp.Vertices {
		fmt.Fprintf(&b, `<circle class="radar-vertex" cx="%s" cy="%s" r="4" fill="%s"><title>%s: %s</title></circle>`,
			num(v.X), num(v.Y), esc(v.Color), esc(v.Label), num(v.Magnitude))
	}
	b.WriteString("</svg>")
	return b.String()
}

func (bf *BarFallback) SVG() string {
	if len(bf.Bars) == 0 {
		return emptySVG(bf.Width, 120, emptyMessage)
	}
	var b strings.Builder
	svgOpen(&b, bf.Width, bf.Height, "chart-bars")
	for _, bar := range bf.Bars {
		mid := bar.Y + bar.Height/2
		fmt.Fprintf(&b, `<text x="%d" y="%s" text-anchor="end" dominant-baseline="middle" font-size="11" fill="#374151">%s</text>`,
			barLabelColumn-8, num(mid), esc(bar.Label))
		fmt.Fprintf(&b, `<rect class="bar" x="%s" y="%s" width="%s" height="%s" rx="4" fill="%s"/>`,
			num(bar.X), num(bar.Y), num(bar.Width), num(bar.Height), esc(bar.Color))
		fmt.Fprintf(&b, `<text x="%s" y="%s" dominant-baseline="middle" font-size="11" fill="#6b7280">%s</text>`,
			num(bar.X+bar.Width+6), num(mid), num(bar.Magnitude))
	}
	b.WriteString("</svg>")
	return b.String()
}
