package chart

import (
	"fmt"
	"math"
	"strings"
)

const fullCircle = 2 * math.Pi

type Segment struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// DonutOptions tune the donut geometry. A zero Gap draws segments flush.
type DonutOptions struct {
	Size       float64 `json:"size"`
	Margin     float64 `json:"margin"`
	InnerRatio float64 `json:"inner_ratio"`
	Gap        float64 `json:"gap"`
	Palette    Palette `json:"palette,omitempty"`
}

func DefaultDonutOptions() DonutOptions {
	return DonutOptions{
		Size:       200,
		Margin:     4,
		InnerRatio: 0.6,
		Gap:        0.02,
		Palette:    DefaultPalette,
	}
}

func (o DonutOptions) normalized() DonutOptions {
	def := DefaultDonutOptions()
	if o.Size <= 0 {
		o.Size = def.Size
	}
	if o.Margin < 0 || o.Margin*2 >= o.Size {
		o.Margin = 0
	}
	if o.InnerRatio <= 0 || o.InnerRatio >= 1 {
		o.InnerRatio = def.InnerRatio
	}
	if o.Gap < 0 {
		o.Gap = 0
	}
	if len(o.Palette) == 0 {
		o.Palette = def.Palette
	}
	return o
}

// Arc is one drawn donut segment. SweepStart and Sweep describe the
// segment's full share of the circle; StartAngle and EndAngle are the drawn
// extent after the inter-segment gap is removed.
type Arc struct {
	Index      int     `json:"index"`
	Label      string  `json:"label"`
	Weight     float64 `json:"weight"`
	Share      float64 `json:"share"`
	SweepStart float64 `json:"sweep_start"`
	Sweep      float64 `json:"sweep"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
	LargeArc   bool    `json:"large_arc"`
	Path       string  `json:"path"`
	Color      string  `json:"color"`
}

type Donut struct {
	Empty        bool    `json:"empty"`
	Total        float64 `json:"total"`
	Size         float64 `json:"size"`
	Center       float64 `json:"center"`
	OuterRadius  float64 `json:"outer_radius"`
	InnerRadius  float64 `json:"inner_radius"`
	StrokeRadius float64 `json:"stroke_radius"`
	StrokeWidth  float64 `json:"stroke_width"`
	Arcs         []Arc   `json:"arcs"`
}

// BuildDonut lays the segments out clockwise from 12 o'clock. A list whose
// weights sum to zero, or overflow to +Inf, yields an Empty donut with no arcs.
func BuildDonut(segments []Segment, opts DonutOptions) Donut {
	o := opts.normalized()
	center := o.Size / 2
	outer := center - o.Margin
	inner := outer * o.InnerRatio
	d := Donut{
		Size:         o.Size,
		Center:       center,
		OuterRadius:  outer,
		InnerRadius:  inner,
		StrokeRadius: (outer + inner) / 2,
		StrokeWidth:  outer - inner,
		Arcs:         []Arc{},
	}

	total := 0.0
	for _, s := range segments {
		total += nonNegative(s.Weight)
	}
	if total == 0 || math.IsInf(total, 0) {
		d.Empty = true
		return d
	}
	d.Total = total

	gap := 0.0
	if len(segments) > 1 {
		gap = o.Gap
	}
	angle := -math.Pi / 2
	for i, s := range segments {
		w := nonNegative(s.Weight)
		sweep := w / total * fullCircle
		start := angle + gap/2
		end := angle + sweep - gap/2
		if end < start {
			mid := angle + sweep/2
			start, end = mid, mid
		}
		d.Arcs = append(d.Arcs, Arc{
			Index:      i,
			Label:      s.Label,
			Weight:     w,
			Share:      w / total,
			SweepStart: angle,
			Sweep:      sweep,
			StartAngle: start,
			EndAngle:   end,
			LargeArc:   end-start > math.Pi,
			Path:       arcPath(center, center, d.StrokeRadius, start, end),
			Color:      o.Palette.At(i),
		})
		angle += sweep
	}
	return d
}

func arcPath(cx, cy, r, start, end float64) string {
	p0 := polar(cx, cy, r, start)
	if end <= start {
		return fmt.Sprintf("M %s %s", num(p0.X), num(p0.Y))
	}
	if end-start >= fullCircle-1e-9 {
		// An SVG arc whose endpoints coincide draws nothing; split it.
		mid := polar(cx, cy, r, start+math.Pi)
		return fmt.Sprintf("M %s %s A %s %s 0 1 1 %s %s A %s %s 0 1 1 %s %s",
			num(p0.X), num(p0.Y),
			num(r), num(r), num(mid.X), num(mid.Y),
			num(r), num(r), num(p0.X), num(p0.Y))
	}
	p1 := polar(cx, cy, r, end)
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M %s %s A %s %s 0 %d 1 %s %s",
		num(p0.X), num(p0.Y), num(r), num(r), large, num(p1.X), num(p1.Y))
}

// SVG renders the donut with the total at its centre.
func (d Donut) SVG() string {
	if d.Empty {
		return emptySVG(d.Size, d.Size, emptyMessage)
	}
	var b strings.Builder
	svgOpen(&b, d.Size, d.Size, "chart-donut")
	fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s" fill="none" stroke="#e5e7eb" stroke-width="%s"/>`,
		num(d.Center), num(d.Center), num(d.StrokeRadius), num(d.StrokeWidth))
	for _, a := range d.Arcs {
		fmt.Fprintf(&b, `<path class="donut-arc" data-index="%d" d="%s" fill="none" stroke="%s" stroke-width="%s"><title>%s: %s (%s%%)</title></path>`,
			a.Index, a.Path, esc(a.Color), num(d.StrokeWidth), esc(a.Label), num(a.Weight), num(a.Share*100))
	}
	fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" font-size="%s" font-weight="700" fill="#111827">%s</text>`,
		num(d.Center), num(d.Center), num(d.InnerRadius*0.45), num(d.Total))
	b.WriteString("</svg>")
	return b.String()
}

func nonNegative(v float64) float64 {
	if v > 0 && !math.IsInf(v, 1) {
		return v
	}
	return 0
}
