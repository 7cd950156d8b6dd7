package scoring

import (
	"math"
	"strconv"
)

type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandAverage   Band = "average"
	BandWeak      Band = "weak"
	BandCritical  Band = "critical"
)

// Bands lists every band from best to worst.
var Bands = []Band{BandExcellent, BandGood, BandAverage, BandWeak, BandCritical}

var bandLabels = map[Band]string{
	BandExcellent: "Excellent",
	BandGood:      "Bon",
	BandAverage:   "Moyen",
	BandWeak:      "Faible",
	BandCritical:  "Critique",
}

var bandColors = map[Band]string{
	BandExcellent: "#16a34a",
	BandGood:      "#65a30d",
	BandAverage:   "#d97706",
	BandWeak:      "#ea580c",
	BandCritical:  "#dc2626",
}

func (b Band) Label() string { return bandLabels[b] }

func (b Band) Color() string { return bandColors[b] }

// Rank is 0 for the best band and 4 for the worst.
func (b Band) Rank() int {
	for i, v := range Bands {
		if v == b {
			return i
		}
	}
	return len(Bands) - 1
}

// Thresholds are the lower bounds (inclusive) of the four upper bands.
// Anything below Weak is critical.
type Thresholds struct {
	Excellent float64 `json:"excellent"`
	Good      float64 `json:"good"`
	Average   float64 `json:"average"`
	Weak      float64 `json:"weak"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Excellent: 80, Good: 60, Average: 40, Weak: 20}
}

func (t Thresholds) IsZero() bool {
	return t == Thresholds{}
}

// Valid reports whether the breakpoints are strictly descending.
func (t Thresholds) Valid() bool {
	return t.Excellent > t.Good && t.Good > t.Average && t.Average > t.Weak
}

type Classification struct {
	Score    float64 `json:"score"`
	Band     Band    `json:"band"`
	Label    string  `json:"label"`
	Color    string  `json:"color"`
	Inverted bool    `json:"inverted,omitempty"`
}

// Display formats the un-inverted score for presentation.
func (c Classification) Display() string {
	if math.IsNaN(c.Score) || math.IsInf(c.Score, 0) {
		return "-"
	}
	return strconv.FormatFloat(math.Round(c.Score), 'f', 0, 64)
}

func (t Thresholds) band(score float64) Band {
	if t.IsZero() {
		t = DefaultThresholds()
	}
	switch {
	case math.IsNaN(score):
		return BandCritical
	case score >= t.Excellent:
		return BandExcellent
	case score >= t.Good:
		return BandGood
	case score >= t.Average:
		return BandAverage
	case score >= t.Weak:
		return BandWeak
	default:
		return BandCritical
	}
}

func (t Thresholds) Classify(score float64) Classification {
	b := t.band(score)
	return Classification{Score: score, Band: b, Label: b.Label(), Color: b.Color()}
}

// ClassifyRisk bands 100-score so that a high risk lands in a bad band,
// while the returned Score keeps the value the caller passed in.
func (t Thresholds) ClassifyRisk(score float64) Classification {
	b := t.band(100 - score)
	return Classification{Score: score, Band: b, Label: b.Label(), Color: b.Color(), Inverted: true}
}

func Classify(score float64) Classification {
	return DefaultThresholds().Classify(score)
}

func ClassifyRisk(score float64) Classification {
	return DefaultThresholds().ClassifyRisk(score)
}

// Mean averages the finite values, returning NaN when there are none.
func Mean(values []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
