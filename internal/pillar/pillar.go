// Package pillar describes the eight sections of the brand-strategy
// methodology and how a pillar's content is picked for display.
package pillar

import "strings"

type Key string

const (
	Authenticite   Key = "A"
	Distinction    Key = "D"
	Valeur         Key = "V"
	Engagement     Key = "E"
	Risk           Key = "R"
	Track          Key = "T"
	Implementation Key = "I"
	Synthese       Key = "S"
)

type Definition struct {
	Key  Key    `json:"key"`
	Name string `json:"name"`
	// Inverted marks scales where a larger score is worse.
	Inverted bool `json:"inverted,omitempty"`
}

// Order is the canonical A-D-V-E-R-T-I-S sequence.
var Order = []Definition{
	{Key: Authenticite, Name: "Authenticité"},
	{Key: Distinction, Name: "Distinction"},
	{Key: Valeur, Name: "Valeur"},
	{Key: Engagement, Name: "Engagement"},
	{Key: Risk, Name: "Risk", Inverted: true},
	{Key: Track, Name: "Track"},
	{Key: Implementation, Name: "Implementation"},
	{Key: Synthese, Name: "Synthèse"},
}

func Lookup(raw string) (Definition, bool) {
	k := Key(strings.ToUpper(strings.TrimSpace(raw)))
	for _, d := range Order {
		if d.Key == k {
			return d, true
		}
	}
	return Definition{}, false
}

func Keys() []string {
	out := make([]string, 0, len(Order))
	for _, d := range Order {
		out = append(out, string(d.Key))
	}
	return out
}
