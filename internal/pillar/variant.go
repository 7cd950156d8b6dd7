package pillar

import "strings"

// Source is everything known about a pillar's content, in every shape it
// may arrive in.
type Source struct {
	Summary    string
	Items      []string
	Actions    []string
	Milestones []string
	Raw        string
}

// Variant is the display shape chosen for a pillar. The concrete types are
// ContentVariant, ImplementationVariant, RawVariant and EmptyVariant.
type Variant interface {
	Kind() string
	isVariant()
}

type ContentVariant struct {
	Summary string   `json:"summary"`
	Items   []string `json:"items"`
}

type ImplementationVariant struct {
	Actions    []string `json:"actions"`
	Milestones []string `json:"milestones"`
}

type RawVariant struct {
	Text string `json:"text"`
}

type EmptyVariant struct{}

func (ContentVariant) Kind() string        { return "content" }
func (ImplementationVariant) Kind() string { return "implementation" }
func (RawVariant) Kind() string            { return "raw" }
func (EmptyVariant) Kind() string          { return "empty" }

func (ContentVariant) isVariant()        {}
func (ImplementationVariant) isVariant() {}
func (RawVariant) isVariant()            {}
func (EmptyVariant) isVariant()          {}

type candidate func(Source) (Variant, bool)

var priority = []candidate{
	func(s Source) (Variant, bool) {
		items := nonBlank(s.Items)
		if strings.TrimSpace(s.Summary) == "" || len(items) == 0 {
			return nil, false
		}
		return ContentVariant{Summary: strings.TrimSpace(s.Summary), Items: items}, true
	},
	func(s Source) (Variant, bool) {
		actions, milestones := nonBlank(s.Actions), nonBlank(s.Milestones)
		if len(actions) == 0 && len(milestones) == 0 {
			return nil, false
		}
		return ImplementationVariant{Actions: actions, Milestones: milestones}, true
	},
	func(s Source) (Variant, bool) {
		text := strings.TrimSpace(s.Raw)
		if text == "" {
			text = strings.TrimSpace(s.Summary)
		}
		if text == "" {
			return nil, false
		}
		return RawVariant{Text: text}, true
	},
}

// Select returns the first variant, in priority order, whose required
// fields are present.
func Select(s Source) Variant {
	for _, c := range priority {
		if v, ok := c(s); ok {
			return v
		}
	}
	return EmptyVariant{}
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
