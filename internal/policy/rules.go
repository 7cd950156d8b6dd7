package policy

import (
	"sort"
	"strings"
)

var knownViews = map[string]bool{"client": true, "internal": true}

var knownBands = map[string]bool{
	"excellent": true,
	"good":      true,
	"average":   true,
	"weak":      true,
	"critical":  true,
}

type Rule struct {
	RuleID  string
	Enabled bool
	When    RuleWhen
	Then    RuleThen
}

// RuleWhen matches when every non-empty list contains the observed value.
// Pillars and Bands are matched against the same pillar.
type RuleWhen struct {
	Views   []string
	Pillars []string
	Bands   []string
}

type RuleThen struct {
	AddRecommendedStepIDs []string
}

// PillarBand is the classification observed for one pillar.
type PillarBand struct {
	Key  string
	Band string
}

func ValidateRules(rules []Rule, knownPillars []string) []string {
	var errs []string
	pillars := map[string]bool{}
	for _, p := range knownPillars {
		pillars[strings.ToUpper(p)] = true
	}
	seen := map[string]bool{}
	for _, r := range rules {
		if r.RuleID == "" {
			errs = append(errs, "rule_id required")
			continue
		}
		if seen[r.RuleID] {
			errs = append(errs, "duplicate rule_id "+r.RuleID)
		}
		seen[r.RuleID] = true
		for _, v := range r.When.Views {
			if !knownViews[normalizeToken(v)] {
				errs = append(errs, "rule "+r.RuleID+" has unsupported view "+v)
			}
		}
		for _, p := range r.When.Pillars {
			if !pillars[strings.ToUpper(strings.TrimSpace(p))] {
				errs = append(errs, "rule "+r.RuleID+" has unknown pillar "+p)
			}
		}
		for _, b := range r.When.Bands {
			if !knownBands[normalizeToken(b)] {
				errs = append(errs, "rule "+r.RuleID+" has unknown band "+b)
			}
		}
		if len(r.Then.AddRecommendedStepIDs) == 0 {
			errs = append(errs, "rule "+r.RuleID+" adds no recommended steps")
		}
	}
	return errs
}

// ApplyRules returns the sorted, de-duplicated step ids of every enabled rule
// that matches the view and at least one pillar.
func ApplyRules(rules []Rule, view string, observed []PillarBand) []string {
	sorted := append([]Rule{}, rules...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RuleID < sorted[j].RuleID })
	stepSet := map[string]bool{}
	for _, r := range sorted {
		if !r.Enabled {
			continue
		}
		if !contains(r.When.Views, normalizeToken(view)) {
			continue
		}
		if !matchesAnyPillar(r.When, observed) {
			continue
		}
		for _, id := range r.Then.AddRecommendedStepIDs {
			stepSet[id] = true
		}
	}
	steps := make([]string, 0, len(stepSet))
	for s := range stepSet {
		steps = append(steps, s)
	}
	sort.Strings(steps)
	return steps
}

func matchesAnyPillar(w RuleWhen, observed []PillarBand) bool {
	if len(w.Pillars) == 0 && len(w.Bands) == 0 {
		return true
	}
	for _, pb := range observed {
		if contains(w.Pillars, pb.Key) && contains(w.Bands, normalizeToken(pb.Band)) {
			return true
		}
	}
	return false
}

func contains(values []string, target string) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func normalizeToken(s string) string {
	t := strings.TrimSpace(strings.ToLower(s))
	if t == "" {
		return "unknown"
	}
	return t
}
