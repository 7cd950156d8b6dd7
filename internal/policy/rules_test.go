package policy

import (
	"reflect"
	"testing"
)

var pillarKeys = []string{"A", "D", "V", "E", "R", "T", "I", "S"}

func TestApplyRulesMatchesPillarAndBandTogether(t *testing.T) {
	rules := []Rule{
		{RuleID: "r-risk", Enabled: true, When: RuleWhen{Pillars: []string{"R"}, Bands: []string{"critical"}}, Then: RuleThen{AddRecommendedStepIDs: []string{"RISK_WORKSHOP"}}},
		{RuleID: "r-any-weak", Enabled: true, When: RuleWhen{Bands: []string{"weak"}}, Then: RuleThen{AddRecommendedStepIDs: []string{"COACHING", "RISK_WORKSHOP"}}},
		{RuleID: "r-disabled", Enabled: false, Then: RuleThen{AddRecommendedStepIDs: []string{"NEVER"}}},
	}
	observed := []PillarBand{{Key: "A", Band: "critical"}, {Key: "R", Band: "weak"}}

	got := ApplyRules(rules, "internal", observed)
	want := []string{"COACHING", "RISK_WORKSHOP"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ApplyRules = %v, want %v", got, want)
	}

	observed = []PillarBand{{Key: "A", Band: "weak"}, {Key: "R", Band: "critical"}}
	got = ApplyRules(rules[:1], "internal", observed)
	if !reflect.DeepEqual(got, []string{"RISK_WORKSHOP"}) {
		t.Fatalf("expected risk rule to match R/critical, got %v", got)
	}
}

func TestApplyRulesViewFilter(t *testing.T) {
	rules := []Rule{{RuleID: "internal-only", Enabled: true, When: RuleWhen{Views: []string{"internal"}}, Then: RuleThen{AddRecommendedStepIDs: []string{"X"}}}}
	if got := ApplyRules(rules, "client", nil); len(got) != 0 {
		t.Fatalf("expected no steps in client view, got %v", got)
	}
	if got := ApplyRules(rules, "INTERNAL", nil); len(got) != 1 {
		t.Fatalf("expected step in internal view, got %v", got)
	}
}

func TestValidateRules(t *testing.T) {
	rules := []Rule{
		{RuleID: ""},
		{RuleID: "a", When: RuleWhen{Views: []string{"public"}, Pillars: []string{"Z"}, Bands: []string{"meh"}}},
		{RuleID: "b", Then: RuleThen{AddRecommendedStepIDs: []string{"S"}}},
		{RuleID: "b", Then: RuleThen{AddRecommendedStepIDs: []string{"S"}}},
	}
	errs := ValidateRules(rules, pillarKeys)
	want := []string{
		"rule_id required",
		"rule a has unsupported view public",
		"rule a has unknown pillar Z",
		"rule a has unknown band meh",
		"rule a adds no recommended steps",
		"duplicate rule_id b",
	}
	if !reflect.DeepEqual(errs, want) {
		t.Fatalf("ValidateRules = %#v, want %#v", errs, want)
	}
}
