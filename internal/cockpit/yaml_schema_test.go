package cockpit

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func schemaErrorsFor(t *testing.T, kind, doc string) string {
	t.Helper()
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(doc), &root); err != nil {
		t.Fatal(err)
	}
	errs := validateYAMLSchema(kind, &root)
	if len(errs) == 0 {
		return ""
	}
	return formatSchemaErrors(kind+".yaml", errs)
}

func TestStrategySchemaAcceptsFixture(t *testing.T) {
	if got := schemaErrorsFor(t, "strategy", strategyFixture); got != "" {
		t.Fatalf("fixture rejected:\n%s", got)
	}
}

func TestStrategySchemaReportsLines(t *testing.T) {
	doc := `schema_version: "1.0"
strategy_id: s1
pillars:
  A: { score: 50, colour: red }
  Q: {}
competitors:
  - name: X
`
	got := schemaErrorsFor(t, "strategy", doc)
	for _, want := range []string{
		"field strategy.brand: missing required field",
		"line 4 field strategy.pillars.A.colour: unknown field",
		"line 5 field strategy.pillars.Q: unknown field",
		"field strategy.competitors[0].threat: missing required field",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestParseStrategyRejectsLowerCasePillarKeys(t *testing.T) {
	doc := `schema_version: "1.0"
strategy_id: s1
brand: Acme
pillars:
  a: { score: 50 }
`
	_, err := ParseStrategy("strategy.yaml", []byte(doc))
	if err == nil || !strings.Contains(err.Error(), "line 5 field strategy.pillars.a: unknown field") {
		t.Fatalf("pillar keys are exact upper-case letters, got %v", err)
	}
}

func TestStrategySchemaDuplicateKey(t *testing.T) {
	doc := `schema_version: "1.0"
strategy_id: s1
brand: b
brand: c
pillars: {}
`
	got := schemaErrorsFor(t, "strategy", doc)
	if !strings.Contains(got, "line 4 field strategy.brand: duplicate key (already defined at line 3)") {
		t.Fatalf("unexpected: %s", got)
	}
}

func TestStrategySchemaListShape(t *testing.T) {
	doc := `schema_version: "1.0"
strategy_id: s1
brand: b
pillars: {}
signals: { title: nope }
`
	if got := schemaErrorsFor(t, "strategy", doc); !strings.Contains(got, "strategy.signals: must be a sequence/array") {
		t.Fatalf("unexpected: %s", got)
	}
}

func TestPolicySchema(t *testing.T) {
	ok := `schema_version: "1.0"
thresholds: { excellent: 85, good: 65, average: 45, weak: 25 }
donut: { size: 240, margin: 6, inner_ratio: 0.55, gap: 0 }
radar: { size: 300, padding: 40, label_offset: 12, magnitude_floor: 5, max_axes: 6 }
rules:
  - rule_id: r1
    enabled: true
    then: { add_recommended_step_ids: [BOOK_CLIENT_REVIEW] }
`
	if got := schemaErrorsFor(t, "policy", ok); got != "" {
		t.Fatalf("valid policy rejected:\n%s", got)
	}

	bad := `schema_version: "1.0"
thresholds: { excellent: 85, good: 65 }
rules:
  - rule_id: r1
    when: { stage: merge }
`
	got := schemaErrorsFor(t, "policy", bad)
	for _, want := range []string{
		"policy.thresholds.average: missing required field",
		"policy.rules[0].enabled: missing required field",
		"policy.rules[0].when.stage: unknown field",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestParsePolicyMergesOverDefaults(t *testing.T) {
	pol, err := ParsePolicy("policy.yaml", []byte(`schema_version: "1.0"
donut: { size: 240, margin: 6, inner_ratio: 0.55, gap: 0 }
`))
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultPolicy()
	if pol.Thresholds != def.Thresholds {
		t.Fatalf("thresholds should keep defaults, got %+v", pol.Thresholds)
	}
	if pol.Donut.Gap != 0 || pol.Donut.Size != 240 {
		t.Fatalf("donut section not applied: %+v", pol.Donut)
	}
	if len(pol.Donut.Palette) != len(def.Donut.Palette) {
		t.Fatalf("palette should fall back to defaults, got %v", pol.Donut.Palette)
	}
	if pol.Radar.MaxAxes != def.Radar.MaxAxes {
		t.Fatalf("radar should keep defaults, got %+v", pol.Radar)
	}
	if errs := validatePolicy(pol); len(errs) != 0 {
		t.Fatalf("merged policy invalid: %v", errs)
	}
}

func TestYAMLRejectsNonFiniteScores(t *testing.T) {
	doc := strings.Replace(strategyFixture, "score: 85", "score: .nan", 1)
	if _, err := ParseStrategy("strategy.yaml", []byte(doc)); err == nil {
		t.Fatal("expected NaN score to be rejected")
	}
}
