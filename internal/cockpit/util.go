package cockpit

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/solardome/strategy-cockpit/internal/chart"
	enginepolicy "github.com/solardome/strategy-cockpit/internal/policy"
	"github.com/solardome/strategy-cockpit/internal/pillar"
	enginereport "github.com/solardome/strategy-cockpit/internal/report"
	"github.com/solardome/strategy-cockpit/internal/scoring"

	"gopkg.in/yaml.v3"
)

func normalizeToken(s string) string {
	t := strings.TrimSpace(strings.ToLower(s))
	if t == "" {
		return "unknown"
	}
	return t
}

// NormalizeView maps anything that is not "internal" to the client view.
func NormalizeView(v string) string {
	if normalizeToken(v) == ViewInternal {
		return ViewInternal
	}
	return ViewClient
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func readFileDigest(path string) (string, []byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return enginereport.SHA256Hex(b), b, nil
}

// decodeYAML validates b against the schema for kind and decodes it into out.
// The document goes through a JSON round trip so the json tags on the
// target types are the single source of field names.
func decodeYAML(name, kind string, b []byte, out interface{}) error {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	schemaErrs := validateYAMLSchema(kind, &root)
	if len(schemaErrs) > 0 {
		return errors.New(formatSchemaErrors(name, schemaErrs))
	}
	normalized := yamlNodeToValue(root.Content[0])
	j, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", name, err)
	}
	if err := json.Unmarshal(j, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func yamlNodeToValue(node *yaml.Node) interface{} {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil
		}
		return yamlNodeToValue(node.Content[0])
	case yaml.AliasNode:
		return yamlNodeToValue(node.Alias)
	case yaml.MappingNode:
		m := make(map[string]interface{}, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			m[node.Content[i].Value] = yamlNodeToValue(node.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(node.Content))
		for _, c := range node.Content {
			out = append(out, yamlNodeToValue(c))
		}
		return out
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!bool":
			return strings.EqualFold(node.Value, "true")
		case "!!int":
			var i int64
			if _, err := fmt.Sscan(node.Value, &i); err == nil {
				return i
			}
			return node.Value
		case "!!float":
			var f float64
			if _, err := fmt.Sscan(node.Value, &f); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return f
			}
			return node.Value
		case "!!null":
			return nil
		default:
			return node.Value
		}
	default:
		return node.Value
	}
}

func stableRunID(inputs []InputDigest, view string) string {
	parts := make([]string, 0, len(inputs)+1)
	for _, in := range inputs {
		parts = append(parts, in.Kind+":"+in.Path+":"+in.SHA256)
	}
	parts = append(parts, "view:"+view)
	sort.Strings(parts)
	return enginereport.SHA256Hex([]byte(strings.Join(parts, "|")))
}

func addTrace(state *EngineState, phase, result string, details map[string]interface{}) {
	state.Trace = append(state.Trace, TraceEntry{
		Order:   len(state.Trace) + 1,
		Phase:   phase,
		Result:  result,
		Details: details,
	})
}

func defaultPolicy() Policy {
	d := chart.DefaultDonutOptions()
	r := chart.DefaultRadarOptions()
	return Policy{
		SchemaVersion: schemaVersion,
		Thresholds:    scoring.DefaultThresholds(),
		Donut: DonutPolicy{
			Size:       d.Size,
			Margin:     d.Margin,
			InnerRatio: d.InnerRatio,
			Gap:        d.Gap,
			Palette:    append([]string{}, d.Palette...),
		},
		Radar: RadarPolicy{
			Size:           r.Size,
			Padding:        r.Padding,
			LabelOffset:    r.LabelOffset,
			MagnitudeFloor: r.MagnitudeFloor,
			MaxAxes:        8,
		},
	}
}

// DefaultPolicy is the policy used when no policy file is supplied.
func DefaultPolicy() Policy { return defaultPolicy() }

// policyFile is the on-disk policy shape; nil sections keep the defaults.
type policyFile struct {
	SchemaVersion string              `json:"schema_version"`
	Thresholds    *scoring.Thresholds `json:"thresholds"`
	Donut         *DonutPolicy        `json:"donut"`
	Radar         *RadarPolicy        `json:"radar"`
	Rules         []PolicyRule        `json:"rules"`
}

func mergePolicy(base Policy, in policyFile) Policy {
	out := base
	out.SchemaVersion = in.SchemaVersion
	if in.Thresholds != nil {
		out.Thresholds = *in.Thresholds
	}
	if in.Donut != nil {
		palette := out.Donut.Palette
		out.Donut = *in.Donut
		if len(out.Donut.Palette) == 0 {
			out.Donut.Palette = palette
		}
	}
	if in.Radar != nil {
		out.Radar = *in.Radar
	}
	out.Rules = in.Rules
	return out
}

func (p Policy) DonutOptions() chart.DonutOptions {
	return chart.DonutOptions{
		Size:       p.Donut.Size,
		Margin:     p.Donut.Margin,
		InnerRatio: p.Donut.InnerRatio,
		Gap:        p.Donut.Gap,
		Palette:    chart.Palette(p.Donut.Palette),
	}
}

func (p Policy) RadarOptions() chart.RadarOptions {
	o := chart.DefaultRadarOptions()
	o.Size = p.Radar.Size
	o.Padding = p.Radar.Padding
	o.LabelOffset = p.Radar.LabelOffset
	o.MagnitudeFloor = p.Radar.MagnitudeFloor
	if len(p.Donut.Palette) > 0 {
		o.Palette = chart.Palette(p.Donut.Palette)
	}
	return o
}

func validatePolicy(p Policy) []string {
	var errs []string
	if p.SchemaVersion != schemaVersion {
		errs = append(errs, "unsupported policy schema_version")
	}
	if !p.Thresholds.Valid() || p.Thresholds.Excellent > 100 || p.Thresholds.Weak < 0 {
		errs = append(errs, "policy thresholds must be strictly descending within [0,100]")
	}
	if p.Donut.Size <= 0 {
		errs = append(errs, "policy donut.size must be positive")
	}
	if p.Donut.Margin < 0 || p.Donut.Margin*2 >= p.Donut.Size {
		errs = append(errs, "policy donut.margin must be within [0, size/2)")
	}
	if p.Donut.InnerRatio <= 0 || p.Donut.InnerRatio >= 1 {
		errs = append(errs, "policy donut.inner_ratio must be within (0,1)")
	}
	if p.Donut.Gap < 0 || p.Donut.Gap >= 0.5 {
		errs = append(errs, "policy donut.gap must be within [0,0.5)")
	}
	if p.Radar.Size <= 0 || p.Radar.Padding < 0 || p.Radar.Padding*2 >= p.Radar.Size {
		errs = append(errs, "policy radar size/padding invalid")
	}
	if p.Radar.MagnitudeFloor < 0 {
		errs = append(errs, "policy radar.magnitude_floor cannot be negative")
	}
	if p.Radar.MaxAxes < chart.MinRadarPoints {
		errs = append(errs, fmt.Sprintf("policy radar.max_axes must be at least %d", chart.MinRadarPoints))
	}
	errs = append(errs, enginepolicy.ValidateRules(toPolicyRules(p.Rules), pillar.Keys())...)
	for _, r := range p.Rules {
		errs = append(errs, ruleStepErrors(r)...)
	}
	return errs
}

func ruleStepErrors(r PolicyRule) []string {
	var errs []string
	catalog := recommendedStepCatalog()
	for _, id := range r.Then.AddRecommendedStepIDs {
		if _, ok := catalog[id]; !ok {
			errs = append(errs, "rule "+r.RuleID+" references unknown step "+id)
		}
	}
	return errs
}

// usableRules keeps each rule that validates on its own. Only the first
// rule with a given id is kept.
func usableRules(rules []PolicyRule) []PolicyRule {
	out := []PolicyRule{}
	seen := map[string]bool{}
	for _, r := range rules {
		if seen[r.RuleID] {
			continue
		}
		if len(enginepolicy.ValidateRules(toPolicyRules([]PolicyRule{r}), pillar.Keys())) > 0 || len(ruleStepErrors(r)) > 0 {
			continue
		}
		seen[r.RuleID] = true
		out = append(out, r)
	}
	return out
}

func validateStrategy(s Strategy) ([]string, []string) {
	var errs, warns []string
	if s.SchemaVersion != schemaVersion {
		errs = append(errs, "unsupported strategy schema_version")
	}
	if strings.TrimSpace(s.StrategyID) == "" {
		errs = append(errs, "strategy_id is required")
	}
	if strings.TrimSpace(s.Brand) == "" {
		errs = append(errs, "brand is required")
	}
	keys := make([]string, 0, len(s.Pillars))
	for k := range s.Pillars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := s.Pillars[k]
		if p.Score != nil && (*p.Score < 0 || *p.Score > 100) {
			errs = append(errs, "pillar "+k+" score must be within [0,100]")
		}
	}
	if len(s.Pillars) < len(pillar.Order) {
		warns = append(warns, fmt.Sprintf("%d of %d pillars present", len(s.Pillars), len(pillar.Order)))
	}
	for i, c := range s.Competitors {
		if c.Threat < 0 || c.Share < 0 {
			errs = append(errs, fmt.Sprintf("competitors[%d] threat and share cannot be negative", i))
		}
	}
	for i, t := range s.BudgetTiers {
		if t.Amount < 0 {
			errs = append(errs, fmt.Sprintf("budget_tiers[%d] amount cannot be negative", i))
		}
	}
	for i, o := range s.Opportunities {
		if o.Impact < 0 || o.Impact > 100 {
			errs = append(errs, fmt.Sprintf("opportunities[%d] impact must be within [0,100]", i))
		}
	}
	for i, sig := range s.Signals {
		if sig.Strength < 0 {
			errs = append(errs, fmt.Sprintf("signals[%d] strength cannot be negative", i))
		}
	}
	return errs, warns
}

func toPolicyRules(in []PolicyRule) []enginepolicy.Rule {
	out := make([]enginepolicy.Rule, 0, len(in))
	for _, r := range in {
		out = append(out, enginepolicy.Rule{
			RuleID:  r.RuleID,
			Enabled: r.Enabled,
			When: enginepolicy.RuleWhen{
				Views:   append([]string{}, r.When.Views...),
				Pillars: append([]string{}, r.When.Pillars...),
				Bands:   append([]string{}, r.When.Bands...),
			},
			Then: enginepolicy.RuleThen{
				AddRecommendedStepIDs: append([]string{}, r.Then.AddRecommendedStepIDs...),
			},
		})
	}
	return out
}
