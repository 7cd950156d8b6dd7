package cockpit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solardome/strategy-cockpit/internal/pillar"
	"gopkg.in/yaml.v3"
)

type schemaError struct {
	Path    string
	Line    int
	Message string
}

func (e schemaError) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d field %s: %s", e.Line, e.Path, e.Message)
	}
	return fmt.Sprintf("field %s: %s", e.Path, e.Message)
}

func formatSchemaErrors(name string, errs []schemaError) string {
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Line != errs[j].Line {
			return errs[i].Line < errs[j].Line
		}
		if errs[i].Path != errs[j].Path {
			return errs[i].Path < errs[j].Path
		}
		return errs[i].Message < errs[j].Message
	})
	var b strings.Builder
	b.WriteString("schema validation failed for ")
	b.WriteString(name)
	for _, e := range errs {
		b.WriteString("\n- ")
		b.WriteString(e.String())
	}
	return b.String()
}

func validateYAMLSchema(kind string, root *yaml.Node) []schemaError {
	if root == nil || len(root.Content) == 0 {
		return []schemaError{{Path: kind, Line: 0, Message: "empty YAML document"}}
	}
	node := root.Content[0]
	switch kind {
	case "strategy":
		return validateStrategyYAML(node)
	case "policy":
		return validatePolicyYAML(node)
	default:
		return nil
	}
}

var (
	pillarFields      = []string{"score", "summary", "items", "actions", "milestones", "raw", "internal"}
	competitorFields  = []string{"name", "threat", "share", "internal"}
	opportunityFields = []string{"title", "impact", "status", "internal"}
	budgetTierFields  = []string{"label", "amount", "currency"}
	decisionFields    = []string{"title", "status", "priority", "due"}
	signalFields      = []string{"title", "category", "strength", "source"}
	briefFields       = []string{"title", "kind", "url", "internal"}
)

func validateStrategyYAML(node *yaml.Node) []schemaError {
	errList := []schemaError{}
	allowed := []string{"schema_version", "strategy_id", "brand", "sector", "updated_at", "pillars", "competitors", "opportunities", "budget_tiers", "decisions", "signals", "briefs"}
	required := []string{"schema_version", "strategy_id", "brand", "pillars"}
	m := validateMapNode(node, "strategy", allowed, required, &errList)

	if v, ok := m["pillars"]; ok {
		p := validateMapNode(v, "strategy.pillars", pillar.Keys(), nil, &errList)
		for _, key := range pillar.Keys() {
			if pv, ok := p[key]; ok {
				validateMapNode(pv, "strategy.pillars."+key, pillarFields, nil, &errList)
			}
		}
	}
	lists := []struct {
		key      string
		allowed  []string
		required []string
	}{
		{"competitors", competitorFields, []string{"name", "threat"}},
		{"opportunities", opportunityFields, []string{"title"}},
		{"budget_tiers", budgetTierFields, []string{"label", "amount"}},
		{"decisions", decisionFields, []string{"title", "status"}},
		{"signals", signalFields, []string{"title", "category"}},
		{"briefs", briefFields, []string{"title"}},
	}
	for _, l := range lists {
		v, ok := m[l.key]
		if !ok {
			continue
		}
		seq := validateSequenceNode(v, "strategy."+l.key, &errList)
		for i, item := range seq {
			validateMapNode(item, fmt.Sprintf("strategy.%s[%d]", l.key, i), l.allowed, l.required, &errList)
		}
	}
	return errList
}

func validatePolicyYAML(node *yaml.Node) []schemaError {
	errList := []schemaError{}
	m := validateMapNode(node, "policy", []string{"schema_version", "thresholds", "donut", "radar", "rules"}, []string{"schema_version"}, &errList)
	if v, ok := m["thresholds"]; ok {
		keys := []string{"excellent", "good", "average", "weak"}
		validateMapNode(v, "policy.thresholds", keys, keys, &errList)
	}
	if v, ok := m["donut"]; ok {
		validateMapNode(v, "policy.donut", []string{"size", "margin", "inner_ratio", "gap", "palette"}, []string{"size", "margin", "inner_ratio", "gap"}, &errList)
	}
	if v, ok := m["radar"]; ok {
		keys := []string{"size", "padding", "label_offset", "magnitude_floor", "max_axes"}
		validateMapNode(v, "policy.radar", keys, keys, &errList)
	}
	if v, ok := m["rules"]; ok {
		seq := validateSequenceNode(v, "policy.rules", &errList)
		for i, item := range seq {
			r := validateMapNode(item, fmt.Sprintf("policy.rules[%d]", i), []string{"rule_id", "enabled", "when", "then"}, []string{"rule_id", "enabled", "then"}, &errList)
			if w, ok := r["when"]; ok {
				validateMapNode(w, fmt.Sprintf("policy.rules[%d].when", i), []string{"views", "pillars", "bands"}, nil, &errList)
			}
			if th, ok := r["then"]; ok {
				validateMapNode(th, fmt.Sprintf("policy.rules[%d].then", i), []string{"add_recommended_step_ids"}, []string{"add_recommended_step_ids"}, &errList)
			}
		}
	}
	return errList
}

func validateMapNode(node *yaml.Node, path string, allowed, required []string, errs *[]schemaError) map[string]*yaml.Node {
	result := map[string]*yaml.Node{}
	if node == nil {
		*errs = append(*errs, schemaError{Path: path, Line: 0, Message: "missing object"})
		return result
	}
	if node.Kind != yaml.MappingNode {
		*errs = append(*errs, schemaError{Path: path, Line: node.Line, Message: "must be a mapping/object"})
		return result
	}
	allowedSet := map[string]bool{}
	for _, a := range allowed {
		allowedSet[a] = true
	}
	seen := map[string]int{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k := node.Content[i]
		v := node.Content[i+1]
		key := k.Value
		if prevLine, ok := seen[key]; ok {
			*errs = append(*errs, schemaError{Path: path + "." + key, Line: k.Line, Message: fmt.Sprintf("duplicate key (already defined at line %d)", prevLine)})
			continue
		}
		seen[key] = k.Line
		if !allowedSet[key] {
			*errs = append(*errs, schemaError{Path: path + "." + key, Line: k.Line, Message: "unknown field"})
		}
		result[key] = v
	}
	for _, req := range required {
		if _, ok := result[req]; !ok {
			*errs = append(*errs, schemaError{Path: path + "." + req, Line: node.Line, Message: "missing required field"})
		}
	}
	return result
}

func validateSequenceNode(node *yaml.Node, path string, errs *[]schemaError) []*yaml.Node {
	if node == nil {
		*errs = append(*errs, schemaError{Path: path, Line: 0, Message: "missing sequence"})
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		*errs = append(*errs, schemaError{Path: path, Line: node.Line, Message: "must be a sequence/array"})
		return nil
	}
	return node.Content
}
