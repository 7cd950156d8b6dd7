package cockpit

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	enginepolicy "github.com/solardome/strategy-cockpit/internal/policy"
	"github.com/solardome/strategy-cockpit/internal/pillar"
	enginereport "github.com/solardome/strategy-cockpit/internal/report"
	"github.com/solardome/strategy-cockpit/internal/scoring"
)

// reproducibleTimestamp keeps report bytes stable across runs on the same inputs.
const reproducibleTimestamp = "1970-01-01T00:00:00Z"

func Run(cfg Config) (Report, error) {
	if strings.TrimSpace(cfg.OutJSONPath) == "" {
		cfg.OutJSONPath = "report.json"
	}
	if strings.TrimSpace(cfg.OutHTMLPath) == "" {
		cfg.OutHTMLPath = "report.html"
	}
	if strings.TrimSpace(cfg.ChecksumsPath) == "" {
		cfg.ChecksumsPath = DefaultChecksumsPath(cfg.OutJSONPath)
	}
	if strings.TrimSpace(cfg.RunLogPath) == "" {
		cfg.RunLogPath = DefaultRunLogPath(cfg.OutJSONPath)
	}
	console := cfg.Logger
	if console == nil {
		console = zap.NewNop()
	}

	log, logErr := newRunLog(cfg.RunLogPath)
	if logErr != nil {
		console.Warn("run log unavailable", zap.String("path", cfg.RunLogPath), zap.Error(logErr))
	}
	defer log.close()
	log.info("run.start",
		zap.String("strategy_path", cfg.StrategyPath),
		zap.String("policy_path", cfg.PolicyPath),
		zap.String("view", NormalizeView(cfg.View)),
		zap.String("out_json", cfg.OutJSONPath),
		zap.String("out_html", cfg.OutHTMLPath),
		zap.String("checksums", cfg.ChecksumsPath),
	)

	state := EngineState{View: NormalizeView(cfg.View)}
	if err := loadInputs(&state, cfg); err != nil {
		log.warn("run.load_inputs.error", zap.Error(err))
		return Report{}, err
	}
	log.info("run.load_inputs.ok",
		zap.Int("input_count", len(state.InputDigests)),
		zap.Int("validation_errors", len(state.ValidationErrors)),
		zap.Int("validation_warnings", len(state.ValidationWarnings)),
	)

	report := compose(&state)

	if err := enginereport.WriteJSON(cfg.OutJSONPath, report); err != nil {
		log.warn("run.report_json.error", zap.Error(err))
		return Report{}, err
	}
	artifactPaths := []string{cfg.OutJSONPath}
	htmlWritten := false
	if cfg.WriteHTML {
		if err := writeReportHTML(cfg.OutHTMLPath, report); err != nil {
			log.warn("run.report_html.error", zap.Error(err), zap.String("path", cfg.OutHTMLPath))
			console.Warn("html report not written", zap.Error(err))
		} else {
			htmlWritten = true
			artifactPaths = append(artifactPaths, cfg.OutHTMLPath)
		}
	}
	if err := enginereport.WriteChecksums(cfg.ChecksumsPath, artifactPaths); err != nil {
		log.warn("run.checksums.error", zap.Error(err))
		return Report{}, err
	}
	log.info("run.complete",
		zap.String("run_id", report.RunID),
		zap.String("view", report.View),
		zap.Int("pillars", len(report.Pillars)),
		zap.Int("charts", len(report.Charts)),
		zap.Int("validation_errors", len(report.ValidationErrors)),
		zap.Bool("html_written", htmlWritten),
	)
	console.Info("cockpit rendered",
		zap.String("run_id", report.RunID),
		zap.String("view", report.View),
		zap.String("report", cfg.OutJSONPath),
	)
	return report, nil
}

// Build composes a report from already-loaded documents.
func Build(doc Strategy, pol Policy, view string, inputs []InputDigest) Report {
	state := EngineState{
		View:         NormalizeView(view),
		Strategy:     doc,
		Policy:       pol,
		InputDigests: append([]InputDigest{}, inputs...),
	}
	validateLoaded(&state)
	return compose(&state)
}

func DefaultChecksumsPath(outJSONPath string) string {
	return enginereport.DefaultChecksumsPath(outJSONPath)
}

func DefaultRunLogPath(outJSONPath string) string {
	return enginereport.DefaultRunLogPath(outJSONPath)
}

func loadInputs(state *EngineState, cfg Config) error {
	if strings.TrimSpace(cfg.StrategyPath) == "" {
		return errors.New("--strategy is required")
	}

	doc, digest, err := LoadStrategy(cfg.StrategyPath)
	state.InputDigests = append(state.InputDigests, digest)
	if err != nil {
		return err
	}
	state.Strategy = doc

	state.Policy = defaultPolicy()
	if cfg.PolicyPath != "" {
		pol, digest, err := LoadPolicy(cfg.PolicyPath)
		state.InputDigests = append(state.InputDigests, digest)
		if err != nil {
			state.ValidationErrors = append(state.ValidationErrors, err.Error())
			state.PolicyInvalid = true
		} else {
			state.Policy = pol
		}
	}
	validateLoaded(state)
	return nil
}

// LoadStrategy reads and decodes a strategy document. The digest is
// returned even when decoding fails.
func LoadStrategy(path string) (Strategy, InputDigest, error) {
	hash, b, err := readFileDigest(path)
	digest := InputDigest{Kind: "strategy_yaml", Path: path, SHA256: hash, ReadOK: err == nil}
	if err != nil {
		return Strategy{}, digest, fmt.Errorf("strategy file unreadable %s: %w", path, err)
	}
	doc, err := ParseStrategy(path, b)
	if err != nil {
		return Strategy{}, digest, fmt.Errorf("strategy load failed: %w", err)
	}
	return doc, digest, nil
}

func ParseStrategy(name string, b []byte) (Strategy, error) {
	var doc Strategy
	if err := decodeYAML(name, "strategy", b, &doc); err != nil {
		return Strategy{}, err
	}
	return doc, nil
}

func LoadPolicy(path string) (Policy, InputDigest, error) {
	hash, b, err := readFileDigest(path)
	digest := InputDigest{Kind: "policy_yaml", Path: path, SHA256: hash, ReadOK: err == nil}
	if err != nil {
		return Policy{}, digest, fmt.Errorf("policy file unreadable %s: %w", path, err)
	}
	pol, err := ParsePolicy(path, b)
	if err != nil {
		return Policy{}, digest, fmt.Errorf("policy load failed: %w", err)
	}
	return pol, digest, nil
}

func ParsePolicy(name string, b []byte) (Policy, error) {
	var in policyFile
	if err := decodeYAML(name, "policy", b, &in); err != nil {
		return Policy{}, err
	}
	return mergePolicy(defaultPolicy(), in), nil
}

func validateLoaded(state *EngineState) {
	errs, warns := validateStrategy(state.Strategy)
	state.ValidationErrors = append(state.ValidationErrors, errs...)
	state.ValidationWarnings = append(state.ValidationWarnings, warns...)
	if len(errs) > 0 {
		state.StrategyInvalid = true
	}
	if polErrs := validatePolicy(state.Policy); len(polErrs) > 0 {
		state.ValidationErrors = append(state.ValidationErrors, polErrs...)
		state.PolicyInvalid = true
		// Fall back to default geometry but keep every rule that is valid
		// on its own.
		rules := usableRules(state.Policy.Rules)
		state.Policy = defaultPolicy()
		state.Policy.Rules = rules
	}
	addTrace(state, "input_validation", inputValidationTraceResult(state), map[string]interface{}{
		"input_count":   len(state.InputDigests),
		"error_count":   len(state.ValidationErrors),
		"warning_count": len(state.ValidationWarnings),
		"errors":        append([]string{}, state.ValidationErrors...),
		"warnings":      append([]string{}, state.ValidationWarnings...),
	})
}

func inputValidationTraceResult(state *EngineState) string {
	if len(state.ValidationErrors) > 0 {
		return "validation_error"
	}
	if len(state.ValidationWarnings) > 0 {
		return "validation_warn"
	}
	return "validation_ok"
}

func compose(state *EngineState) Report {
	buildPillars(state)
	scoreOverall(state)
	filtered := filterForView(state)
	buildCharts(state, filtered)

	ruleSteps := enginepolicy.ApplyRules(toPolicyRules(state.Policy.Rules), state.View, observedBands(state.Pillars))
	state.RecommendedSteps = collectRecommendedSteps(*state, filtered, ruleSteps)
	stepIDs := make([]string, 0, len(state.RecommendedSteps))
	for _, s := range state.RecommendedSteps {
		stepIDs = append(stepIDs, s.ID)
	}
	addTrace(state, "recommendations", "ok", map[string]interface{}{
		"rule_steps": ruleSteps,
		"steps":      stepIDs,
	})

	return buildReport(*state, filtered, stableRunID(state.InputDigests, state.View))
}

func buildPillars(state *EngineState) {
	th := state.Policy.Thresholds
	kinds := map[string]int{}
	state.Pillars = make([]PillarView, 0, len(pillar.Order))
	for _, def := range pillar.Order {
		in, ok := state.Strategy.Pillars[string(def.Key)]
		if ok && in.Internal && state.View == ViewClient {
			hide(state, "pillars")
			continue
		}
		v := PillarView{Key: def.Key, Name: def.Name, Inverted: def.Inverted}
		if ok && in.Score != nil {
			var cls scoring.Classification
			if def.Inverted {
				cls = th.ClassifyRisk(*in.Score)
			} else {
				cls = th.Classify(*in.Score)
			}
			v.Scored = true
			v.Classification = &cls
		}
		v.Variant = pillar.Select(pillar.Source{
			Summary:    in.Summary,
			Items:      in.Items,
			Actions:    in.Actions,
			Milestones: in.Milestones,
			Raw:        in.Raw,
		})
		v.VariantKind = v.Variant.Kind()
		kinds[v.VariantKind]++
		state.Pillars = append(state.Pillars, v)
	}
	addTrace(state, "pillar_variants", "ok", map[string]interface{}{
		"pillars":  len(state.Pillars),
		"variants": kinds,
	})
}

// effectiveScore orients every pillar so that higher is better.
func effectiveScore(p PillarView) float64 {
	if p.Inverted {
		return 100 - p.Classification.Score
	}
	return p.Classification.Score
}

func scoreOverall(state *EngineState) {
	values := []float64{}
	for _, p := range state.Pillars {
		if p.Scored {
			values = append(values, effectiveScore(p))
		}
	}
	if len(values) == 0 {
		state.Overall = nil
		addTrace(state, "scoring", "no_scores", nil)
		return
	}
	cls := state.Policy.Thresholds.Classify(scoring.Mean(values))
	state.Overall = &cls
	addTrace(state, "scoring", "ok", map[string]interface{}{
		"scored_pillars": len(values),
		"overall":        cls.Display(),
		"band":           string(cls.Band),
	})
}

func observedBands(pillars []PillarView) []enginepolicy.PillarBand {
	out := []enginepolicy.PillarBand{}
	for _, p := range pillars {
		if p.Scored {
			out = append(out, enginepolicy.PillarBand{Key: string(p.Key), Band: string(p.Classification.Band)})
		}
	}
	return out
}

func collectRecommendedSteps(state EngineState, f filteredSections, ruleStepIDs []string) []RecommendedStep {
	catalog := recommendedStepCatalog()
	set := map[string]bool{}
	if state.StrategyInvalid {
		set["FIX_STRATEGY_FILE"] = true
	}
	if state.PolicyInvalid {
		set["VALIDATE_POLICY_FILE"] = true
	}
	for _, p := range state.Pillars {
		if p.VariantKind == "empty" {
			set["COMPLETE_PILLAR_CONTENT"] = true
		}
		if !p.Scored {
			continue
		}
		rank := p.Classification.Band.Rank()
		if p.Inverted && rank >= scoring.BandWeak.Rank() {
			set["MITIGATE_BRAND_RISK"] = true
		} else if !p.Inverted && rank > scoring.BandAverage.Rank() {
			set["STRENGTHEN_WEAK_PILLARS"] = true
		}
	}
	if state.View == ViewInternal {
		for _, d := range f.Decisions {
			if isOpenDecision(d.Status) {
				set["CLEAR_DECISION_QUEUE"] = true
				break
			}
		}
		for _, s := range f.Signals {
			if s.Strength >= 70 {
				set["REVIEW_STRONG_SIGNALS"] = true
				break
			}
		}
	}
	if len(f.Competitors) < 3 {
		set["EXPAND_COMPETITOR_WATCH"] = true
	}
	for _, s := range ruleStepIDs {
		set[s] = true
	}

	steps := make([]RecommendedStep, 0, len(set))
	for id := range set {
		if c, ok := catalog[id]; ok {
			steps = append(steps, c)
		}
	}
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Priority != steps[j].Priority {
			return steps[i].Priority < steps[j].Priority
		}
		return steps[i].ID < steps[j].ID
	})
	return steps
}

func isOpenDecision(status string) bool {
	switch normalizeToken(status) {
	case "done", "decided", "closed", "rejected":
		return false
	default:
		return true
	}
}

func buildReport(state EngineState, f filteredSections, runID string) Report {
	report := Report{
		SchemaVersion: schemaVersion,
		GeneratedAt:   firstNonEmpty(state.Strategy.UpdatedAt, reproducibleTimestamp),
		RunID:         runID,
		View:          state.View,
		Inputs:        nonNilDigests(state.InputDigests),
		Strategy: StrategyMeta{
			ID:        state.Strategy.StrategyID,
			Brand:     state.Strategy.Brand,
			Sector:    state.Strategy.Sector,
			UpdatedAt: state.Strategy.UpdatedAt,
		},
		Overall:            state.Overall,
		Pillars:            state.Pillars,
		Charts:             state.Charts,
		Competitors:        f.Competitors,
		Opportunities:      f.Opportunities,
		Briefs:             f.Briefs,
		Hidden:             state.Hidden,
		RecommendedSteps:   state.RecommendedSteps,
		ValidationErrors:   nonNilStrings(state.ValidationErrors),
		ValidationWarnings: nonNilStrings(state.ValidationWarnings),
		Trace:              state.Trace,
	}
	if state.View == ViewInternal {
		report.BudgetTiers = f.BudgetTiers
		report.Decisions = f.Decisions
		report.Signals = f.Signals
	}
	return report
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilDigests(in []InputDigest) []InputDigest {
	if in == nil {
		return []InputDigest{}
	}
	return in
}
