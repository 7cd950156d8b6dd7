package cockpit

import (
	"github.com/solardome/strategy-cockpit/internal/chart"
	"github.com/solardome/strategy-cockpit/internal/pillar"
	"github.com/solardome/strategy-cockpit/internal/scoring"
	"go.uber.org/zap"
)

const (
	ViewClient   = "client"
	ViewInternal = "internal"
)

const schemaVersion = "1.0"

type Config struct {
	StrategyPath  string
	PolicyPath    string
	View          string
	OutJSONPath   string
	OutHTMLPath   string
	ChecksumsPath string
	RunLogPath    string
	WriteHTML     bool
	Logger        *zap.Logger
}

type Strategy struct {
	SchemaVersion string                 `json:"schema_version"`
	StrategyID    string                 `json:"strategy_id"`
	Brand         string                 `json:"brand"`
	Sector        string                 `json:"sector"`
	UpdatedAt     string                 `json:"updated_at"`
	Pillars       map[string]PillarInput `json:"pillars"`
	Competitors   []Competitor           `json:"competitors"`
	Opportunities []Opportunity          `json:"opportunities"`
	BudgetTiers   []BudgetTier           `json:"budget_tiers"`
	Decisions     []Decision             `json:"decisions"`
	Signals       []Signal               `json:"signals"`
	Briefs        []Brief                `json:"briefs"`
}

type PillarInput struct {
	Score      *float64 `json:"score"`
	Summary    string   `json:"summary"`
	Items      []string `json:"items"`
	Actions    []string `json:"actions"`
	Milestones []string `json:"milestones"`
	Raw        string   `json:"raw"`
	Internal   bool     `json:"internal"`
}

type Competitor struct {
	Name     string  `json:"name"`
	Threat   float64 `json:"threat"`
	Share    float64 `json:"share"`
	Internal bool    `json:"internal,omitempty"`
}

type Opportunity struct {
	Title    string  `json:"title"`
	Impact   float64 `json:"impact"`
	Status   string  `json:"status"`
	Internal bool    `json:"internal,omitempty"`
}

type BudgetTier struct {
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type Decision struct {
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Due      string `json:"due"`
}

type Signal struct {
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Strength float64 `json:"strength"`
	Source   string  `json:"source"`
}

type Brief struct {
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	URL      string `json:"url"`
	Internal bool   `json:"internal,omitempty"`
}

type Policy struct {
	SchemaVersion string             `json:"schema_version"`
	Thresholds    scoring.Thresholds `json:"thresholds"`
	Donut         DonutPolicy        `json:"donut"`
	Radar         RadarPolicy        `json:"radar"`
	Rules         []PolicyRule       `json:"rules"`
}

type DonutPolicy struct {
	Size       float64  `json:"size"`
	Margin     float64  `json:"margin"`
	InnerRatio float64  `json:"inner_ratio"`
	Gap        float64  `json:"gap"`
	Palette    []string `json:"palette"`
}

type RadarPolicy struct {
	Size           float64 `json:"size"`
	Padding        float64 `json:"padding"`
	LabelOffset    float64 `json:"label_offset"`
	MagnitudeFloor float64 `json:"magnitude_floor"`
	MaxAxes        int     `json:"max_axes"`
}

type PolicyRule struct {
	RuleID  string   `json:"rule_id"`
	Enabled bool     `json:"enabled"`
	When    RuleWhen `json:"when"`
	Then    RuleThen `json:"then"`
}

type RuleWhen struct {
	Views   []string `json:"views"`
	Pillars []string `json:"pillars"`
	Bands   []string `json:"bands"`
}

type RuleThen struct {
	AddRecommendedStepIDs []string `json:"add_recommended_step_ids"`
}

type EngineState struct {
	View               string
	Strategy           Strategy
	Policy             Policy
	InputDigests       []InputDigest
	ValidationErrors   []string
	ValidationWarnings []string
	StrategyInvalid    bool
	PolicyInvalid      bool
	Pillars            []PillarView
	Overall            *scoring.Classification
	Charts             []ChartView
	Hidden             map[string]int
	RecommendedSteps   []RecommendedStep
	Trace              []TraceEntry
}

type InputDigest struct {
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	ReadOK bool   `json:"read_ok"`
}

type PillarView struct {
	Key            pillar.Key              `json:"key"`
	Name           string                  `json:"name"`
	Inverted       bool                    `json:"inverted,omitempty"`
	Scored         bool                    `json:"scored"`
	Classification *scoring.Classification `json:"classification,omitempty"`
	VariantKind    string                  `json:"variant_kind"`
	Variant        pillar.Variant          `json:"variant"`
}

type ChartView struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Kind  string            `json:"kind"`
	Donut *chart.Donut      `json:"donut,omitempty"`
	Radar chart.RadarLayout `json:"radar,omitempty"`
	SVG   string            `json:"svg"`
}

type RecommendedStep struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
	Text     string `json:"text"`
}

type TraceEntry struct {
	Order   int                    `json:"order"`
	Phase   string                 `json:"phase"`
	Result  string                 `json:"result"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type StrategyMeta struct {
	ID        string `json:"id"`
	Brand     string `json:"brand"`
	Sector    string `json:"sector,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type Report struct {
	SchemaVersion      string                 `json:"schema_version"`
	GeneratedAt        string                 `json:"generated_at"`
	RunID              string                 `json:"run_id"`
	View               string                 `json:"view"`
	Inputs             []InputDigest          `json:"inputs"`
	Strategy           StrategyMeta           `json:"strategy"`
	Overall            *scoring.Classification `json:"overall,omitempty"`
	Pillars            []PillarView           `json:"pillars"`
	Charts             []ChartView            `json:"charts"`
	Competitors        []Competitor           `json:"competitors"`
	Opportunities      []Opportunity          `json:"opportunities"`
	BudgetTiers        []BudgetTier           `json:"budget_tiers,omitempty"`
	Decisions          []Decision             `json:"decisions,omitempty"`
	Signals            []Signal               `json:"signals,omitempty"`
	Briefs             []Brief                `json:"briefs"`
	Hidden             map[string]int         `json:"hidden,omitempty"`
	RecommendedSteps   []RecommendedStep      `json:"recommended_next_steps"`
	ValidationErrors   []string               `json:"validation_errors"`
	ValidationWarnings []string               `json:"validation_warnings"`
	Trace              []TraceEntry           `json:"trace"`
}
