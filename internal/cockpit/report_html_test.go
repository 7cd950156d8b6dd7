package cockpit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderHTMLEscapesAndEmbedsCharts(t *testing.T) {
	report := Build(mustParseStrategy(t), DefaultPolicy(), ViewInternal, nil)
	page := RenderHTML(report)

	if !strings.Contains(page, "Acme &lt;Coffee&gt;") {
		t.Fatal("brand not escaped in page")
	}
	if strings.Contains(page, "Acme <Coffee>") {
		t.Fatal("raw brand markup leaked into page")
	}
	for _, id := range []string{"chart-pillar_profile", "chart-competitor_threat", "chart-budget_split"} {
		if !strings.Contains(page, `id="`+id+`"`) {
			t.Fatalf("missing figure %s", id)
		}
	}
	if strings.Count(page, "<svg ") != len(report.Charts) {
		t.Fatalf("expected one svg per chart (%d)", len(report.Charts))
	}
	if !strings.Contains(page, "Pick agency") {
		t.Fatal("internal page should list decisions")
	}
	if !strings.Contains(page, "(risque)") {
		t.Fatal("risk pillar badge should be marked as inverted")
	}
}

func TestRenderHTMLStepsInReportOrder(t *testing.T) {
	report := Report{
		View: ViewClient,
		RecommendedSteps: []RecommendedStep{
			{ID: "OMEGA", Priority: 10, Text: "o"},
			{ID: "ALPHA", Priority: 20, Text: "a"},
		},
	}
	page := RenderHTML(report)
	i1 := strings.Index(page, ">OMEGA<")
	i2 := strings.Index(page, ">ALPHA<")
	if i1 == -1 || i2 == -1 || i1 > i2 {
		t.Fatalf("steps out of order: %d %d", i1, i2)
	}
	if !strings.Contains(page, "<div class=\"v\">-</div>") {
		t.Fatal("missing overall score should render as a dash")
	}
}

func TestRenderHTMLSkipsUnsafeBriefLinks(t *testing.T) {
	report := Report{
		View:   ViewClient,
		Briefs: []Brief{{Title: "bad", URL: "javascript:alert(1)"}, {Title: "good", URL: "https://example.com"}},
		Hidden: map[string]int{"signals": 2, "budget_tiers": 1},
	}
	page := RenderHTML(report)
	if strings.Contains(page, "javascript:") {
		t.Fatal("unsafe link rendered")
	}
	if !strings.Contains(page, `href="https://example.com"`) {
		t.Fatal("safe link missing")
	}
	if !strings.Contains(page, "budget_tiers: 1, signals: 2") {
		t.Fatal("hidden counts should be listed in key order")
	}
}

func TestWriteReportHTMLCreatesDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "report.html")
	if err := writeReportHTML(out, Report{View: ViewClient}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}
