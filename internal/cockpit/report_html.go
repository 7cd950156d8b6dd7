package cockpit

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/solardome/strategy-cockpit/internal/pillar"
	"github.com/solardome/strategy-cockpit/internal/scoring"
)

func writeReportHTML(path string, report Report) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil && dir != "." {
		return err
	}
	return os.WriteFile(path, []byte(RenderHTML(report)), 0o644)
}

// RenderHTML renders the cockpit page for report. The output depends only on
// the report, so the same report always yields the same bytes.
func RenderHTML(report Report) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html lang=\"fr\"><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width,initial-scale=1\">")
	fmt.Fprintf(&b, "<title>%s · cockpit stratégique</title>", esc(firstNonEmpty(report.Strategy.Brand, "strategy")))
	b.WriteString(`<script>(function(){try{var k='cockpit_theme';var t=localStorage.getItem(k);if(t!=='light'&&t!=='dark'){t=(window.matchMedia&&window.matchMedia('(prefers-color-scheme: dark)').matches)?'dark':'light'}document.documentElement.setAttribute('data-theme',t);}catch(_){document.documentElement.setAttribute('data-theme','light');}})();</script>`)
	b.WriteString(`<style>
:root {
  --bg: #f4f6fb;
  --panel: #ffffff;
  --panel-2: #f7f9fd;
  --ink: #101828;
  --muted: #516079;
  --line: #dbe2ee;
  --chip: #eef2f9;
  --brand: #1f4f99;
  --shadow: 0 14px 28px -24px rgba(16, 24, 40, 0.4);
  --chart-stroke: #1f4f99;
  --radius: 14px;
}
:root[data-theme="dark"] {
  --bg: #0a101c;
  --panel: #111a2b;
  --panel-2: #0d1524;
  --ink: #e6eefc;
  --muted: #97a8c4;
  --line: #25344f;
  --chip: #16223a;
  --brand: #86b7ff;
  --shadow: 0 18px 30px -24px rgba(0, 0, 0, 0.9);
  --chart-stroke: #86b7ff;
}
* { box-sizing: border-box; }
body {
  margin: 0;
  background: var(--bg);
  color: var(--ink);
  font-family: "IBM Plex Sans", "Source Sans 3", "Segoe UI", system-ui, sans-serif;
  line-height: 1.5;
}
.shell { max-width: 1200px; margin: 0 auto; padding: 22px; }
.hero, .card {
  background: var(--panel);
  border: 1px solid var(--line);
  border-radius: var(--radius);
  box-shadow: var(--shadow);
  padding: 16px;
}
.hero { display: flex; justify-content: space-between; gap: 16px; align-items: flex-start; }
.hero h1 { margin: 0; color: var(--brand); font-size: 1.5rem; }
.meta { color: var(--muted); font-size: 0.9rem; }
.mono { font-family: "IBM Plex Mono", ui-monospace, monospace; }
.overall { text-align: right; }
.overall .v { font-size: 2.4rem; font-weight: 700; }
.band {
  display: inline-block;
  border-radius: 999px;
  padding: 0.12rem 0.6rem;
  font-size: 0.8rem;
  font-weight: 700;
  color: #ffffff;
}
.theme-toggle {
  border: 1px solid var(--line);
  background: var(--chip);
  color: var(--ink);
  border-radius: 999px;
  padding: 0.2rem 0.7rem;
  cursor: pointer;
}
h2 { font-size: 1.1rem; margin: 0 0 10px; }
.section { margin-top: 16px; }
.pillars { display: grid; grid-template-columns: repeat(4, minmax(0, 1fr)); gap: 12px; }
.pillar .key { color: var(--muted); font-size: 0.78rem; text-transform: uppercase; }
.pillar .score { font-size: 1.6rem; font-weight: 700; }
.pillar ul { padding-left: 18px; margin: 6px 0 0; }
.pillar pre { white-space: pre-wrap; margin: 6px 0 0; font-size: 0.85rem; }
.pillar .empty { color: var(--muted); font-style: italic; }
.charts { display: grid; grid-template-columns: repeat(2, minmax(0, 1fr)); gap: 12px; }
.chart svg { width: 100%; height: auto; max-height: 340px; }
.chart figcaption h3 { margin: 0 0 8px; font-size: 0.95rem; }
.chart-radar .radar-shape { stroke: var(--chart-stroke); }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid var(--line); font-size: 0.92rem; }
th { color: var(--muted); font-weight: 600; }
.steps li { margin-bottom: 4px; }
.notice { color: var(--muted); font-size: 0.88rem; }
.issues li { color: #b42318; }
.trace-item { border-left: 3px solid var(--line); padding-left: 10px; margin-bottom: 8px; }
.trace-item.trace-ok { border-color: #16a34a; }
.trace-item.trace-warn { border-color: #d97706; }
.trace-item.trace-error { border-color: #dc2626; }
.trace-detail pre { white-space: pre-wrap; overflow-wrap: anywhere; margin: 6px 0 0; font-size: 0.82rem; }
footer { margin-top: 16px; color: var(--muted); font-size: 0.85rem; text-align: center; }
@media (max-width: 960px) {
  .pillars { grid-template-columns: repeat(2, minmax(0, 1fr)); }
  .charts { grid-template-columns: 1fr; }
}
@media (max-width: 600px) {
  .shell { padding: 12px; }
  .hero { flex-direction: column; }
  .overall { text-align: left; }
  .pillars { grid-template-columns: 1fr; }
}
</style>`)
	b.WriteString("</head><body><main class=\"shell\">")

	renderHero(&b, report)
	renderIssues(&b, report)
	renderPillars(&b, report.Pillars)
	renderCharts(&b, report.Charts)
	renderSteps(&b, report.RecommendedSteps)
	renderCompetitors(&b, report.Competitors)
	renderOpportunities(&b, report.Opportunities)
	if report.View == ViewInternal {
		renderBudget(&b, report.BudgetTiers)
		renderDecisions(&b, report.Decisions)
		renderSignals(&b, report.Signals)
	}
	renderBriefs(&b, report.Briefs)
	renderHidden(&b, report.Hidden)
	renderTrace(&b, report.Trace)

	fmt.Fprintf(&b, "<footer>Vue <span class=\"mono\">%s</span> · run <span class=\"mono\">%s</span> · généré %s</footer>", esc(report.View), esc(shortID(report.RunID)), esc(report.GeneratedAt))
	b.WriteString("</main>")
	b.WriteString(`<script>(function(){var k='cockpit_theme';var btn=document.getElementById('theme-toggle');if(!btn){return}btn.addEventListener('click',function(){var r=document.documentElement;var t=r.getAttribute('data-theme')==='dark'?'light':'dark';r.setAttribute('data-theme',t);try{localStorage.setItem(k,t)}catch(_){}});})();</script>`)
	b.WriteString("</body></html>")
	return b.String()
}

func renderHero(b *strings.Builder, report Report) {
	b.WriteString("<section class=\"hero\"><div>")
	fmt.Fprintf(b, "<h1>%s</h1>", esc(firstNonEmpty(report.Strategy.Brand, report.Strategy.ID)))
	fmt.Fprintf(b, "<div class=\"meta\">Stratégie <span class=\"mono\">%s</span>", esc(report.Strategy.ID))
	if report.Strategy.Sector != "" {
		fmt.Fprintf(b, " · %s", esc(report.Strategy.Sector))
	}
	b.WriteString("</div>")
	if report.Strategy.UpdatedAt != "" {
		fmt.Fprintf(b, "<div class=\"meta\">Mise à jour %s</div>", esc(report.Strategy.UpdatedAt))
	}
	b.WriteString("<button id=\"theme-toggle\" class=\"theme-toggle\" type=\"button\">Thème</button></div>")
	b.WriteString("<div class=\"overall\"><div class=\"meta\">Score global</div>")
	if report.Overall != nil {
		fmt.Fprintf(b, "<div class=\"v\">%s</div>%s", esc(report.Overall.Display()), bandBadge(*report.Overall))
	} else {
		b.WriteString("<div class=\"v\">-</div>")
	}
	b.WriteString("</div></section>")
}

func renderIssues(b *strings.Builder, report Report) {
	if len(report.ValidationErrors) == 0 && len(report.ValidationWarnings) == 0 {
		return
	}
	b.WriteString("<section class=\"section card\"><h2>Contrôles d'entrée</h2><ul class=\"issues\">")
	for _, e := range report.ValidationErrors {
		fmt.Fprintf(b, "<li>%s</li>", esc(e))
	}
	b.WriteString("</ul><ul>")
	for _, w := range report.ValidationWarnings {
		fmt.Fprintf(b, "<li class=\"notice\">%s</li>", esc(w))
	}
	b.WriteString("</ul></section>")
}

func renderPillars(b *strings.Builder, pillars []PillarView) {
	b.WriteString("<section class=\"section\"><h2>Piliers</h2><div class=\"pillars\">")
	for _, p := range pillars {
		fmt.Fprintf(b, "<article class=\"card pillar\" data-pillar=\"%s\"><div class=\"key\">%s</div><h3>%s</h3>", esc(string(p.Key)), esc(string(p.Key)), esc(p.Name))
		if p.Classification != nil {
			fmt.Fprintf(b, "<div class=\"score\">%s</div>%s", esc(p.Classification.Display()), bandBadge(*p.Classification))
		} else {
			b.WriteString("<div class=\"score\">-</div>")
		}
		renderVariant(b, p.Variant)
		b.WriteString("</article>")
	}
	b.WriteString("</div></section>")
}

func renderVariant(b *strings.Builder, v pillar.Variant) {
	switch x := v.(type) {
	case pillar.ContentVariant:
		if x.Summary != "" {
			fmt.Fprintf(b, "<p>%s</p>", esc(x.Summary))
		}
		renderList(b, x.Items)
	case pillar.ImplementationVariant:
		if len(x.Actions) > 0 {
			b.WriteString("<div class=\"meta\">Actions</div>")
			renderList(b, x.Actions)
		}
		if len(x.Milestones) > 0 {
			b.WriteString("<div class=\"meta\">Jalons</div>")
			renderList(b, x.Milestones)
		}
	case pillar.RawVariant:
		fmt.Fprintf(b, "<pre>%s</pre>", esc(x.Text))
	default:
		b.WriteString("<p class=\"empty\">Contenu à compléter</p>")
	}
}

func renderList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("<ul>")
	for _, it := range items {
		fmt.Fprintf(b, "<li>%s</li>", esc(it))
	}
	b.WriteString("</ul>")
}

func renderCharts(b *strings.Builder, charts []ChartView) {
	if len(charts) == 0 {
		return
	}
	b.WriteString("<section class=\"section\"><h2>Graphiques</h2><div class=\"charts\">")
	for _, c := range charts {
		// SVG markup is produced by the chart package with every label escaped.
		fmt.Fprintf(b, "<figure class=\"card chart\" id=\"chart-%s\" data-kind=\"%s\"><figcaption><h3>%s</h3></figcaption>%s</figure>", esc(c.ID), esc(c.Kind), esc(c.Title), c.SVG)
	}
	b.WriteString("</div></section>")
}

func renderSteps(b *strings.Builder, steps []RecommendedStep) {
	b.WriteString("<section class=\"section card\"><h2>Prochaines étapes</h2>")
	if len(steps) == 0 {
		b.WriteString("<p class=\"notice\">Aucune action recommandée.</p></section>")
		return
	}
	b.WriteString("<ol class=\"steps\">")
	for _, s := range steps {
		fmt.Fprintf(b, "<li><span class=\"mono\">%s</span> %s</li>", esc(s.ID), esc(s.Text))
	}
	b.WriteString("</ol></section>")
}

func renderCompetitors(b *strings.Builder, competitors []Competitor) {
	rows := make([][]string, 0, len(competitors))
	for _, c := range competitors {
		rows = append(rows, []string{c.Name, formatNumber(c.Threat), formatNumber(c.Share)})
	}
	renderTable(b, "Concurrents", []string{"Nom", "Menace", "Part"}, rows)
}

func renderOpportunities(b *strings.Builder, opportunities []Opportunity) {
	rows := make([][]string, 0, len(opportunities))
	for _, o := range opportunities {
		rows = append(rows, []string{o.Title, formatNumber(o.Impact), o.Status})
	}
	renderTable(b, "Opportunités", []string{"Titre", "Impact", "Statut"}, rows)
}

func renderBudget(b *strings.Builder, tiers []BudgetTier) {
	rows := make([][]string, 0, len(tiers))
	for _, t := range tiers {
		rows = append(rows, []string{t.Label, strings.TrimSpace(formatNumber(t.Amount) + " " + t.Currency)})
	}
	renderTable(b, "Budget", []string{"Palier", "Montant"}, rows)
}

func renderDecisions(b *strings.Builder, decisions []Decision) {
	rows := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		rows = append(rows, []string{d.Title, d.Status, d.Priority, d.Due})
	}
	renderTable(b, "Décisions", []string{"Sujet", "Statut", "Priorité", "Échéance"}, rows)
}

func renderSignals(b *strings.Builder, signals []Signal) {
	rows := make([][]string, 0, len(signals))
	for _, s := range signals {
		rows = append(rows, []string{s.Title, s.Category, formatNumber(s.Strength), s.Source})
	}
	renderTable(b, "Signaux", []string{"Signal", "Catégorie", "Force", "Source"}, rows)
}

func renderBriefs(b *strings.Builder, briefs []Brief) {
	if len(briefs) == 0 {
		return
	}
	b.WriteString("<section class=\"section card\"><h2>Briefs</h2><ul>")
	for _, br := range briefs {
		if safeURL(br.URL) {
			fmt.Fprintf(b, "<li><a href=\"%s\" rel=\"noopener\">%s</a>", esc(br.URL), esc(br.Title))
		} else {
			fmt.Fprintf(b, "<li>%s", esc(br.Title))
		}
		if br.Kind != "" {
			fmt.Fprintf(b, " <span class=\"meta\">%s</span>", esc(br.Kind))
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul></section>")
}

func renderHidden(b *strings.Builder, hidden map[string]int) {
	if len(hidden) == 0 {
		return
	}
	keys := make([]string, 0, len(hidden))
	for k := range hidden {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, hidden[k]))
	}
	fmt.Fprintf(b, "<p class=\"section notice\">Éléments réservés à l'équipe interne masqués (%s).</p>", esc(strings.Join(parts, ", ")))
}

func renderTable(b *strings.Builder, title string, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(b, "<section class=\"section card\"><h2>%s</h2><table><thead><tr>", esc(title))
	for _, h := range headers {
		fmt.Fprintf(b, "<th>%s</th>", esc(h))
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(b, "<td>%s</td>", esc(cell))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table></section>")
}

func renderTrace(b *strings.Builder, trace []TraceEntry) {
	if len(trace) == 0 {
		return
	}
	b.WriteString("<section class=\"section card\"><details><summary><h2 style=\"display:inline\">Trace</h2></summary>")
	for _, t := range trace {
		tone := traceTone(t)
		fmt.Fprintf(b, "<div class=\"trace-item %s\"><strong>%d. %s</strong> <span class=\"meta\">%s</span>", tone, t.Order, esc(strings.ReplaceAll(t.Phase, "_", " ")), esc(t.Result))
		b.WriteString(renderTraceDetails(t.Details))
		b.WriteString("</div>")
	}
	b.WriteString("</details></section>")
}

func renderTraceDetails(details map[string]interface{}) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := fmt.Sprintf("%v", details[k])
		fmt.Fprintf(&b, `<details class="trace-detail"><summary><span class="mono">%s</span></summary><pre class="mono">%s</pre></details>`, esc(k), esc(v))
	}
	return b.String()
}

func traceTone(t TraceEntry) string {
	text := strings.ToLower(t.Result)
	switch {
	case strings.Contains(text, "error"):
		return "trace-error"
	case strings.Contains(text, "warn"), strings.Contains(text, "no_"):
		return "trace-warn"
	default:
		return "trace-ok"
	}
}

func bandBadge(c scoring.Classification) string {
	label := c.Label
	if c.Inverted {
		label += " (risque)"
	}
	return fmt.Sprintf("<span class=\"band band-%s\" style=\"background:%s\">%s</span>", esc(string(c.Band)), esc(c.Color), esc(label))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func safeURL(u string) bool {
	l := strings.ToLower(strings.TrimSpace(u))
	return strings.HasPrefix(l, "https://") || strings.HasPrefix(l, "http://")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func esc(s string) string {
	return html.EscapeString(s)
}
