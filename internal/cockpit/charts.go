package cockpit

import (
	"sort"

	"github.com/solardome/strategy-cockpit/internal/chart"
)

// pillarScale pins the pillar radar to the 0..100 score range.
const pillarScale = 100

func buildCharts(state *EngineState, f filteredSections) {
	donutOpts := state.Policy.DonutOptions()
	radarOpts := state.Policy.RadarOptions()

	pillarOpts := radarOpts
	pillarOpts.MagnitudeFloor = pillarScale
	state.Charts = []ChartView{
		radarChart("pillar_profile", "Profil des piliers", pillarPoints(state.Pillars), pillarOpts),
		radarChart("competitor_threat", "Menace concurrentielle", competitorPoints(f.Competitors, state.Policy.Radar.MaxAxes), radarOpts),
		donutChart("competitor_share", "Part de voix", competitorShares(f.Competitors), donutOpts),
		donutChart("opportunity_status", "Opportunités par statut", countBy(len(f.Opportunities), func(i int) string { return f.Opportunities[i].Status }), donutOpts),
	}
	if state.View == ViewInternal {
		state.Charts = append(state.Charts,
			donutChart("budget_split", "Répartition budgétaire", budgetSegments(f.BudgetTiers), donutOpts),
			donutChart("signal_categories", "Signaux par catégorie", countBy(len(f.Signals), func(i int) string { return f.Signals[i].Category }), donutOpts),
		)
	}

	kinds := map[string]interface{}{}
	for _, c := range state.Charts {
		kinds[c.ID] = c.Kind
	}
	addTrace(state, "charts", "ok", map[string]interface{}{
		"count": len(state.Charts),
		"kinds": kinds,
	})
}

func radarChart(id, title string, points []chart.RadarPoint, opts chart.RadarOptions) ChartView {
	layout := chart.BuildRadar(points, opts)
	return ChartView{ID: id, Title: title, Kind: "radar_" + layout.Kind(), Radar: layout, SVG: layout.SVG()}
}

func donutChart(id, title string, segments []chart.Segment, opts chart.DonutOptions) ChartView {
	d := chart.BuildDonut(segments, opts)
	return ChartView{ID: id, Title: title, Kind: "donut", Donut: &d, SVG: d.SVG()}
}

func pillarPoints(pillars []PillarView) []chart.RadarPoint {
	out := []chart.RadarPoint{}
	for _, p := range pillars {
		if !p.Scored {
			continue
		}
		out = append(out, chart.RadarPoint{Label: p.Name, Magnitude: effectiveScore(p)})
	}
	return out
}

// competitorPoints keeps the most threatening competitors, up to maxAxes.
func competitorPoints(competitors []Competitor, maxAxes int) []chart.RadarPoint {
	sorted := append([]Competitor{}, competitors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Threat != sorted[j].Threat {
			return sorted[i].Threat > sorted[j].Threat
		}
		return sorted[i].Name < sorted[j].Name
	})
	if maxAxes > 0 && len(sorted) > maxAxes {
		sorted = sorted[:maxAxes]
	}
	out := make([]chart.RadarPoint, 0, len(sorted))
	for _, c := range sorted {
		out = append(out, chart.RadarPoint{Label: c.Name, Magnitude: c.Threat})
	}
	return out
}

func competitorShares(competitors []Competitor) []chart.Segment {
	out := make([]chart.Segment, 0, len(competitors))
	for _, c := range competitors {
		out = append(out, chart.Segment{Label: c.Name, Weight: c.Share})
	}
	return out
}

func budgetSegments(tiers []BudgetTier) []chart.Segment {
	out := make([]chart.Segment, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, chart.Segment{Label: t.Label, Weight: t.Amount})
	}
	return out
}

// countBy tallies n entries by normalized key, in first-seen order.
func countBy(n int, key func(int) string) []chart.Segment {
	out := []chart.Segment{}
	index := map[string]int{}
	for i := 0; i < n; i++ {
		k := normalizeToken(key(i))
		pos, ok := index[k]
		if !ok {
			pos = len(out)
			index[k] = pos
			out = append(out, chart.Segment{Label: k})
		}
		out[pos].Weight++
	}
	return out
}
