package cockpit

// filteredSections holds the list sections that survive the view filter.
type filteredSections struct {
	Competitors   []Competitor
	Opportunities []Opportunity
	BudgetTiers   []BudgetTier
	Decisions     []Decision
	Signals       []Signal
	Briefs        []Brief
}

func hide(state *EngineState, section string) {
	hideN(state, section, 1)
}

func hideN(state *EngineState, section string, n int) {
	if n <= 0 {
		return
	}
	if state.Hidden == nil {
		state.Hidden = map[string]int{}
	}
	state.Hidden[section] += n
}

// filterForView drops entries flagged internal and, for the client view,
// the budget, decision and signal sections as a whole.
func filterForView(state *EngineState) filteredSections {
	s := state.Strategy
	client := state.View == ViewClient
	f := filteredSections{
		Competitors:   []Competitor{},
		Opportunities: []Opportunity{},
		BudgetTiers:   []BudgetTier{},
		Decisions:     []Decision{},
		Signals:       []Signal{},
		Briefs:        []Brief{},
	}
	for _, c := range s.Competitors {
		if client && c.Internal {
			hide(state, "competitors")
			continue
		}
		f.Competitors = append(f.Competitors, c)
	}
	for _, o := range s.Opportunities {
		if client && o.Internal {
			hide(state, "opportunities")
			continue
		}
		f.Opportunities = append(f.Opportunities, o)
	}
	for _, b := range s.Briefs {
		if client && b.Internal {
			hide(state, "briefs")
			continue
		}
		f.Briefs = append(f.Briefs, b)
	}
	if client {
		hideN(state, "budget_tiers", len(s.BudgetTiers))
		hideN(state, "decisions", len(s.Decisions))
		hideN(state, "signals", len(s.Signals))
	} else {
		f.BudgetTiers = append(f.BudgetTiers, s.BudgetTiers...)
		f.Decisions = append(f.Decisions, s.Decisions...)
		f.Signals = append(f.Signals, s.Signals...)
	}

	hidden := map[string]interface{}{}
	for k, v := range state.Hidden {
		hidden[k] = v
	}
	addTrace(state, "view_filter", state.View, map[string]interface{}{
		"hidden": hidden,
	})
	return f
}
