package cockpit

func recommendedStepCatalog() map[string]RecommendedStep {
	return map[string]RecommendedStep{
		"FIX_STRATEGY_FILE": {
			ID:       "FIX_STRATEGY_FILE",
			Priority: 10,
			Text:     "Fix the strategy document validation errors before sharing the cockpit.",
		},
		"VALIDATE_POLICY_FILE": {
			ID:       "VALIDATE_POLICY_FILE",
			Priority: 20,
			Text:     "Correct the cockpit policy file; defaults were kept for invalid sections.",
		},
		"MITIGATE_BRAND_RISK": {
			ID:       "MITIGATE_BRAND_RISK",
			Priority: 30,
			Text:     "Run a risk workshop: the Risk pillar sits in a weak or critical band.",
		},
		"STRENGTHEN_WEAK_PILLARS": {
			ID:       "STRENGTHEN_WEAK_PILLARS",
			Priority: 40,
			Text:     "Rework the pillars scored below the average band.",
		},
		"COMPLETE_PILLAR_CONTENT": {
			ID:       "COMPLETE_PILLAR_CONTENT",
			Priority: 50,
			Text:     "Fill in the pillars that have no content, implementation data or notes.",
		},
		"CLEAR_DECISION_QUEUE": {
			ID:       "CLEAR_DECISION_QUEUE",
			Priority: 60,
			Text:     "Arbitrate the pending decisions in the queue.",
		},
		"EXPAND_COMPETITOR_WATCH": {
			ID:       "EXPAND_COMPETITOR_WATCH",
			Priority: 70,
			Text:     "Track at least three competitors to enable the competitive radar.",
		},
		"REVIEW_STRONG_SIGNALS": {
			ID:       "REVIEW_STRONG_SIGNALS",
			Priority: 80,
			Text:     "Review the strong market signals collected since the last update.",
		},
		"BOOK_CLIENT_REVIEW": {
			ID:       "BOOK_CLIENT_REVIEW",
			Priority: 90,
			Text:     "Schedule a client review of the cockpit.",
		},
	}
}
