package cockpit

import "testing"

func TestRecommendedStepCatalogIDsAndPriorities(t *testing.T) {
	seen := map[int]string{}
	for id, step := range recommendedStepCatalog() {
		if step.ID != id {
			t.Fatalf("catalog key %s holds step %s", id, step.ID)
		}
		if step.Text == "" {
			t.Fatalf("step %s has no text", id)
		}
		if other, ok := seen[step.Priority]; ok {
			t.Fatalf("steps %s and %s share priority %d", id, other, step.Priority)
		}
		seen[step.Priority] = id
	}
}
