package pillar

import "testing"

func TestOrderHasEightPillarsWithOnlyRiskInverted(t *testing.T) {
	if len(Order) != 8 {
		t.Fatalf("expected 8 pillars, got %d", len(Order))
	}
	for _, d := range Order {
		if d.Inverted != (d.Key == Risk) {
			t.Fatalf("pillar %s inverted=%v", d.Key, d.Inverted)
		}
	}
	if got := Keys(); got[0] != "A" || got[7] != "S" {
		t.Fatalf("unexpected key order %v", got)
	}
}

func TestLookup(t *testing.T) {
	d, ok := Lookup(" r ")
	if !ok || d.Name != "Risk" {
		t.Fatalf("expected risk pillar, got %+v ok=%v", d, ok)
	}
	if _, ok := Lookup("X"); ok {
		t.Fatalf("expected unknown key to fail")
	}
}

func TestSelectPriority(t *testing.T) {
	cases := []struct {
		name string
		src  Source
		kind string
	}{
		{"content_wins", Source{Summary: "s", Items: []string{"i"}, Actions: []string{"a"}, Raw: "r"}, "content"},
		{"summary_without_items_is_not_content", Source{Summary: "s", Actions: []string{"a"}}, "implementation"},
		{"milestones_alone", Source{Milestones: []string{"m"}}, "implementation"},
		{"raw_text", Source{Raw: "  text  ", Items: []string{" "}}, "raw"},
		{"summary_as_raw", Source{Summary: "only summary"}, "raw"},
		{"nothing", Source{Items: []string{""}}, "empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Select(tc.src).Kind(); got != tc.kind {
				t.Fatalf("Select() kind = %s, want %s", got, tc.kind)
			}
		})
	}
}

func TestSelectTrimsFields(t *testing.T) {
	v, ok := Select(Source{Summary: " s ", Items: []string{" a ", "", "b"}}).(ContentVariant)
	if !ok {
		t.Fatalf("expected content variant")
	}
	if v.Summary != "s" || len(v.Items) != 2 || v.Items[0] != "a" {
		t.Fatalf("unexpected content %+v", v)
	}
	raw := Select(Source{Raw: "  x "}).(RawVariant)
	if raw.Text != "x" {
		t.Fatalf("expected trimmed raw text, got %q", raw.Text)
	}
}
