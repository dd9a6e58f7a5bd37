package types

import (
	"reflect"
	"testing"
)

func TestGroupDepthAndRoot(t *testing.T) {
	tests := []struct {
		key       string
		wantDepth int
		wantRoot  string
	}{
		{"work_place", 0, "work_place"},
		{"work_place/hospital", 1, "work_place"},
		{"work_place/hospital/royal_victoria", 2, "work_place"},
	}
	for _, tt := range tests {
		g := Group{Key: tt.key}
		if got := g.Depth(); got != tt.wantDepth {
			t.Errorf("Depth(%q) = %d, want %d", tt.key, got, tt.wantDepth)
		}
		if got := g.RootKey(); got != tt.wantRoot {
			t.Errorf("RootKey(%q) = %q, want %q", tt.key, got, tt.wantRoot)
		}
	}
}

func TestSelectionsChosen(t *testing.T) {
	sel := Selections{"a": {ID: " x "}, "blank": {ID: "  "}}
	if id, ok := sel.Chosen("a"); !ok || id != "x" {
		t.Errorf("Chosen(a) = %q, %v", id, ok)
	}
	if _, ok := sel.Chosen("blank"); ok {
		t.Error("Chosen(blank) reported a selection")
	}
	if _, ok := sel.Chosen("missing"); ok {
		t.Error("Chosen(missing) reported a selection")
	}
}

func TestSelectionsChosenRejectsNonSegments(t *testing.T) {
	for _, id := range []string{".", "..", " .. ", "../biographies", "a/b", `a\b`, "/"} {
		sel := Selections{"k": {ID: id}}
		if got, ok := sel.Chosen("k"); ok {
			t.Errorf("Chosen(%q) = %q, want no selection", id, got)
		}
	}
	if got := (Selections{"k": {ID: "a"}, "k/a": {ID: ".."}}).Chain("k", 10); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Chain stopped at %v, want [a]", got)
	}
}

func TestSelectionsChain(t *testing.T) {
	sel := Selections{
		"work_place":                        {ID: "hospital"},
		"work_place/hospital":               {ID: "royal_victoria"},
		"work_place/hospital/royal_victoria": {ID: "ward_4"},
	}
	tests := []struct {
		name   string
		key    string
		maxLen int
		want   []string
	}{
		{"full chain", "work_place", 10, []string{"hospital", "royal_victoria", "ward_4"}},
		{"capped", "work_place", 2, []string{"hospital", "royal_victoria"}},
		{"from a nested key", "work_place/hospital", 10, []string{"royal_victoria", "ward_4"}},
		{"no selection", "eye_colour", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sel.Chain(tt.key, tt.maxLen); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Chain = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSuggestionMapKeys(t *testing.T) {
	if got := SanitizeKey("work_place/hospital"); got != "work_place__hospital" {
		t.Errorf("SanitizeKey = %q", got)
	}
	m := SuggestionMap{"work_place__hospital": {{ID: "rv"}}}
	if got := m.For("work_place/hospital"); len(got) != 1 || got[0].ID != "rv" {
		t.Errorf("For = %+v", got)
	}
	if got := m.For("eye_colour"); got != nil {
		t.Errorf("For(missing) = %+v, want nil", got)
	}
}
