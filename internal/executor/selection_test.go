package executor

import "testing"

func TestParseSelection(t *testing.T) {
	cases := []struct {
		raw      string
		sourceID string
		name     string
	}{
		{"acme/reviewer", "acme", "reviewer"},
		{"reviewer", "", "reviewer"},
		{"  acme/reviewer  ", "acme", "reviewer"},
		{"Acme/Code Review", "acme", "code-review"},
		{"My_Skill", "", "my-skill"},
	}
	for _, tc := range cases {
		sel, err := ParseSelection(tc.raw)
		if err != nil {
			t.Errorf("ParseSelection(%q): %v", tc.raw, err)
			continue
		}
		if sel.SourceID != tc.sourceID || sel.Name != tc.name {
			t.Errorf("ParseSelection(%q) = %+v, want %s/%s", tc.raw, sel, tc.sourceID, tc.name)
		}
	}
}

func TestParseSelectionMalformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "a/b/c", "/reviewer", "acme/", "/"} {
		if _, err := ParseSelection(raw); err == nil {
			t.Errorf("ParseSelection(%q) accepted", raw)
		}
	}
}

func TestSelectionString(t *testing.T) {
	q := Selection{SourceID: "acme", Name: "reviewer"}
	if !q.Qualified() || q.String() != "acme/reviewer" {
		t.Errorf("qualified = %v %q", q.Qualified(), q.String())
	}
	b := Selection{Name: "reviewer"}
	if b.Qualified() || b.String() != "reviewer" {
		t.Errorf("bare = %v %q", b.Qualified(), b.String())
	}
}

func TestParseSelections(t *testing.T) {
	sels, err := ParseSelections([]string{"acme/reviewer", "planner"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sels) != 2 || sels[0].String() != "acme/reviewer" || sels[1].String() != "planner" {
		t.Fatalf("sels = %+v", sels)
	}

	if _, err := ParseSelections([]string{"ok", "a/b/c"}); err == nil {
		t.Fatal("malformed selection accepted in batch")
	}
}
