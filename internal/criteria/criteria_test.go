package criteria

import "testing"

func TestMatcherAndEquals(t *testing.T) {
	m, err := New().And(FieldAppID, OpEquals, "firefox")
	if err != nil {
		t.Fatalf("And: %v", err)
	}
	tests := []struct {
		name   string
		target Target
		want   bool
	}{
		{"matches", Target{AppID: "firefox"}, true},
		{"mismatch", Target{AppID: "chromium"}, false},
		{"empty", Target{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Match(tt.target); got != tt.want {
				t.Errorf("Match(%+v) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestMatcherContains(t *testing.T) {
	m, err := New().And(FieldTitle, OpContains, "Mail")
	if err != nil {
		t.Fatalf("And: %v", err)
	}
	if !m.Match(Target{Title: "Inbox - Mail"}) {
		t.Error("expected containment match")
	}
	if m.Match(Target{Title: "Inbox"}) {
		t.Error("expected no match")
	}
}

func TestMatcherRegex(t *testing.T) {
	m, err := New().And(FieldTitle, OpRegex, `^Term(inal)?$`)
	if err != nil {
		t.Fatalf("And: %v", err)
	}
	if !m.Match(Target{Title: "Terminal"}) {
		t.Error("expected regex match")
	}
	if m.Match(Target{Title: "Terminator"}) {
		t.Error("expected no match")
	}
}

func TestMatcherRegexInvalid(t *testing.T) {
	if _, err := New().And(FieldTitle, OpRegex, `(unclosed`); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestMatcherAndMultipleLeaves(t *testing.T) {
	m, err := New().And(FieldAppID, OpEquals, "foot")
	if err != nil {
		t.Fatal(err)
	}
	m, err = m.And(FieldWorkspace, OpEquals, "term")
	if err != nil {
		t.Fatal(err)
	}
	if !m.Match(Target{AppID: "foot", Workspace: "term"}) {
		t.Error("expected AND match")
	}
	if m.Match(Target{AppID: "foot", Workspace: "other"}) {
		t.Error("expected AND to fail when one leaf mismatches")
	}
}

func TestMatcherOr(t *testing.T) {
	a, _ := New().And(FieldAppID, OpEquals, "foot")
	b, _ := New().And(FieldAppID, OpEquals, "alacritty")
	m := Or(a, b)
	if !m.Match(Target{AppID: "foot"}) || !m.Match(Target{AppID: "alacritty"}) {
		t.Error("expected Or to match either alternative")
	}
	if m.Match(Target{AppID: "xterm"}) {
		t.Error("expected Or to reject unmatched alternatives")
	}
}

func TestMatcherNot(t *testing.T) {
	inner, _ := New().And(FieldAppID, OpEquals, "firefox")
	m := Not(inner)
	if m.Match(Target{AppID: "firefox"}) {
		t.Error("expected Not to invert a match")
	}
	if !m.Match(Target{AppID: "foot"}) {
		t.Error("expected Not to invert a non-match")
	}
}

func TestRuleSetFirstMatchWins(t *testing.T) {
	rs := NewRuleSet()
	floatMatcher, _ := New().And(FieldAppID, OpEquals, "pavucontrol")
	tileMatcher, _ := New().And(FieldAppID, OpEquals, "pavucontrol")
	rs.Add(Rule{Matcher: floatMatcher, Action: ActionFloat})
	rs.Add(Rule{Matcher: tileMatcher, Action: ActionTile})

	r, ok := rs.FirstMatch(Target{AppID: "pavucontrol"})
	if !ok {
		t.Fatal("expected a match")
	}
	if r.Action != ActionFloat {
		t.Errorf("expected first rule (ActionFloat) to win, got %v", r.Action)
	}
}

func TestRuleSetNoMatch(t *testing.T) {
	rs := NewRuleSet()
	m, _ := New().And(FieldAppID, OpEquals, "firefox")
	rs.Add(Rule{Matcher: m, Action: ActionFloat})
	if _, ok := rs.FirstMatch(Target{AppID: "foot"}); ok {
		t.Error("expected no match")
	}
}
