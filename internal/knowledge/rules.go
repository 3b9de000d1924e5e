package knowledge

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fuo-consult-server/internal/domain"
)

// TestClass groups tests for declarative suppression.
type TestClass string

const (
	ClassGeneral               TestClass = "general"
	ClassRheumatologicSerology TestClass = "rheumatologic-serology"
	ClassInvasive              TestClass = "invasive"
)

// Toggle names accepted in plan options.
const (
	ToggleRheumatologicSuspicion = "rheumatologic_suspicion"
)

// Supersession drops narrower tests when the broader test is also planned.
type Supersession struct {
	Broader  string
	Narrower []string
}

// Panel replaces individually ordered members with one named panel once at least
// MinMembers of them are planned.
type Panel struct {
	Name       string
	Members    []string
	MinMembers int
}

// ConditionalBaseline adds orders whenever the patient has Finding, regardless of which
// conditions survived.
type ConditionalBaseline struct {
	Finding domain.Finding
	Orders  []domain.Order
}

// SuppressionRule removes every test of Class from Tiers while the caller's Toggle is off.
// The rule is lifted when a candidate of ExemptCategory was force-included or scored at
// least ExemptMinScore.
type SuppressionRule struct {
	Name           string
	Class          TestClass
	Tiers          []domain.Tier
	Toggle         string
	ExemptCategory domain.Category
	ExemptMinScore int
}

// Exempted reports whether the candidates lift the rule.
func (s SuppressionRule) Exempted(candidates []domain.Candidate) bool {
	for _, c := range candidates {
		if c.Category() != s.ExemptCategory {
			continue
		}
		if c.Forced || (s.ExemptMinScore > 0 && c.Score >= s.ExemptMinScore) {
			return true
		}
	}
	return false
}

// Covers reports whether the rule applies to tier.
func (s SuppressionRule) Covers(tier domain.Tier) bool {
	for _, t := range s.Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// PlanRules are the tables the plan builder folds candidate orders through.
type PlanRules struct {
	// Synonyms maps raw order names to their canonical test name.
	Synonyms      map[string]string
	Supersessions []Supersession
	Panels        []Panel

	UniversalBaseline    []domain.Order
	ConditionalBaselines []ConditionalBaseline

	// Stewardship maps a prior-workup result label to the canonical tests it satisfies.
	Stewardship map[string][]string

	TestClasses  map[string]TestClass
	Suppressions []SuppressionRule
}

// Canonical resolves a raw test name through the synonym table.
func (r *PlanRules) Canonical(test string) string {
	test = strings.TrimSpace(test)
	if canon, ok := r.Synonyms[test]; ok {
		return canon
	}
	return test
}

// Satisfied returns the canonical tests implied as done by the prior-workup labels.
func (r *PlanRules) Satisfied(prior domain.FindingSet) map[string]bool {
	out := make(map[string]bool)
	for _, label := range prior.Sorted() {
		for _, test := range r.Stewardship[label] {
			out[r.Canonical(test)] = true
		}
	}
	return out
}

// ClassOf returns the class of a canonical test, defaulting to ClassGeneral.
func (r *PlanRules) ClassOf(test string) TestClass {
	if c, ok := r.TestClasses[test]; ok {
		return c
	}
	return ClassGeneral
}

// PriorWorkupLabels returns the labels the stewardship table understands.
func (r *PlanRules) PriorWorkupLabels() []string {
	labels := make([]string, 0, len(r.Stewardship))
	for l := range r.Stewardship {
		labels = append(labels, l)
	}
	return sortedStrings(labels)
}

// Validate checks the tables for empty names, bad tiers and synonym chains.
func (r PlanRules) Validate() error {
	var errs []error
	bad := func(field, msg string) {
		errs = append(errs, domain.NewConfigError("plan rules", field, msg))
	}

	for raw, canon := range r.Synonyms {
		if strings.TrimSpace(raw) == "" || strings.TrimSpace(canon) == "" {
			bad("synonyms", "empty test name")
			continue
		}
		if _, chained := r.Synonyms[canon]; chained {
			bad("synonyms", fmt.Sprintf("%q maps to %q which is itself a synonym", raw, canon))
		}
	}
	for i, s := range r.Supersessions {
		if s.Broader == "" || len(s.Narrower) == 0 {
			bad(fmt.Sprintf("supersessions[%d]", i), "needs a broader test and at least one narrower test")
		}
	}
	for i, p := range r.Panels {
		if p.Name == "" || len(p.Members) < 2 || p.MinMembers < 2 || p.MinMembers > len(p.Members) {
			bad(fmt.Sprintf("panels[%d]", i), "needs a name, two or more members and 2 <= min_members <= len(members)")
		}
	}
	for i, o := range r.UniversalBaseline {
		if err := o.Validate(); err != nil {
			bad(fmt.Sprintf("universal_baseline[%d]", i), err.Error())
		}
	}
	for i, cb := range r.ConditionalBaselines {
		if cb.Finding == "" || len(cb.Orders) == 0 {
			bad(fmt.Sprintf("conditional_baselines[%d]", i), "needs a finding and at least one order")
		}
		for _, o := range cb.Orders {
			if err := o.Validate(); err != nil {
				bad(fmt.Sprintf("conditional_baselines[%d]", i), err.Error())
			}
		}
	}
	for label, tests := range r.Stewardship {
		if strings.TrimSpace(label) == "" || len(tests) == 0 {
			bad("stewardship", fmt.Sprintf("label %q needs at least one satisfied test", label))
		}
	}
	for i, s := range r.Suppressions {
		if s.Name == "" || s.Class == "" || s.Toggle == "" || len(s.Tiers) == 0 {
			bad(fmt.Sprintf("suppressions[%d]", i), "needs name, class, toggle and tiers")
		}
		for _, t := range s.Tiers {
			if !t.IsValid() {
				bad(fmt.Sprintf("suppressions[%d]", i), fmt.Sprintf("tier %d outside 0..3", int(t)))
			}
		}
	}

	return errors.Join(errs...)
}

func (r PlanRules) clone() *PlanRules {
	out := r
	out.Synonyms = make(map[string]string, len(r.Synonyms))
	for k, v := range r.Synonyms {
		out.Synonyms[k] = v
	}
	out.Stewardship = make(map[string][]string, len(r.Stewardship))
	for k, v := range r.Stewardship {
		out.Stewardship[k] = append([]string(nil), v...)
	}
	out.TestClasses = make(map[string]TestClass, len(r.TestClasses))
	for k, v := range r.TestClasses {
		out.TestClasses[k] = v
	}
	out.Supersessions = append([]Supersession(nil), r.Supersessions...)
	out.Panels = append([]Panel(nil), r.Panels...)
	out.UniversalBaseline = append([]domain.Order(nil), r.UniversalBaseline...)
	out.ConditionalBaselines = append([]ConditionalBaseline(nil), r.ConditionalBaselines...)
	out.Suppressions = append([]SuppressionRule(nil), r.Suppressions...)
	return &out
}

func sortedStrings(in []string) []string {
	sort.Strings(in)
	return in
}
