package service

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/knowledge"
)

// PlanOptions carries the caller's suspicion toggles.
type PlanOptions struct {
	RheumatologicSuspicion bool     `json:"rheumatologic_suspicion,omitempty"`
	Toggles                []string `json:"toggles,omitempty"`
}

// Enabled reports whether a named toggle is on.
func (o PlanOptions) Enabled(toggle string) bool {
	if toggle == knowledge.ToggleRheumatologicSuspicion && o.RheumatologicSuspicion {
		return true
	}
	for _, t := range o.Toggles {
		if t == toggle {
			return true
		}
	}
	return false
}

// PlanBuilder folds candidate orders into a tiered, consolidated plan.
type PlanBuilder struct {
	logger *logrus.Logger
	rules  *knowledge.PlanRules
}

// NewPlanBuilder creates a plan builder over the given rules.
func NewPlanBuilder(logger *logrus.Logger, rules *knowledge.PlanRules) *PlanBuilder {
	return &PlanBuilder{
		logger: logger,
		rules:  rules,
	}
}

type planEntry struct {
	test string
	tier domain.Tier
	seq  int
	// members lists the tests a synthesized panel replaced.
	members []string
}

// planSet keeps each canonical test once, at its most urgent tier.
type planSet struct {
	entries map[string]*planEntry
	seq     int
}

func newPlanSet() *planSet {
	return &planSet{entries: make(map[string]*planEntry)}
}

func (s *planSet) add(test string, tier domain.Tier) {
	if e, ok := s.entries[test]; ok {
		if tier < e.tier {
			e.tier = tier
		}
		return
	}
	s.seq++
	s.entries[test] = &planEntry{test: test, tier: tier, seq: s.seq}
}

func (s *planSet) has(test string) bool {
	_, ok := s.entries[test]
	return ok
}

func (s *planSet) remove(test string) bool {
	if _, ok := s.entries[test]; !ok {
		return false
	}
	delete(s.entries, test)
	return true
}

func (s *planSet) plan() domain.Plan {
	ordered := make([]*planEntry, 0, len(s.entries))
	for _, e := range s.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	p := domain.NewPlan()
	for _, e := range ordered {
		p[e.tier] = append(p[e.tier], e.test)
	}
	return p
}

// Build produces the plan for the surviving candidates. Baseline orders come first, then
// candidate orders in rank order. Consolidation never looks at prior workup, so adding
// prior results can only remove tests.
func (b *PlanBuilder) Build(candidates []domain.Candidate, patient *domain.PatientContext, opts PlanOptions) domain.Plan {
	set := newPlanSet()

	for _, o := range b.rules.UniversalBaseline {
		set.add(b.rules.Canonical(o.Test), o.Tier)
	}
	for _, cb := range b.rules.ConditionalBaselines {
		if patient.HasFinding(cb.Finding) {
			for _, o := range cb.Orders {
				set.add(b.rules.Canonical(o.Test), o.Tier)
			}
		}
	}
	for _, c := range candidates {
		for _, o := range c.Orders {
			set.add(b.rules.Canonical(o.Test), o.Tier)
		}
	}

	b.consolidate(set)
	satisfied := b.applyStewardship(set, patient.PriorWorkup)
	suppressed := b.applySuppressions(set, candidates, opts)

	plan := set.plan()
	b.logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"tests":      plan.Len(),
		"satisfied":  satisfied,
		"suppressed": suppressed,
	}).Debug("Built diagnostic plan")

	return plan
}

func (b *PlanBuilder) consolidate(set *planSet) {
	for _, s := range b.rules.Supersessions {
		if !set.has(s.Broader) {
			continue
		}
		for _, narrower := range s.Narrower {
			set.remove(narrower)
		}
	}

	for _, p := range b.rules.Panels {
		present := make([]*planEntry, 0, len(p.Members))
		for _, m := range p.Members {
			if e, ok := set.entries[m]; ok {
				present = append(present, e)
			}
		}
		if len(present) < p.MinMembers {
			continue
		}
		ordered := set.has(p.Name)
		tier := domain.TierAdvanced
		members := make([]string, 0, len(present))
		for _, e := range present {
			if e.tier < tier {
				tier = e.tier
			}
			members = append(members, e.test)
			set.remove(e.test)
		}
		set.add(p.Name, tier)
		if !ordered {
			set.entries[p.Name].members = members
		}
	}
}

// applyStewardship drops tests already covered by prior workup. A synthesized panel is
// dropped only when every test it replaced is covered.
func (b *PlanBuilder) applyStewardship(set *planSet, prior domain.FindingSet) int {
	satisfied := b.rules.Satisfied(prior)
	removed := 0
	for test := range satisfied {
		if set.remove(test) {
			removed++
		}
	}
	for test, e := range set.entries {
		if len(e.members) == 0 || !allSatisfied(e.members, satisfied) {
			continue
		}
		delete(set.entries, test)
		removed++
	}
	return removed
}

func allSatisfied(tests []string, satisfied map[string]bool) bool {
	for _, t := range tests {
		if !satisfied[t] {
			return false
		}
	}
	return true
}

func (b *PlanBuilder) applySuppressions(set *planSet, candidates []domain.Candidate, opts PlanOptions) int {
	removed := 0
	for _, rule := range b.rules.Suppressions {
		if opts.Enabled(rule.Toggle) || rule.Exempted(candidates) {
			continue
		}
		for test, e := range set.entries {
			if b.rules.ClassOf(test) == rule.Class && rule.Covers(e.tier) {
				delete(set.entries, test)
				removed++
				b.logger.WithFields(logrus.Fields{
					"rule": rule.Name,
					"test": test,
				}).Debug("Suppressed test")
			}
		}
	}
	return removed
}
