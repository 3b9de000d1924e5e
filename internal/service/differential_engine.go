package service

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/knowledge"
)

// DifferentialEngine scores every knowledge-base condition against a patient and ranks the
// survivors.
type DifferentialEngine struct {
	logger *logrus.Logger
}

// NewDifferentialEngine creates a new differential engine
func NewDifferentialEngine(logger *logrus.Logger) *DifferentialEngine {
	return &DifferentialEngine{logger: logger}
}

// Evaluate returns the candidates with a strictly positive score, highest first. Equal
// scores keep knowledge-base order. An empty result means no pattern matched.
func (e *DifferentialEngine) Evaluate(kb *knowledge.Base, patient *domain.PatientContext) []domain.Candidate {
	candidates := make([]domain.Candidate, 0)
	excluded := 0

	for _, c := range kb.Conditions() {
		candidate, ok := e.evaluateCondition(c, patient)
		if !ok {
			excluded++
			continue
		}
		if candidate.Score > 0 {
			candidates = append(candidates, candidate)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	e.logger.WithFields(logrus.Fields{
		"conditions":     kb.Len(),
		"candidates":     len(candidates),
		"gate_excluded":  excluded,
		"patient_immune": patient.Immune.Kind,
	}).Debug("Completed differential evaluation")

	return candidates
}

// evaluateCondition scores one condition. It returns false when a hard gate excludes it.
func (e *DifferentialEngine) evaluateCondition(c *domain.Condition, patient *domain.PatientContext) (domain.Candidate, bool) {
	score := 0
	evidence := make([]string, 0, len(c.Triggers))
	for _, t := range c.Triggers {
		if patient.HasFinding(t.Finding) {
			score += t.Weight
			evidence = append(evidence, string(t.Finding))
		}
	}

	orders := c.Orders
	forced := false

	for _, gate := range c.Gates {
		switch g := gate.(type) {
		case domain.AgeAbove, domain.AgeBelow, domain.RequireImmune, domain.ExcludeImmune,
			domain.CD4Ceiling, domain.TransplantOrgan, domain.RequireAnyFinding:
			if !hardGatePasses(gate, patient) {
				if score > 0 {
					e.logger.WithFields(logrus.Fields{
						"condition":     c.Name,
						"trigger_score": score,
						"gate":          gate.Describe(),
					}).Debug("Hard gate excluded condition")
				}
				return domain.Candidate{}, false
			}
		case domain.TransplantWindowBonus:
			im := patient.Immune
			if im.Kind == domain.ImmuneTransplant && im.DaysSinceTransplant != nil &&
				*im.DaysSinceTransplant >= g.MinDays && *im.DaysSinceTransplant <= g.MaxDays {
				score += g.Bonus
				evidence = append(evidence, g.Label(*im.DaysSinceTransplant))
			}
		case domain.EndemicRegionBonus:
			if score > 0 && g.Matches(patient.Region) {
				score += g.Bonus
				evidence = append(evidence, g.Label(patient.Region))
			}
		case domain.ForceInclude:
			if patient.HasFinding(g.Finding) {
				forced = true
				if score < 1 {
					score = 1
				}
				evidence = append(evidence, g.Label())
				if len(g.OrderOverride) > 0 {
					orders = g.OrderOverride
				}
			}
		}
	}

	return domain.Candidate{
		Condition: c,
		Score:     score,
		Evidence:  evidence,
		Orders:    append([]domain.Order(nil), orders...),
		Forced:    forced,
	}, true
}

// hardGatePasses evaluates an exclusion gate. Gates over fields the patient does not have
// (CD4 outside HIV, organ outside transplant) do not apply and pass.
func hardGatePasses(gate domain.Gate, patient *domain.PatientContext) bool {
	im := patient.Immune
	switch g := gate.(type) {
	case domain.AgeAbove:
		return patient.Age > g.Years
	case domain.AgeBelow:
		return patient.Age < g.Years
	case domain.RequireImmune:
		return containsKind(g.Kinds, im.Kind)
	case domain.ExcludeImmune:
		return !containsKind(g.Kinds, im.Kind)
	case domain.CD4Ceiling:
		if im.Kind != domain.ImmuneHIV || im.CD4 == nil {
			return true
		}
		return *im.CD4 < g.Below
	case domain.TransplantOrgan:
		if im.Kind != domain.ImmuneTransplant || im.TransplantOrgan == "" {
			return true
		}
		for _, organ := range g.Organs {
			if strings.EqualFold(organ, im.TransplantOrgan) {
				return true
			}
		}
		return false
	case domain.RequireAnyFinding:
		for _, f := range g.Findings {
			if patient.HasFinding(f) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func containsKind(kinds []domain.ImmuneKind, kind domain.ImmuneKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
