package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fuo-consult-server/internal/domain"
)

func TestPlanRules_Canonical(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		raw      string
		expected string
	}{
		{"Blood Cx x2", TestBloodCultures},
		{"Blood Cx (Extended Incubation)", TestBloodCultures},
		{" Blood Cx x3 (Pre-Antibiotic) ", TestBloodCultures},
		{"Bone Marrow Biopsy (AFB Culture)", TestBoneMarrowBiopsy},
		{"Urine Histo Ag", TestUrineHistoAntigen},
		{"Ferritin", "Ferritin"},
		// No substring matching: an unrelated name containing "Blood Cx" is left alone.
		{"Blood Cx Contamination Review", "Blood Cx Contamination Review"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, rules.Canonical(tt.raw))
		})
	}
}

func TestPlanRules_Satisfied(t *testing.T) {
	rules := DefaultRules()

	done := rules.Satisfied(domain.NewFindingSet("Negative Blood Cx x3", "Negative Urine Histo Ag", "Unlisted Label"))

	assert.Equal(t, map[string]bool{
		TestBloodCultures:     true,
		TestUrineHistoAntigen: true,
	}, done)
	assert.Empty(t, rules.Satisfied(domain.NewFindingSet()))
}

func TestPlanRules_ClassOf(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, ClassRheumatologicSerology, rules.ClassOf("ANA"))
	assert.Equal(t, ClassRheumatologicSerology, rules.ClassOf(TestRheumPanel))
	assert.Equal(t, ClassInvasive, rules.ClassOf(TestBoneMarrowBiopsy))
	assert.Equal(t, ClassGeneral, rules.ClassOf("CMP"))
}

func TestSuppressionRule_Exempted(t *testing.T) {
	rule := DefaultRules().Suppressions[0]
	still := &domain.Condition{Name: "Adult Onset Still's Disease", Category: domain.CategoryRheumatologic}
	lymphoma := &domain.Condition{Name: "Lymphoma", Category: domain.CategoryMalignancy}

	tests := []struct {
		name       string
		candidates []domain.Candidate
		expected   bool
	}{
		{"no candidates", nil, false},
		{"weak rheumatologic candidate", []domain.Candidate{{Condition: still, Score: 2}}, false},
		{"strong rheumatologic candidate", []domain.Candidate{{Condition: still, Score: 9}}, true},
		{"forced rheumatologic candidate", []domain.Candidate{{Condition: still, Score: 1, Forced: true}}, true},
		{"strong candidate of another category", []domain.Candidate{{Condition: lymphoma, Score: 11}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rule.Exempted(tt.candidates))
		})
	}

	assert.True(t, rule.Covers(domain.TierTargeted))
	assert.False(t, rule.Covers(domain.TierImmediate))
}

func TestPlanRules_PriorWorkupLabels(t *testing.T) {
	rules := DefaultRules()
	labels := rules.PriorWorkupLabels()

	assert.Len(t, labels, len(rules.Stewardship))
	assert.IsIncreasing(t, labels)
	assert.Contains(t, labels, "Negative Blood Cx x3")
}
