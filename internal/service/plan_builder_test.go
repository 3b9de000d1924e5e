package service

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/knowledge"
)

func defaultPlanBuilder() *PlanBuilder {
	return NewPlanBuilder(testLogger(), knowledge.Default().Rules())
}

func buildPlan(t *testing.T, raw RawIntake, opts PlanOptions) (domain.Plan, []domain.Candidate) {
	t.Helper()
	candidates, patient := evaluate(t, raw)
	return defaultPlanBuilder().Build(candidates, patient, opts), candidates
}

func TestPlanBuilder_BaselineOnly(t *testing.T) {
	plan, candidates := buildPlan(t, baseIntake(), PlanOptions{})
	require.Empty(t, candidates)

	expected := domain.Plan{
		domain.TierImmediate: {"CBC with Differential", "CMP", knowledge.TestBloodCultures, "Urinalysis", "ESR", "CRP"},
	}
	if diff := cmp.Diff(expected, plan); diff != "" {
		t.Errorf("baseline plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanBuilder_StewardshipRemovesBloodCultures(t *testing.T) {
	raw := baseIntake()
	raw.Exposures = []string{"Travel (South Asia)", "Unpasteurized Dairy"}
	raw.PriorWorkup = []string{"Negative Blood Cx x3"}

	plan, candidates := buildPlan(t, raw, PlanOptions{})

	_, ok := findCandidate(candidates, "Typhoid (Enteric Fever)")
	require.True(t, ok)
	_, ok = findCandidate(candidates, "Brucellosis")
	require.True(t, ok)

	for _, test := range plan.All() {
		assert.NotContains(t, test, "Blood Cx")
		assert.NotEqual(t, knowledge.TestBloodCultures, test)
	}
	assert.Contains(t, plan.Tests(domain.TierTargeted), "Stool Culture")
	assert.Contains(t, plan.Tests(domain.TierTargeted), "Brucella Serology")

	// Without the prior result the synonyms collapse into a single canonical order.
	raw.PriorWorkup = nil
	plan, _ = buildPlan(t, raw, PlanOptions{})
	count := 0
	for _, test := range plan.All() {
		if strings.Contains(test, "Blood C") {
			count++
			assert.Equal(t, knowledge.TestBloodCultures, test)
		}
	}
	assert.Equal(t, 1, count)
}

func TestPlanBuilder_DeduplicatesAtMostUrgentTier(t *testing.T) {
	rules := &knowledge.PlanRules{
		Synonyms: map[string]string{"CT C/A/P": knowledge.TestCTChestAbdPelvis},
		Supersessions: []knowledge.Supersession{
			{Broader: knowledge.TestCTChestAbdPelvis, Narrower: []string{knowledge.TestCTChest}},
		},
		UniversalBaseline: []domain.Order{{Test: "CBC", Tier: domain.TierImmediate}},
	}
	first := domain.Candidate{
		Condition: &domain.Condition{Name: "First", Category: domain.CategoryZoonotic},
		Score:     5,
		Orders: []domain.Order{
			{Test: "Lyme Serology", Tier: domain.TierSecondLine},
			{Test: knowledge.TestCTChest, Tier: domain.TierSecondLine},
		},
	}
	second := domain.Candidate{
		Condition: &domain.Condition{Name: "Second", Category: domain.CategoryInfectious},
		Score:     3,
		Orders: []domain.Order{
			{Test: "Lyme Serology", Tier: domain.TierTargeted},
			{Test: "CT C/A/P", Tier: domain.TierSecondLine},
			{Test: "CBC", Tier: domain.TierTargeted},
		},
	}
	patient := &domain.PatientContext{Findings: domain.NewFindingSet(), PriorWorkup: domain.NewFindingSet()}

	plan := NewPlanBuilder(testLogger(), rules).Build([]domain.Candidate{first, second}, patient, PlanOptions{})

	expected := domain.Plan{
		domain.TierImmediate:  {"CBC"},
		domain.TierTargeted:   {"Lyme Serology"},
		domain.TierSecondLine: {knowledge.TestCTChestAbdPelvis},
	}
	if diff := cmp.Diff(expected, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanBuilder_Supersession(t *testing.T) {
	raw := baseIntake()
	raw.Immune = domain.ImmuneStatus{Kind: domain.ImmuneHIV, CD4: intPtr(20)}
	raw.Symptoms = []string{"Night Sweats", "Weight Loss", "Dyspnea"}
	raw.Labs = []string{"Elevated Alkaline Phosphatase"}

	plan, candidates := buildPlan(t, raw, PlanOptions{})
	_, ok := findCandidate(candidates, "Pneumocystis Pneumonia (PCP)")
	require.True(t, ok)
	_, ok = findCandidate(candidates, "Disseminated MAC")
	require.True(t, ok)

	assert.Contains(t, plan.Tests(domain.TierSecondLine), knowledge.TestCTChestAbdPelvis)
	assert.False(t, plan.Contains(knowledge.TestCTChest), "CT chest is covered by CT C/A/P")
}

func TestPlanBuilder_EchoSupersession(t *testing.T) {
	raw := baseIntake()
	raw.Exam = []string{"New Murmur"}
	raw.Exposures = []string{"IV Drug Use"}

	plan, _ := buildPlan(t, raw, PlanOptions{})
	assert.True(t, plan.Contains(knowledge.TestTEE))
	assert.False(t, plan.Contains(knowledge.TestTTE))
}

func TestPlanBuilder_RheumatologicPanel(t *testing.T) {
	raw := baseIntake()
	raw.Exam = []string{"Rash (Salmon)", "Malar Rash"}
	raw.Symptoms = []string{"Daily Fever Spikes"}

	plan, candidates := buildPlan(t, raw, PlanOptions{})

	still, ok := findCandidate(candidates, "Adult Onset Still's Disease")
	require.True(t, ok)
	assert.Equal(t, 9, still.Score)

	tier, ok := plan.TierOf(knowledge.TestRheumPanel)
	require.True(t, ok)
	assert.Equal(t, domain.TierTargeted, tier)
	for _, member := range []string{"ANA", "RF", "Anti-dsDNA", "Complement C3/C4"} {
		assert.False(t, plan.Contains(member), "%s folded into the panel", member)
	}
	assert.Contains(t, plan.Tests(domain.TierTargeted), "Ferritin")
	assert.Contains(t, plan.Tests(domain.TierSecondLine), "Glycosylated Ferritin")
}

func TestPlanBuilder_PanelTakesMostUrgentMemberTier(t *testing.T) {
	rules := &knowledge.PlanRules{
		Panels: []knowledge.Panel{{Name: "Panel", Members: []string{"A", "B", "C"}, MinMembers: 2}},
	}
	c := domain.Candidate{
		Condition: &domain.Condition{Name: "X", Category: domain.CategoryInfectious},
		Score:     2,
		Orders: []domain.Order{
			{Test: "A", Tier: domain.TierSecondLine},
			{Test: "B", Tier: domain.TierTargeted},
			{Test: "D", Tier: domain.TierSecondLine},
		},
	}
	patient := &domain.PatientContext{Findings: domain.NewFindingSet(), PriorWorkup: domain.NewFindingSet()}

	plan := NewPlanBuilder(testLogger(), rules).Build([]domain.Candidate{c}, patient, PlanOptions{})

	expected := domain.Plan{
		domain.TierTargeted:   {"Panel"},
		domain.TierSecondLine: {"D"},
	}
	if diff := cmp.Diff(expected, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	c.Orders = c.Orders[:1]
	plan = NewPlanBuilder(testLogger(), rules).Build([]domain.Candidate{c}, patient, PlanOptions{})
	assert.Equal(t, []string{"A"}, plan.Tests(domain.TierSecondLine), "one member is below the panel minimum")
}

func TestPlanBuilder_PanelStewardship(t *testing.T) {
	rules := &knowledge.PlanRules{
		Panels: []knowledge.Panel{{Name: "Panel", Members: []string{"A", "B", "C"}, MinMembers: 2}},
		Stewardship: map[string][]string{
			"Negative A": {"A"},
			"Negative B": {"B"},
			"Negative C": {"C"},
		},
	}
	c := domain.Candidate{
		Condition: &domain.Condition{Name: "X", Category: domain.CategoryInfectious},
		Score:     2,
		Orders: []domain.Order{
			{Test: "A", Tier: domain.TierTargeted},
			{Test: "B", Tier: domain.TierTargeted},
		},
	}

	tests := []struct {
		name      string
		prior     []string
		wantPanel bool
	}{
		{"no prior workup", nil, true},
		{"one replaced member covered", []string{"Negative A"}, true},
		{"unplanned member covered", []string{"Negative A", "Negative C"}, true},
		{"every replaced member covered", []string{"Negative A", "Negative B"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patient := &domain.PatientContext{Findings: domain.NewFindingSet(), PriorWorkup: domain.NewFindingSet(tt.prior...)}

			plan := NewPlanBuilder(testLogger(), rules).Build([]domain.Candidate{c}, patient, PlanOptions{})
			assert.Equal(t, tt.wantPanel, plan.Contains("Panel"))
			assert.False(t, plan.Contains("A"))
			assert.False(t, plan.Contains("B"))
		})
	}
}

func TestPlanBuilder_DirectlyOrderedPanelIgnoresMemberStewardship(t *testing.T) {
	rules := &knowledge.PlanRules{
		Panels:      []knowledge.Panel{{Name: "Panel", Members: []string{"A", "B"}, MinMembers: 2}},
		Stewardship: map[string][]string{"Negative A": {"A"}, "Negative B": {"B"}},
	}
	c := domain.Candidate{
		Condition: &domain.Condition{Name: "X", Category: domain.CategoryInfectious},
		Score:     2,
		Orders: []domain.Order{
			{Test: "Panel", Tier: domain.TierSecondLine},
			{Test: "A", Tier: domain.TierTargeted},
			{Test: "B", Tier: domain.TierTargeted},
		},
	}
	patient := &domain.PatientContext{Findings: domain.NewFindingSet(), PriorWorkup: domain.NewFindingSet("Negative A", "Negative B")}

	plan := NewPlanBuilder(testLogger(), rules).Build([]domain.Candidate{c}, patient, PlanOptions{})
	assert.Equal(t, []string{"Panel"}, plan.Tests(domain.TierTargeted))
}

func TestPlanBuilder_NegativeANAKeepsRheumatologicPanel(t *testing.T) {
	raw := baseIntake()
	raw.Exam = []string{"Malar Rash"}
	opts := PlanOptions{RheumatologicSuspicion: true}

	full, _ := buildPlan(t, raw, opts)
	require.True(t, full.Contains(knowledge.TestRheumPanel))

	raw.PriorWorkup = []string{"Negative ANA"}
	reduced, _ := buildPlan(t, raw, opts)
	assert.True(t, reduced.Contains(knowledge.TestRheumPanel), "the panel still covers the other serologies")
	assert.False(t, reduced.Contains("ANA"))
}

func TestPlanBuilder_RheumatologicSuppression(t *testing.T) {
	raw := baseIntake()
	raw.Exam = []string{"Malar Rash"}

	tests := []struct {
		name      string
		opts      PlanOptions
		wantPanel bool
	}{
		{"suppressed without suspicion", PlanOptions{}, false},
		{"suspicion flag", PlanOptions{RheumatologicSuspicion: true}, true},
		{"named toggle", PlanOptions{Toggles: []string{knowledge.ToggleRheumatologicSuspicion}}, true},
		{"unrelated toggle", PlanOptions{Toggles: []string{"something_else"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, candidates := buildPlan(t, raw, tt.opts)

			sle, ok := findCandidate(candidates, "Systemic Lupus Erythematosus")
			require.True(t, ok)
			require.Equal(t, 4, sle.Score)

			assert.Equal(t, tt.wantPanel, plan.Contains(knowledge.TestRheumPanel))
			assert.False(t, plan.Contains("ANA"))
			assert.Contains(t, plan.Tests(domain.TierImmediate), "Urinalysis")
		})
	}
}

func TestPlanBuilder_ConditionalBaselines(t *testing.T) {
	raw := baseIntake()
	raw.Exposures = []string{"High-Risk Sexual Exposure", "Travel (Sub-Saharan Africa)"}

	plan, _ := buildPlan(t, raw, PlanOptions{})

	assert.Contains(t, plan.Tests(domain.TierImmediate), knowledge.TestHIVScreen)
	assert.Contains(t, plan.Tests(domain.TierImmediate), "Malaria Thick/Thin Smear x3")
	assert.Contains(t, plan.Tests(domain.TierTargeted), "RPR")
	assert.Contains(t, plan.Tests(domain.TierTargeted), "Hepatitis B/C Serologies")

	raw.Immune = domain.ImmuneStatus{Kind: domain.ImmuneHIV, CD4: intPtr(500)}
	plan, candidates := buildPlan(t, raw, PlanOptions{})
	_, ok := findCandidate(candidates, "Acute HIV Infection")
	assert.False(t, ok)
	assert.True(t, plan.Contains(knowledge.TestHIVScreen), "baseline does not depend on surviving candidates")
}

func TestPlanBuilder_PriorWorkupOnlyRemoves(t *testing.T) {
	raw := baseIntake()
	raw.MaxTempF = 103.0
	raw.HeartRate = 86
	raw.FeverDays = 30
	raw.Exposures = []string{"Travel (South Asia)", "High-Risk Sexual Exposure", "Spelunking/Guano"}
	raw.Symptoms = []string{"Night Sweats", "Weight Loss", "Sore Throat"}
	raw.Exam = []string{"Lymphadenopathy", "Splenomegaly", "New Murmur"}
	raw.Labs = []string{"Pancytopenia", "Elevated LDH"}

	candidates, patient := evaluate(t, raw)
	builder := defaultPlanBuilder()
	full := builder.Build(candidates, patient, PlanOptions{})

	priors := [][]string{
		{"Negative Blood Cx x3"},
		{"Normal TTE", "Negative HIV Ag/Ab"},
		{"CT Chest/Abdomen/Pelvis (Unremarkable)", "Negative Urine Histo Ag"},
		{"Baseline labs done (CBC, CMP, UA)", "Negative QuantiFERON", "Negative Malaria Smears"},
		{"Unrecognized Prior Result"},
	}
	for _, prior := range priors {
		withPrior := *patient
		withPrior.PriorWorkup = domain.NewFindingSet(prior...)

		reduced := builder.Build(candidates, &withPrior, PlanOptions{})
		satisfied := knowledge.Default().Rules().Satisfied(withPrior.PriorWorkup)

		for _, tier := range domain.AllTiers {
			for _, test := range reduced.Tests(tier) {
				fullTier, ok := full.TierOf(test)
				require.True(t, ok, "%s appeared only after adding %v", test, prior)
				assert.Equal(t, fullTier, tier, test)
				assert.False(t, satisfied[test], "%s is satisfied by %v", test, prior)
			}
		}
		assert.Equal(t, full.Len()-reduced.Len(), countSatisfied(full, satisfied), "prior %v", prior)
	}
}

func countSatisfied(plan domain.Plan, satisfied map[string]bool) int {
	n := 0
	for _, test := range plan.All() {
		if satisfied[test] {
			n++
		}
	}
	return n
}

func TestPlanBuilder_CandidateOrdersReachPlan(t *testing.T) {
	raw := baseIntake()
	raw.Exposures = []string{"Cat Scratch", "Tick Bite (Lone Star)"}
	raw.Labs = []string{"Leukopenia", "Thrombocytopenia"}

	plan, candidates := buildPlan(t, raw, PlanOptions{})
	rules := knowledge.Default().Rules()

	for _, c := range candidates {
		for _, o := range c.Orders {
			tier, ok := plan.TierOf(rules.Canonical(o.Test))
			require.True(t, ok, "%s from %s is missing", o.Test, c.Name())
			assert.LessOrEqual(t, int(tier), int(o.Tier))
		}
	}
	tier, _ := plan.TierOf(knowledge.TestDoxycycline)
	assert.Equal(t, domain.TierImmediate, tier)
}

func TestPlanOptions_Enabled(t *testing.T) {
	assert.False(t, PlanOptions{}.Enabled(knowledge.ToggleRheumatologicSuspicion))
	assert.True(t, PlanOptions{RheumatologicSuspicion: true}.Enabled(knowledge.ToggleRheumatologicSuspicion))
	assert.False(t, PlanOptions{RheumatologicSuspicion: true}.Enabled("other"))
	assert.True(t, PlanOptions{Toggles: []string{"other"}}.Enabled("other"))
}
