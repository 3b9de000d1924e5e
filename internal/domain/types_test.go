package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindingSet_AddIsIdempotent(t *testing.T) {
	fs := NewFindingSet("Splenomegaly", "  Splenomegaly ", "", "Pancytopenia")

	assert.Equal(t, 2, fs.Len())
	assert.True(t, fs.Has("Splenomegaly"))
	assert.True(t, fs.Has("Pancytopenia"))
	assert.False(t, fs.Has(""))
	assert.Equal(t, []string{"Pancytopenia", "Splenomegaly"}, fs.Sorted())
}

func TestCategory_IsValid(t *testing.T) {
	tests := []struct {
		value    Category
		expected bool
	}{
		{CategoryCritical, true},
		{CategoryEndemicFungal, true},
		{CategoryRheumatologic, true},
		{Category("psychiatric"), false},
		{Category(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			if tt.value.IsValid() != tt.expected {
				t.Errorf("Expected IsValid()=%v for %q", tt.expected, tt.value)
			}
		})
	}
}

func TestTier_ParseAndNames(t *testing.T) {
	tests := []struct {
		input    string
		expected Tier
		wantErr  bool
	}{
		{"immediate", TierImmediate, false},
		{"0", TierImmediate, false},
		{"Targeted", TierTargeted, false},
		{"second_line", TierSecondLine, false},
		{"3", TierAdvanced, false},
		{"4", 0, true},
		{"urgent", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTier(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	assert.False(t, Tier(4).IsValid())
	assert.Equal(t, "Tier 3 - Advanced / Invasive", TierAdvanced.Label())
}

func TestPlan_JSONUsesTierNames(t *testing.T) {
	plan := NewPlan()
	plan[TierImmediate] = []string{"CBC with Differential"}
	plan[TierAdvanced] = []string{"Bone Marrow Biopsy"}

	data, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.JSONEq(t, `{"immediate":["CBC with Differential"],"advanced":["Bone Marrow Biopsy"]}`, string(data))

	var decoded Plan
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, plan, decoded)
}

func TestPlan_Queries(t *testing.T) {
	plan := NewPlan()
	plan[TierTargeted] = []string{"Urine Histoplasma Antigen", "Ferritin"}
	plan[TierSecondLine] = []string{"CT Chest"}

	tier, ok := plan.TierOf("Ferritin")
	assert.True(t, ok)
	assert.Equal(t, TierTargeted, tier)
	assert.False(t, plan.Contains("Blood Cultures x3"))
	assert.Equal(t, 3, plan.Len())
	assert.Equal(t, []Tier{TierTargeted, TierSecondLine}, plan.NonEmptyTiers())
	assert.Equal(t, []string{"Urine Histoplasma Antigen", "Ferritin", "CT Chest"}, plan.All())
}

func TestImmuneStatus_Summary(t *testing.T) {
	cd4 := 85
	days := 45

	assert.Equal(t, "Immunocompetent", ImmuneStatus{Kind: ImmuneNormal}.Summary())
	assert.Equal(t, "HIV+ (CD4 85)", ImmuneStatus{Kind: ImmuneHIV, CD4: &cd4}.Summary())
	assert.Equal(t, "Transplant recipient (Kidney, 45 days post-transplant)",
		ImmuneStatus{Kind: ImmuneTransplant, TransplantOrgan: "Kidney", DaysSinceTransplant: &days}.Summary())
	assert.Equal(t, "On chemotherapy (neutropenic)", ImmuneStatus{Kind: ImmuneChemotherapy, Neutropenic: true}.Summary())
}

func TestGates_Validate(t *testing.T) {
	tests := []struct {
		name    string
		gate    Gate
		wantErr bool
	}{
		{"age above ok", AgeAbove{Years: 50}, false},
		{"age above negative", AgeAbove{Years: -1}, true},
		{"require immune empty", RequireImmune{}, true},
		{"require immune unknown kind", RequireImmune{Kinds: []ImmuneKind{"asplenia"}}, true},
		{"cd4 ceiling zero", CD4Ceiling{Below: 0}, true},
		{"transplant window inverted", TransplantWindowBonus{MinDays: 100, MaxDays: 30, Bonus: 2}, true},
		{"region without bonus", EndemicRegionBonus{Regions: []string{"Missouri"}}, true},
		{"force include bad override", ForceInclude{Finding: "Prosthetic Heart Valve", OrderOverride: []Order{{Test: "TEE", Tier: 7}}}, true},
		{"force include ok", ForceInclude{Finding: "Prosthetic Heart Valve"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gate.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEndemicRegionBonus_Matches(t *testing.T) {
	g := EndemicRegionBonus{Regions: []string{"Missouri", "Arkansas"}, Bonus: 1}

	assert.True(t, g.Matches("missouri"))
	assert.True(t, g.Matches(" Arkansas "))
	assert.False(t, g.Matches("Oregon"))
	assert.Equal(t, "Endemic region: Missouri (+1)", g.Label("Missouri"))
}

func TestIsDerived(t *testing.T) {
	tests := []struct {
		label    string
		expected bool
	}{
		{string(FindingRelativeBradycardia), true},
		{string(FindingProlongedFever), true},
		{" HIV ", true},
		{string(FindingNeutropenia), true},
		{string(CD4Below(200)), true},
		{string(TransplantOrganFinding("Kidney")), true},
		{"ANC < 500", false},
		{"Tick Bite", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDerived(tt.label))
		})
	}
}
