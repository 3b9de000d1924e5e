package knowledge

import (
	"sync"

	"github.com/fuo-consult-server/internal/domain"
)

// Canonical test names referenced by the plan rules.
const (
	TestBloodCultures     = "Blood Cultures x3"
	TestBoneMarrowBiopsy  = "Bone Marrow Biopsy with Cultures"
	TestUrineHistoAntigen = "Urine Histoplasma Antigen"
	TestCTChest           = "CT Chest"
	TestCTChestAbdPelvis  = "CT Chest/Abdomen/Pelvis"
	TestTTE               = "TTE"
	TestTEE               = "TEE"
	TestRheumPanel        = "Rheumatologic Serology Panel"
	TestHIVScreen         = "HIV-1/2 Ag/Ab (4th Gen)"
	TestDoxycycline       = "START Doxycycline (Empiric)"
)

// Findings with special meaning in the built-in table.
const (
	FindingProstheticValve    domain.Finding = "Prosthetic Heart Valve"
	FindingHighRiskSexual     domain.Finding = "High-Risk Sexual Exposure"
	FindingSubSaharanTravel   domain.Finding = "Travel (Sub-Saharan Africa)"
	FindingNewBetaLactamSulfa domain.Finding = "New Beta-Lactam/Sulfa"
	FindingNewAnticonvulsant  domain.Finding = "New Anticonvulsant"
)

var (
	defaultOnce sync.Once
	defaultBase *Base
)

// Default returns the built-in knowledge base. It is built once and shared.
func Default() *Base {
	defaultOnce.Do(func() {
		defaultBase = MustNew(DefaultConditions(), DefaultRules())
	})
	return defaultBase
}

func trig(f string, w int) domain.Trigger {
	return domain.Trigger{Finding: domain.Finding(f), Weight: w}
}

func order(test string, tier domain.Tier) domain.Order {
	return domain.Order{Test: test, Tier: tier}
}

// DefaultConditions returns a fresh copy of the built-in condition table. Declaration
// order is significant: it breaks score ties.
func DefaultConditions() []domain.Condition {
	const (
		t0 = domain.TierImmediate
		t1 = domain.TierTargeted
		t2 = domain.TierSecondLine
		t3 = domain.TierAdvanced
	)

	ozarks := []string{"Missouri", "Arkansas", "Oklahoma", "Kansas"}
	spottedFeverBelt := []string{"Missouri", "Arkansas", "Oklahoma", "Tennessee", "North Carolina"}
	ohioMississippi := []string{"Missouri", "Illinois", "Indiana", "Kentucky", "Ohio", "Tennessee", "Arkansas", "Mississippi"}
	greatLakes := []string{"Wisconsin", "Minnesota", "Michigan", "Missouri", "Arkansas", "Kentucky"}
	immunocompromised := []domain.ImmuneKind{domain.ImmuneHIV, domain.ImmuneTransplant, domain.ImmuneBiologic, domain.ImmuneChemotherapy}

	return []domain.Condition{
		{
			Name:     "Hemophagocytic Lymphohistiocytosis (HLH)",
			Category: domain.CategoryCritical,
			Triggers: []domain.Trigger{
				trig("Ferritin > 3000", 10),
				trig("Splenomegaly", 3),
				trig("Pancytopenia", 3),
				trig("Hypertriglyceridemia", 2),
			},
			Orders: []domain.Order{
				order("Ferritin", t1),
				order("Soluble CD25 (IL-2R)", t1),
				order("Fibrinogen", t1),
				order("Triglycerides", t1),
				order("Bone Marrow Biopsy", t3),
			},
			Pearl: "Medical emergency. Calculate the HScore and send soluble CD25 immediately.",
		},
		{
			Name:     "Febrile Neutropenia",
			Category: domain.CategoryCritical,
			Triggers: []domain.Trigger{
				trig(string(domain.FindingNeutropenia), 6),
				trig(string(domain.FindingChemotherapy), 2),
			},
			Orders: []domain.Order{
				order("Blood Cx x2 (Peripheral + Line)", t0),
				order("START Empiric Anti-Pseudomonal Beta-Lactam", t0),
				order(TestCTChest, t2),
			},
			Pearl: "Antibiotics within 60 minutes of triage. Do not wait for a source.",
		},
		{
			Name:     "Prosthetic Valve Endocarditis",
			Category: domain.CategoryCritical,
			Triggers: []domain.Trigger{
				trig("New Murmur", 3),
				trig("Embolic Phenomena", 3),
				trig("Splinter Hemorrhages", 2),
			},
			Gates: []domain.Gate{
				domain.RequireAnyFinding{Findings: []domain.Finding{FindingProstheticValve}},
				domain.ForceInclude{
					Finding: FindingProstheticValve,
					OrderOverride: []domain.Order{
						order("Blood Cx x3 (Pre-Antibiotic)", t0),
						order(TestTEE, t1),
					},
				},
			},
			Orders: []domain.Order{
				order("Blood Cx x3 (Pre-Antibiotic)", t0),
				order(TestTEE, t2),
			},
			Pearl: "Any fever with a prosthetic valve is endocarditis until proven otherwise. TTE is insensitive; go to TEE.",
		},
		{
			Name:     "Native Valve Endocarditis",
			Category: domain.CategoryInfectious,
			Triggers: []domain.Trigger{
				trig("New Murmur", 5),
				trig("Injection Drug Use", 4),
				trig("Embolic Phenomena", 4),
				trig("Splinter Hemorrhages", 3),
			},
			Orders: []domain.Order{
				order("Blood Cx x3 (Pre-Antibiotic)", t0),
				order(TestTTE, t1),
				order(TestTEE, t2),
			},
			Pearl: "Modified Duke criteria. Three sets of cultures before the first dose.",
		},
		{
			Name:     "Rocky Mountain Spotted Fever",
			Category: domain.CategoryZoonotic,
			Triggers: []domain.Trigger{
				trig("Tick Bite (Dog/Wood)", 4),
				trig("Rash (Palms/Soles)", 4),
				trig("Thrombocytopenia", 2),
				trig("Hyponatremia", 2),
				trig("Headache", 1),
			},
			Gates: []domain.Gate{
				domain.EndemicRegionBonus{Regions: spottedFeverBelt, Bonus: 1},
			},
			Orders: []domain.Order{
				order(TestDoxycycline, t0),
				order("RMSF Serology (IgG/IgM)", t1),
			},
			Pearl: "Never wait for serology. Mortality rises sharply when doxycycline is delayed past day 5.",
		},
		{
			Name:     "Ehrlichiosis",
			Category: domain.CategoryZoonotic,
			Triggers: []domain.Trigger{
				trig("Tick Bite (Lone Star)", 4),
				trig("Leukopenia", 3),
				trig("Thrombocytopenia", 3),
				trig("Elevated LFTs", 2),
			},
			Gates: []domain.Gate{
				domain.EndemicRegionBonus{Regions: spottedFeverBelt, Bonus: 1},
			},
			Orders: []domain.Order{
				order(TestDoxycycline, t0),
				order("Ehrlichia PCR (Blood)", t1),
				order("Peripheral Smear (Morulae)", t1),
			},
			Pearl: "Leukopenia plus thrombocytopenia plus transaminitis after a tick bite is Ehrlichia until proven otherwise.",
		},
		{
			Name:     "Tularemia (Typhoidal)",
			Category: domain.CategoryZoonotic,
			Triggers: []domain.Trigger{
				trig(string(domain.FindingRelativeBradycardia), 5),
				trig("Lawn Mowing / Rabbit Exposure", 4),
				trig("Ulcer with Regional Lymphadenopathy", 4),
				trig("Tick Bite", 3),
			},
			Gates: []domain.Gate{
				domain.EndemicRegionBonus{Regions: ozarks, Bonus: 1},
			},
			Orders: []domain.Order{
				order("Tularemia Agglutination", t1),
				order("Blood Cx (Extended Incubation)", t0),
			},
			Pearl: "Pulse-temperature dissociation is a classic clue. Warn the lab: biosafety hazard.",
		},
		{
			Name:     "Brucellosis",
			Category: domain.CategoryZoonotic,
			Triggers: []domain.Trigger{
				trig("Unpasteurized Dairy", 5),
				trig("Farm animals", 2),
				trig("Joint Pain", 2),
				trig(string(domain.FindingRelativeBradycardia), 2),
				trig("Night Sweats", 1),
			},
			Orders: []domain.Order{
				order("Brucella Serology", t1),
				order("Blood Cx (Extended Incubation)", t0),
			},
			Pearl: "Undulant fever with sacroiliitis. Cultures need prolonged incubation.",
		},
		{
			Name:     "Q Fever",
			Category: domain.CategoryZoonotic,
			Triggers: []domain.Trigger{
				trig("Parturient Animal Exposure", 5),
				trig("Farm animals", 3),
				trig("Elevated LFTs", 2),
				trig("Headache", 1),
			},
			Orders: []domain.Order{
				order("Coxiella Serology (Phase I/II)", t1),
				order(TestTTE, t2),
			},
			Pearl: "Phase I IgG above 1:800 suggests chronic infection; screen valves.",
		},
		{
			Name:     "Bartonellosis",
			Category: domain.CategoryZoonotic,
			Triggers: []domain.Trigger{
				trig("Cat Scratch", 5),
				trig("Lymphadenopathy", 3),
				trig("Splenomegaly", 1),
			},
			Orders: []domain.Order{
				order("Bartonella Serology", t1),
			},
			Pearl: "Hepatosplenic cat-scratch disease is a classic cause of FUO in children and young adults.",
		},
		{
			Name:     "Typhoid (Enteric Fever)",
			Category: domain.CategoryInfectious,
			Triggers: []domain.Trigger{
				trig("Travel (South Asia)", 5),
				trig(string(domain.FindingRelativeBradycardia), 4),
				trig("Rose Spots", 3),
				trig("Abdominal Pain", 2),
			},
			Orders: []domain.Order{
				order("Blood Cx x3 (Pre-Antibiotic)", t0),
				order("Stool Culture", t1),
			},
			Pearl: "Blood cultures are positive in only half of cases; marrow culture is the most sensitive.",
		},
		{
			Name:     "Malaria",
			Category: domain.CategoryInfectious,
			Triggers: []domain.Trigger{
				trig(string(FindingSubSaharanTravel), 5),
				trig("Cyclic Fevers", 4),
				trig("Travel (South Asia)", 2),
				trig("Thrombocytopenia", 2),
			},
			Orders: []domain.Order{
				order("Malaria Thick/Thin Smear x3", t0),
				order("Rapid Malaria Antigen", t0),
			},
			Pearl: "One negative smear does not exclude malaria. Repeat every 12-24 hours x3.",
		},
		{
			Name:     "Miliary Tuberculosis",
			Category: domain.CategoryInfectious,
			Triggers: []domain.Trigger{
				trig("TB Exposure / Incarceration", 4),
				trig("Foreign Birth (TB-Endemic Country)", 3),
				trig("Night Sweats", 2),
				trig("Weight Loss", 2),
				trig(string(domain.FindingProlongedFever), 1),
			},
			Orders: []domain.Order{
				order("QuantiFERON-TB Gold", t1),
				order("Sputum AFB Smear/Culture x3", t1),
				order(TestCTChest, t2),
				order("Bone Marrow Biopsy (AFB Culture)", t3),
			},
			Pearl: "IGRA is negative in up to a quarter of miliary disease. Tissue is the issue.",
		},
		{
			Name:     "Acute HIV Infection",
			Category: domain.CategoryInfectious,
			Triggers: []domain.Trigger{
				trig(string(FindingHighRiskSexual), 4),
				trig("Sore Throat", 2),
				trig("Rash (Diffuse)", 2),
				trig("Lymphadenopathy", 2),
				trig("Oral Ulcers", 2),
			},
			Gates: []domain.Gate{
				domain.ExcludeImmune{Kinds: []domain.ImmuneKind{domain.ImmuneHIV}},
			},
			Orders: []domain.Order{
				order(TestHIVScreen, t0),
				order("HIV-1 RNA PCR", t1),
			},
			Pearl: "The 4th generation assay can be negative in the first two weeks; send viral load if suspicion is high.",
		},
		{
			Name:     "EBV Mononucleosis",
			Category: domain.CategoryInfectious,
			Triggers: []domain.Trigger{
				trig("Atypical Lymphocytes", 4),
				trig("Sore Throat", 3),
				trig("Lymphadenopathy", 2),
				trig("Splenomegaly", 2),
			},
			Gates: []domain.Gate{
				domain.AgeBelow{Years: 40},
			},
			Orders: []domain.Order{
				order("Monospot / EBV Serologies", t1),
			},
			Pearl: "Avoid amoxicillin. Counsel no contact sports while the spleen is enlarged.",
		},
		{
			Name:     "Histoplasmosis (Dissem)",
			Category: domain.CategoryEndemicFungal,
			Triggers: []domain.Trigger{
				trig("Spelunking/Guano", 5),
				trig("Pancytopenia", 4),
				trig("Oral Ulcers", 4),
				trig("Splenomegaly", 3),
			},
			Gates: []domain.Gate{
				domain.EndemicRegionBonus{Regions: ohioMississippi, Bonus: 2},
			},
			Orders: []domain.Order{
				order("Urine Histo Ag", t1),
				order("Ferritin", t1),
				order("Bone Marrow Biopsy (Fungal Culture)", t3),
			},
			Pearl: "Adrenal insufficiency mimic. Ferritin can be strikingly high.",
		},
		{
			Name:     "Blastomycosis",
			Category: domain.CategoryEndemicFungal,
			Triggers: []domain.Trigger{
				trig("Verrucous Skin Lesions", 5),
				trig("Outdoor Recreation near Waterways", 3),
				trig("Pulmonary Infiltrate", 3),
				trig("Cough", 1),
			},
			Gates: []domain.Gate{
				domain.EndemicRegionBonus{Regions: greatLakes, Bonus: 1},
			},
			Orders: []domain.Order{
				order("Urine Blastomyces Antigen", t1),
				order(TestCTChest, t2),
				order("Fungal Culture (Sputum/Tissue)", t2),
			},
			Pearl: "Lung plus skin lesions in a hunter or canoeist. Cross-reacts with the Histoplasma antigen.",
		},
		{
			Name:     "Disseminated MAC",
			Category: domain.CategoryOpportunistic,
			Triggers: []domain.Trigger{
				trig("Elevated Alkaline Phosphatase", 3),
				trig("Night Sweats", 2),
				trig("Weight Loss", 2),
				trig("Diarrhea", 2),
				trig("Lymphadenopathy", 1),
			},
			Gates: []domain.Gate{
				domain.RequireImmune{Kinds: []domain.ImmuneKind{domain.ImmuneHIV}},
				domain.CD4Ceiling{Below: 50},
			},
			Orders: []domain.Order{
				order("AFB Blood Culture", t1),
				order(TestCTChestAbdPelvis, t2),
			},
			Pearl: "Isolated alkaline phosphatase elevation with CD4 under 50.",
		},
		{
			Name:     "Pneumocystis Pneumonia (PCP)",
			Category: domain.CategoryOpportunistic,
			Triggers: []domain.Trigger{
				trig("Dyspnea", 3),
				trig("Hypoxemia", 3),
				trig("Dry Cough", 2),
				trig("Elevated LDH", 2),
			},
			Gates: []domain.Gate{
				domain.RequireImmune{Kinds: immunocompromised},
				domain.CD4Ceiling{Below: 200},
			},
			Orders: []domain.Order{
				order("Beta-D-Glucan", t1),
				order("Induced Sputum PCP DFA", t1),
				order(TestCTChest, t2),
				order("Bronchoscopy with BAL", t3),
			},
			Pearl: "Exertional desaturation with a near-normal chest film. Beta-D-glucan is sensitive.",
		},
		{
			Name:     "Cryptococcosis",
			Category: domain.CategoryOpportunistic,
			Triggers: []domain.Trigger{
				trig("Headache", 3),
				trig("Altered Mental Status", 3),
				trig("Umbilicated Skin Papules", 3),
			},
			Gates: []domain.Gate{
				domain.RequireImmune{Kinds: []domain.ImmuneKind{domain.ImmuneHIV, domain.ImmuneTransplant}},
				domain.CD4Ceiling{Below: 100},
			},
			Orders: []domain.Order{
				order("Serum Cryptococcal Antigen", t1),
				order("Lumbar Puncture with Opening Pressure", t2),
			},
			Pearl: "A positive serum CrAg mandates a lumbar puncture with opening pressure.",
		},
		{
			Name:     "CMV Disease",
			Category: domain.CategoryOpportunistic,
			Triggers: []domain.Trigger{
				trig("Leukopenia", 3),
				trig("Elevated LFTs", 2),
				trig("Diarrhea", 2),
				trig("Thrombocytopenia", 1),
			},
			Gates: []domain.Gate{
				domain.RequireImmune{Kinds: []domain.ImmuneKind{domain.ImmuneTransplant}},
				domain.TransplantWindowBonus{MinDays: 30, MaxDays: 180, Bonus: 3},
			},
			Orders: []domain.Order{
				order("CMV PCR (Quantitative)", t1),
			},
			Pearl: "Peak risk is 1-6 months post-transplant, especially D+/R-.",
		},
		{
			Name:     "Invasive Aspergillosis",
			Category: domain.CategoryOpportunistic,
			Triggers: []domain.Trigger{
				trig(string(domain.FindingNeutropenia), 4),
				trig("Pulmonary Infiltrate", 3),
				trig("Hemoptysis", 3),
				trig("Pleuritic Chest Pain", 2),
			},
			Gates: []domain.Gate{
				domain.RequireImmune{Kinds: []domain.ImmuneKind{domain.ImmuneTransplant, domain.ImmuneChemotherapy}},
				domain.TransplantOrgan{Organs: []string{"Lung", "Bone Marrow"}},
			},
			Orders: []domain.Order{
				order("Serum Galactomannan", t1),
				order("Beta-D-Glucan", t1),
				order(TestCTChest, t2),
				order("Bronchoscopy with BAL", t3),
			},
			Pearl: "Halo sign on CT in a neutropenic host. Galactomannan is falsely negative on mold-active prophylaxis.",
		},
		{
			Name:     "Drug-Induced Fever",
			Category: domain.CategoryNonInfectious,
			Triggers: []domain.Trigger{
				trig(string(domain.FindingRelativeBradycardia), 4),
				trig(string(FindingNewBetaLactamSulfa), 3),
				trig(string(FindingNewAnticonvulsant), 3),
				trig("Eosinophilia", 2),
				trig("Patient looks 'well'", 2),
			},
			Gates: []domain.Gate{
				domain.RequireAnyFinding{Findings: []domain.Finding{FindingNewBetaLactamSulfa, FindingNewAnticonvulsant}},
			},
			Orders: []domain.Order{
				order("Discontinue Suspect Agent", t0),
			},
			Pearl: "Look for the well-appearing febrile patient. Fever resolves within 72 hours of stopping the drug.",
		},
		{
			Name:     "Adult Onset Still's Disease",
			Category: domain.CategoryRheumatologic,
			Triggers: []domain.Trigger{
				trig("Ferritin > 1000", 5),
				trig("Salmon Rash", 5),
				trig("Quotidian Fever (Spikes daily)", 4),
				trig("Joint Pain", 2),
				trig("Sore Throat", 2),
			},
			Orders: []domain.Order{
				order("Ferritin", t1),
				order("ANA", t1),
				order("RF", t1),
				order("Glycosylated Ferritin", t2),
			},
			Pearl: "Yamaguchi criteria. A diagnosis of exclusion; glycosylated ferritin under 20% supports it.",
		},
		{
			Name:     "Temporal Arteritis (GCA)",
			Category: domain.CategoryRheumatologic,
			Triggers: []domain.Trigger{
				trig("Jaw Claudication", 5),
				trig("Visual Disturbance", 4),
				trig("Scalp Tenderness", 3),
				trig("ESR > 100", 3),
				trig("Headache", 2),
			},
			Gates: []domain.Gate{
				domain.AgeAbove{Years: 50},
			},
			Orders: []domain.Order{
				order("ESR", t0),
				order("CRP", t0),
				order("Temporal Artery Ultrasound", t2),
				order("Temporal Artery Biopsy", t3),
			},
			Pearl: "Start steroids before the biopsy if vision is threatened.",
		},
		{
			Name:     "Systemic Lupus Erythematosus",
			Category: domain.CategoryRheumatologic,
			Triggers: []domain.Trigger{
				trig("Malar Rash", 4),
				trig("Serositis", 3),
				trig("Joint Pain", 2),
				trig("Oral Ulcers", 2),
				trig("Pancytopenia", 1),
			},
			Orders: []domain.Order{
				order("ANA", t1),
				order("Anti-dsDNA", t1),
				order("Complement C3/C4", t1),
				order("Urinalysis", t0),
			},
			Pearl: "A negative ANA makes lupus very unlikely.",
		},
		{
			Name:     "ANCA-Associated Vasculitis",
			Category: domain.CategoryRheumatologic,
			Triggers: []domain.Trigger{
				trig("Mononeuritis Multiplex", 4),
				trig("Sinusitis/Epistaxis", 3),
				trig("Hematuria", 3),
				trig("Pulmonary Infiltrate", 2),
			},
			Orders: []domain.Order{
				order("ANCA", t1),
				order("Urinalysis", t0),
				order(TestCTChest, t2),
				order("Tissue Biopsy (Kidney/Lung)", t3),
			},
			Pearl: "Active urine sediment plus lung findings is pulmonary-renal syndrome until proven otherwise.",
		},
		{
			Name:     "Lymphoma",
			Category: domain.CategoryMalignancy,
			Triggers: []domain.Trigger{
				trig("Night Sweats", 3),
				trig("Weight Loss", 3),
				trig("Lymphadenopathy", 3),
				trig("Splenomegaly", 2),
				trig("Elevated LDH", 2),
				trig(string(domain.FindingProlongedFever), 1),
			},
			Orders: []domain.Order{
				order("LDH", t1),
				order(TestCTChestAbdPelvis, t2),
				order("PET-CT", t2),
				order("Excisional Lymph Node Biopsy", t3),
			},
			Pearl: "Excisional rather than needle biopsy. Pel-Ebstein fever is rare but classic for Hodgkin.",
		},
	}
}

// DefaultRules returns the built-in plan rules.
func DefaultRules() PlanRules {
	const (
		t0 = domain.TierImmediate
		t1 = domain.TierTargeted
	)

	rheumSerologies := []string{"ANA", "RF", "Anti-CCP", "ANCA", "Anti-dsDNA", "Complement C3/C4"}
	classes := map[string]TestClass{TestRheumPanel: ClassRheumatologicSerology}
	for _, t := range rheumSerologies {
		classes[t] = ClassRheumatologicSerology
	}
	for _, t := range []string{
		TestBoneMarrowBiopsy, "Bronchoscopy with BAL", "Temporal Artery Biopsy",
		"Tissue Biopsy (Kidney/Lung)", "Excisional Lymph Node Biopsy", "Lumbar Puncture with Opening Pressure",
	} {
		classes[t] = ClassInvasive
	}

	return PlanRules{
		Synonyms: map[string]string{
			"Blood Cx x2":                         TestBloodCultures,
			"Blood Cx x3":                         TestBloodCultures,
			"Blood Cx x3 (Pre-Antibiotic)":        TestBloodCultures,
			"Blood Cx x2 (Peripheral + Line)":     TestBloodCultures,
			"Blood Cx (Extended Incubation)":      TestBloodCultures,
			"Bone Marrow Biopsy":                  TestBoneMarrowBiopsy,
			"Bone Marrow Biopsy (Fungal Culture)": TestBoneMarrowBiopsy,
			"Bone Marrow Biopsy (AFB Culture)":    TestBoneMarrowBiopsy,
			"Urine Histo Ag":                      TestUrineHistoAntigen,
		},
		Supersessions: []Supersession{
			{Broader: TestCTChestAbdPelvis, Narrower: []string{TestCTChest}},
			{Broader: TestTEE, Narrower: []string{TestTTE}},
		},
		Panels: []Panel{
			{Name: TestRheumPanel, Members: rheumSerologies, MinMembers: 2},
		},
		UniversalBaseline: []domain.Order{
			order("CBC with Differential", t0),
			order("CMP", t0),
			order(TestBloodCultures, t0),
			order("Urinalysis", t0),
			order("ESR", t0),
			order("CRP", t0),
		},
		ConditionalBaselines: []ConditionalBaseline{
			{
				Finding: FindingHighRiskSexual,
				Orders: []domain.Order{
					order(TestHIVScreen, t0),
					order("RPR", t1),
					order("Hepatitis B/C Serologies", t1),
				},
			},
			{
				Finding: FindingSubSaharanTravel,
				Orders: []domain.Order{
					order("Malaria Thick/Thin Smear x3", t0),
				},
			},
		},
		Stewardship: map[string][]string{
			"Negative Blood Cx x3":                   {TestBloodCultures},
			"Negative HIV Ag/Ab":                     {TestHIVScreen},
			"Negative Malaria Smears":                {"Malaria Thick/Thin Smear x3", "Rapid Malaria Antigen"},
			"Negative Urine Histo Ag":                {"Urine Histo Ag"},
			"Normal TTE":                             {TestTTE},
			"Negative QuantiFERON":                   {"QuantiFERON-TB Gold"},
			"Negative ANA":                           {"ANA"},
			"CT Chest/Abdomen/Pelvis (Unremarkable)": {TestCTChestAbdPelvis, TestCTChest},
			"Negative Monospot":                      {"Monospot / EBV Serologies"},
			"Baseline labs done (CBC, CMP, UA)":      {"CBC with Differential", "CMP", "Urinalysis"},
		},
		TestClasses: classes,
		Suppressions: []SuppressionRule{
			{
				Name:           "rheumatologic-serologies-require-suspicion",
				Class:          ClassRheumatologicSerology,
				Tiers:          []domain.Tier{domain.TierTargeted, domain.TierSecondLine},
				Toggle:         ToggleRheumatologicSuspicion,
				ExemptCategory: domain.CategoryRheumatologic,
				ExemptMinScore: 6,
			},
		},
	}
}
