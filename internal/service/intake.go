package service

import (
	"github.com/fuo-consult-server/internal/domain"
)

// RawIntake is the form state supplied by a client: demographics, vitals, immune status and
// the checked options of each intake section.
type RawIntake struct {
	Age       int                 `json:"age"`
	Sex       string              `json:"sex,omitempty"`
	Immune    domain.ImmuneStatus `json:"immune"`
	MaxTempF  float64             `json:"max_temp_f"`
	HeartRate int                 `json:"heart_rate"`
	FeverDays int                 `json:"fever_days"`
	Region    string              `json:"region,omitempty"`

	Exposures   []string `json:"exposures,omitempty"`
	Symptoms    []string `json:"symptoms,omitempty"`
	Exam        []string `json:"exam,omitempty"`
	Labs        []string `json:"labs,omitempty"`
	Medications []string `json:"medications,omitempty"`
	// Findings are canonical labels passed through unchanged.
	Findings []string `json:"findings,omitempty"`

	PriorWorkup []string `json:"prior_workup,omitempty"`
}

// Intake form sections.
const (
	SectionExposures   = "exposures"
	SectionSymptoms    = "symptoms"
	SectionExam        = "exam"
	SectionLabs        = "labs"
	SectionMedications = "medications"
)

// IntakeOptions lists the checkbox options offered per section.
var IntakeOptions = map[string][]string{
	SectionExposures: {
		"Tick Bite (Dog/Wood)",
		"Tick Bite (Lone Star)",
		"Lawn Mowing / Rabbit Exposure",
		"Spelunking/Guano",
		"Outdoor Recreation near Waterways",
		"Rural Living",
		"Goat/Sheep Birthing",
		"Unpasteurized Dairy",
		"Cat Scratch",
		"Travel (Sub-Saharan Africa)",
		"Travel (South Asia)",
		"High-Risk Sexual Exposure",
		"IV Drug Use",
		"TB Exposure / Incarceration",
		"Foreign Birth (TB-Endemic Country)",
		"Prosthetic Heart Valve",
	},
	SectionSymptoms: {
		"Headache",
		"Night Sweats",
		"Weight Loss",
		"Joint Pain",
		"Sore Throat",
		"Dyspnea",
		"Dry Cough",
		"Cough",
		"Hemoptysis",
		"Pleuritic Chest Pain",
		"Abdominal Pain",
		"Diarrhea",
		"Jaw Claudication",
		"Visual Disturbance",
		"Altered Mental Status",
		"Daily Fever Spikes",
		"Cyclic Fevers",
		"Sinusitis/Epistaxis",
	},
	SectionExam: {
		"Splenomegaly",
		"Lymphadenopathy",
		"Rash (Palms/Soles)",
		"Rash (Diffuse)",
		"Rash (Salmon)",
		"Malar Rash",
		"Rose Spots",
		"Oral Ulcers",
		"New Murmur",
		"Splinter Hemorrhages",
		"Embolic Phenomena",
		"Scalp Tenderness",
		"Verrucous Skin Lesions",
		"Umbilicated Skin Papules",
		"Ulcer with Regional Lymphadenopathy",
		"Serositis",
		"Mononeuritis Multiplex",
		"Hypoxemia",
		"Patient looks 'well'",
	},
	SectionLabs: {
		"Ferritin > 1000",
		"Ferritin > 3000",
		"Pancytopenia",
		"Leukopenia",
		"Thrombocytopenia",
		"ANC < 500",
		"Eosinophilia",
		"Atypical Lymphocytes",
		"Hypertriglyceridemia",
		"Hyponatremia",
		"Elevated LFTs",
		"Elevated Alkaline Phosphatase",
		"Elevated LDH",
		"ESR > 100",
		"Hematuria",
		"Pulmonary Infiltrate",
	},
	SectionMedications: {
		"New Beta-Lactam/Sulfa",
		"New Anticonvulsant",
	},
}

// optionFindings maps form options that do not name a finding one-to-one. Options absent
// from the table map to themselves.
var optionFindings = map[string][]domain.Finding{
	"Rural Living":          {"Rural living", "Farm animals"},
	"Tick Bite (Dog/Wood)":  {"Tick Bite (Dog/Wood)", "Tick Bite"},
	"Tick Bite (Lone Star)": {"Tick Bite (Lone Star)", "Tick Bite"},
	"Goat/Sheep Birthing":   {"Parturient Animal Exposure", "Farm animals"},
	"IV Drug Use":           {"Injection Drug Use"},
	"Dry Cough":             {"Dry Cough", "Cough"},
	"Daily Fever Spikes":    {"Quotidian Fever (Spikes daily)"},
	"Rash (Salmon)":         {"Salmon Rash"},
	"Ferritin > 3000":       {"Ferritin > 3000", "Ferritin > 1000"},
	"ANC < 500":             {domain.FindingNeutropenia},
}
