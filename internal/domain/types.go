// Package domain contains the core entities for fever-of-unknown-origin differential
// reasoning: findings, knowledge-base conditions and their gates, the per-consult
// patient context, ranked candidates and the tiered diagnostic plan.
//
// Everything in this package is plain data. Scoring, consolidation and rendering live in
// the service package; the static condition table lives in the knowledge package.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Finding is an opaque label for one observed patient attribute: a symptom, exposure,
// lab flag, demographic fact or a derived flag such as relative bradycardia.
type Finding string

// String returns the label.
func (f Finding) String() string {
	return string(f)
}

// FindingSet is an unordered set of findings. The zero value is not usable; build one
// with NewFindingSet.
type FindingSet map[Finding]struct{}

// NewFindingSet builds a set from the given labels, trimming whitespace and dropping empties.
func NewFindingSet(labels ...string) FindingSet {
	fs := make(FindingSet, len(labels))
	for _, l := range labels {
		fs.Add(Finding(l))
	}
	return fs
}

// Add inserts a finding. Adding an existing finding is a no-op.
func (fs FindingSet) Add(f Finding) {
	label := strings.TrimSpace(string(f))
	if label == "" {
		return
	}
	fs[Finding(label)] = struct{}{}
}

// Has reports whether the finding is present.
func (fs FindingSet) Has(f Finding) bool {
	_, ok := fs[f]
	return ok
}

// Len returns the number of findings.
func (fs FindingSet) Len() int {
	return len(fs)
}

// Sorted returns the labels in lexical order, for deterministic output.
func (fs FindingSet) Sorted() []string {
	out := make([]string, 0, len(fs))
	for f := range fs {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}

// Category classifies a condition for grouping, styling and note phrasing.
type Category string

const (
	CategoryCritical      Category = "critical"
	CategoryInfectious    Category = "infectious"
	CategoryZoonotic      Category = "zoonotic"
	CategoryEndemicFungal Category = "endemic-fungal"
	CategoryOpportunistic Category = "opportunistic"
	CategoryRheumatologic Category = "rheumatologic"
	CategoryMalignancy    Category = "malignancy"
	CategoryNonInfectious Category = "non-infectious"
)

// IsValid reports whether the category is one of the known classification tags.
func (c Category) IsValid() bool {
	switch c {
	case CategoryCritical, CategoryInfectious, CategoryZoonotic, CategoryEndemicFungal,
		CategoryOpportunistic, CategoryRheumatologic, CategoryMalignancy, CategoryNonInfectious:
		return true
	default:
		return false
	}
}

// String returns the tag.
func (c Category) String() string {
	return string(c)
}

// Tier is a priority/invasiveness bucket for diagnostic tests, from baseline labs (0) to
// advanced or invasive procedures (3).
type Tier int

const (
	TierImmediate  Tier = 0
	TierTargeted   Tier = 1
	TierSecondLine Tier = 2
	TierAdvanced   Tier = 3
)

// AllTiers lists the tiers in urgency order.
var AllTiers = []Tier{TierImmediate, TierTargeted, TierSecondLine, TierAdvanced}

// ErrInvalidTier is returned when parsing an unknown tier name.
var ErrInvalidTier = errors.New("invalid tier")

// IsValid reports whether the tier is within 0..3.
func (t Tier) IsValid() bool {
	return t >= TierImmediate && t <= TierAdvanced
}

// Name returns the machine name used as the plan's JSON key.
func (t Tier) Name() string {
	switch t {
	case TierImmediate:
		return "immediate"
	case TierTargeted:
		return "targeted"
	case TierSecondLine:
		return "second_line"
	case TierAdvanced:
		return "advanced"
	default:
		return fmt.Sprintf("tier_%d", int(t))
	}
}

// Label returns the human-readable heading used in the consult note.
func (t Tier) Label() string {
	switch t {
	case TierImmediate:
		return "Tier 0 - Immediate / Baseline"
	case TierTargeted:
		return "Tier 1 - Targeted Serologies & Antigens"
	case TierSecondLine:
		return "Tier 2 - Imaging & Second-Line Studies"
	case TierAdvanced:
		return "Tier 3 - Advanced / Invasive"
	default:
		return fmt.Sprintf("Tier %d", int(t))
	}
}

// String implements fmt.Stringer.
func (t Tier) String() string {
	return t.Name()
}

// MarshalText makes tiers usable as JSON object keys.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTier, int(t))
	}
	return []byte(t.Name()), nil
}

// UnmarshalText accepts either the machine name or the numeric form ("0".."3").
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier converts a tier name or number into a Tier.
func ParseTier(s string) (Tier, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, t := range AllTiers {
		if s == t.Name() || s == fmt.Sprintf("%d", int(t)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

// ImmuneKind enumerates the supported immune states.
type ImmuneKind string

const (
	ImmuneNormal       ImmuneKind = "normal"
	ImmuneHIV          ImmuneKind = "hiv"
	ImmuneTransplant   ImmuneKind = "transplant"
	ImmuneBiologic     ImmuneKind = "biologic"
	ImmuneChemotherapy ImmuneKind = "chemotherapy"
)

// IsValid reports whether the immune kind is known.
func (k ImmuneKind) IsValid() bool {
	switch k {
	case ImmuneNormal, ImmuneHIV, ImmuneTransplant, ImmuneBiologic, ImmuneChemotherapy:
		return true
	default:
		return false
	}
}

// Describe returns the phrase used in the note header.
func (k ImmuneKind) Describe() string {
	switch k {
	case ImmuneNormal:
		return "Immunocompetent"
	case ImmuneHIV:
		return "HIV+"
	case ImmuneTransplant:
		return "Transplant recipient"
	case ImmuneBiologic:
		return "On biologic therapy"
	case ImmuneChemotherapy:
		return "On chemotherapy"
	default:
		return "Unknown immune status"
	}
}

// ImmuneStatus holds the immune sub-object. CD4 is only meaningful for HIV; organ and
// days-since-transplant only for transplant recipients. Absent values are nil/empty.
type ImmuneStatus struct {
	Kind                ImmuneKind `json:"kind"`
	CD4                 *int       `json:"cd4,omitempty"`
	TransplantOrgan     string     `json:"transplant_organ,omitempty"`
	DaysSinceTransplant *int       `json:"days_since_transplant,omitempty"`
	Neutropenic         bool       `json:"neutropenic,omitempty"`
}

// Summary renders the immune status for the note header, e.g. "HIV+ (CD4 85)".
func (s ImmuneStatus) Summary() string {
	base := s.Kind.Describe()
	switch s.Kind {
	case ImmuneHIV:
		if s.CD4 != nil {
			return fmt.Sprintf("%s (CD4 %d)", base, *s.CD4)
		}
	case ImmuneTransplant:
		parts := []string{}
		if s.TransplantOrgan != "" {
			parts = append(parts, s.TransplantOrgan)
		}
		if s.DaysSinceTransplant != nil {
			parts = append(parts, fmt.Sprintf("%d days post-transplant", *s.DaysSinceTransplant))
		}
		if len(parts) > 0 {
			return fmt.Sprintf("%s (%s)", base, strings.Join(parts, ", "))
		}
	case ImmuneChemotherapy:
		if s.Neutropenic {
			return base + " (neutropenic)"
		}
	}
	return base
}

// PatientContext is the immutable per-consult value object produced by the normalizer.
// Callers must treat it as read-only once built.
type PatientContext struct {
	Age         int          `json:"age"`
	Sex         string       `json:"sex"`
	Immune      ImmuneStatus `json:"immune"`
	MaxTempF    float64      `json:"max_temp_f"`
	HeartRate   int          `json:"heart_rate"`
	FeverDays   int          `json:"fever_days"`
	Region      string       `json:"region,omitempty"`
	Findings    FindingSet   `json:"-"`
	PriorWorkup FindingSet   `json:"-"`
}

// HasFinding reports whether the finding is part of the normalized set.
func (p *PatientContext) HasFinding(f Finding) bool {
	return p.Findings != nil && p.Findings.Has(f)
}
