package service

import (
	"fmt"
	"strings"

	"github.com/fuo-consult-server/internal/domain"
)

// Assessment bands, in the order they appear in the note.
const (
	BandCritical       = "CRITICAL CONSIDERATIONS"
	BandMostConsistent = "MOST CONSISTENT WITH"
	BandAlsoConsider   = "ALSO CONSIDER"
	BandLessLikely     = "LESS LIKELY"
)

// Score floors for the non-critical bands.
const (
	mostConsistentMinScore = 6
	alsoConsiderMinScore   = 3
)

// NoSyndromicPattern is the assessment sentence used when no candidate survives.
const NoSyndromicPattern = "No syndromic pattern identified from the reported findings. Proceed with the baseline workup and revisit the history and exam."

// NoteRenderer assembles the consult note. Output depends only on its inputs.
type NoteRenderer struct{}

// NewNoteRenderer creates a note renderer
func NewNoteRenderer() *NoteRenderer {
	return &NoteRenderer{}
}

// Band returns the assessment band a candidate belongs to.
func Band(c domain.Candidate) string {
	switch {
	case c.Category() == domain.CategoryCritical:
		return BandCritical
	case c.Score >= mostConsistentMinScore:
		return BandMostConsistent
	case c.Score >= alsoConsiderMinScore:
		return BandAlsoConsider
	default:
		return BandLessLikely
	}
}

// Render produces the note text.
func (r *NoteRenderer) Render(patient *domain.PatientContext, candidates []domain.Candidate, plan domain.Plan) string {
	var sb strings.Builder

	sb.WriteString("ID CONSULT NOTE: FEVER OF UNKNOWN ORIGIN\n")
	sb.WriteString(r.header(patient))
	sb.WriteString("\n")

	sb.WriteString("\n")
	if patient.Findings.Len() > 0 {
		fmt.Fprintf(&sb, "Pertinent positives: %s.\n", strings.Join(patient.Findings.Sorted(), ", "))
	} else {
		sb.WriteString("Pertinent positives: none reported.\n")
	}
	if patient.PriorWorkup.Len() > 0 {
		fmt.Fprintf(&sb, "Prior workup: %s.\n", strings.Join(patient.PriorWorkup.Sorted(), "; "))
	}

	sb.WriteString("\nASSESSMENT\n")
	if len(candidates) == 0 {
		sb.WriteString(NoSyndromicPattern + "\n")
	} else {
		r.writeBands(&sb, candidates)
	}

	sb.WriteString("\nPLAN\n")
	tiers := plan.NonEmptyTiers()
	if len(tiers) == 0 {
		sb.WriteString("No additional testing indicated.\n")
	}
	for i, tier := range tiers {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s:\n", tier.Label())
		for _, test := range plan.Tests(tier) {
			fmt.Fprintf(&sb, "[ ] %s\n", test)
		}
	}

	return sb.String()
}

func (r *NoteRenderer) header(p *domain.PatientContext) string {
	var sb strings.Builder

	demo := fmt.Sprintf("%dyo", p.Age)
	if p.Sex != "" {
		demo += " " + p.Sex
	}
	fmt.Fprintf(&sb, "%s | %s", demo, p.Immune.Summary())
	if p.Region != "" {
		fmt.Fprintf(&sb, " | Region: %s", p.Region)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Fever profile: Tmax %.1f°F, HR %d bpm, fever for %d %s.\n",
		p.MaxTempF, p.HeartRate, p.FeverDays, plural(p.FeverDays, "day", "days"))

	if p.HasFinding(domain.FindingRelativeBradycardia) {
		fmt.Fprintf(&sb, "Relative bradycardia (Faget's sign) is present: HR %d bpm at %.1f°F.", p.HeartRate, p.MaxTempF)
	} else {
		sb.WriteString("Heart rate is appropriate for the degree of fever.")
	}
	if p.HasFinding(domain.FindingProlongedFever) {
		sb.WriteString(" Duration meets the classic definition of FUO (>3 weeks).")
	}

	return sb.String()
}

func (r *NoteRenderer) writeBands(sb *strings.Builder, candidates []domain.Candidate) {
	banded := make(map[string][]domain.Candidate)
	for _, c := range candidates {
		band := Band(c)
		banded[band] = append(banded[band], c)
	}

	first := true
	for _, band := range []string{BandCritical, BandMostConsistent, BandAlsoConsider, BandLessLikely} {
		if len(banded[band]) == 0 {
			continue
		}
		if !first {
			sb.WriteString("\n")
		}
		first = false

		fmt.Fprintf(sb, "%s:\n", band)
		for _, c := range banded[band] {
			fmt.Fprintf(sb, "- %s (Score: %d): Driven by %s.", c.Name(), c.Score, drivers(c))
			if c.Condition.Pearl != "" {
				fmt.Fprintf(sb, " Pearl: %s", c.Condition.Pearl)
			}
			sb.WriteString("\n")
		}
	}
}

func drivers(c domain.Candidate) string {
	if len(c.Evidence) == 0 {
		return "gate criteria only"
	}
	return strings.Join(c.Evidence, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
