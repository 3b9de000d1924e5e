package domain

import (
	"fmt"
	"strings"
)

// Derived findings synthesized by the normalizer rather than picked on the intake form.
const (
	FindingRelativeBradycardia Finding = "Relative Bradycardia (Faget's)"
	FindingProlongedFever      Finding = "Prolonged Fever (>3 weeks)"
	FindingHIV                 Finding = "HIV"
	FindingTransplant          Finding = "Transplant Recipient"
	FindingBiologic            Finding = "Biologic Therapy"
	FindingChemotherapy        Finding = "Chemotherapy"
	FindingNeutropenia         Finding = "Neutropenia"
)

const (
	cd4Prefix        = "CD4 < "
	transplantPrefix = "Transplant: "
)

// CD4Thresholds are the ceilings for which a "CD4 < N" finding is derived.
var CD4Thresholds = []int{250, 200, 100, 50}

// CD4Below returns the derived finding for a CD4 ceiling, e.g. "CD4 < 200".
func CD4Below(n int) Finding {
	return Finding(fmt.Sprintf(cd4Prefix+"%d", n))
}

// TransplantOrganFinding returns the derived finding naming the transplanted organ.
func TransplantOrganFinding(organ string) Finding {
	return Finding(transplantPrefix + organ)
}

// IsDerived reports whether label names a finding that only the normalizer may produce from
// vitals, fever duration or immune status.
func IsDerived(label string) bool {
	label = strings.TrimSpace(label)
	switch Finding(label) {
	case FindingRelativeBradycardia, FindingProlongedFever, FindingHIV, FindingTransplant,
		FindingBiologic, FindingChemotherapy, FindingNeutropenia:
		return true
	}
	return strings.HasPrefix(label, cd4Prefix) || strings.HasPrefix(label, transplantPrefix)
}
