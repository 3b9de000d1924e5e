package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fuo-consult-server/internal/domain"
)

// Accepted ranges for intake vitals.
const (
	minAge       = 0
	maxAge       = 120
	minTempF     = 95.0
	maxTempF     = 110.0
	minHeartRate = 20
	maxHeartRate = 250
)

// FindingNormalizer turns raw intake into a PatientContext. It performs no I/O.
type FindingNormalizer struct {
	logger   *logrus.Logger
	clinical domain.ClinicalConfig
}

// NewFindingNormalizer creates a normalizer. Zero thresholds fall back to the defaults.
func NewFindingNormalizer(logger *logrus.Logger, clinical domain.ClinicalConfig) *FindingNormalizer {
	defaults := domain.DefaultClinicalConfig()
	if clinical.BradycardiaTempF == 0 {
		clinical.BradycardiaTempF = defaults.BradycardiaTempF
	}
	if clinical.BradycardiaMaxHR == 0 {
		clinical.BradycardiaMaxHR = defaults.BradycardiaMaxHR
	}
	if clinical.ProlongedFeverDays == 0 {
		clinical.ProlongedFeverDays = defaults.ProlongedFeverDays
	}
	if clinical.DefaultRegion == "" {
		clinical.DefaultRegion = defaults.DefaultRegion
	}
	return &FindingNormalizer{
		logger:   logger,
		clinical: clinical,
	}
}

// Normalize validates the intake and builds the canonical finding set. All validation
// problems are reported together.
func (n *FindingNormalizer) Normalize(raw *RawIntake) (*domain.PatientContext, error) {
	if raw == nil {
		return nil, domain.NewValidationError("intake", "intake is required", nil)
	}
	if err := n.validate(raw); err != nil {
		return nil, fmt.Errorf("invalid intake: %w", err)
	}

	immune := raw.Immune
	if immune.Kind == "" {
		immune.Kind = domain.ImmuneNormal
	}
	immune.TransplantOrgan = strings.TrimSpace(immune.TransplantOrgan)

	region := strings.TrimSpace(raw.Region)
	if region == "" {
		region = n.clinical.DefaultRegion
	}

	patient := &domain.PatientContext{
		Age:         raw.Age,
		Sex:         strings.TrimSpace(raw.Sex),
		Immune:      immune,
		MaxTempF:    raw.MaxTempF,
		HeartRate:   raw.HeartRate,
		FeverDays:   raw.FeverDays,
		Region:      region,
		Findings:    domain.NewFindingSet(),
		PriorWorkup: domain.NewFindingSet(raw.PriorWorkup...),
	}

	// Derived labels are recomputed below, never taken from the intake.
	dropped := 0
	for _, section := range [][]string{raw.Exposures, raw.Symptoms, raw.Exam, raw.Labs, raw.Medications} {
		for _, option := range section {
			if domain.IsDerived(option) {
				dropped++
				continue
			}
			for _, f := range mapOption(option) {
				patient.Findings.Add(f)
			}
		}
	}
	for _, f := range raw.Findings {
		if domain.IsDerived(f) {
			dropped++
			continue
		}
		patient.Findings.Add(domain.Finding(f))
	}
	if dropped > 0 {
		n.logger.WithField("dropped", dropped).Debug("Ignored derived findings supplied on intake")
	}

	if n.HasRelativeBradycardia(raw.MaxTempF, raw.HeartRate) {
		patient.Findings.Add(domain.FindingRelativeBradycardia)
	}
	if raw.FeverDays >= n.clinical.ProlongedFeverDays {
		patient.Findings.Add(domain.FindingProlongedFever)
	}
	for _, f := range immuneFindings(immune) {
		patient.Findings.Add(f)
	}

	n.logger.WithFields(logrus.Fields{
		"findings":     patient.Findings.Len(),
		"prior_workup": patient.PriorWorkup.Len(),
		"immune":       immune.Kind,
		"region":       region,
	}).Debug("Normalized intake")

	return patient, nil
}

// HasRelativeBradycardia applies the Faget's sign rule: temperature at or above the threshold
// with a heart rate below the ceiling.
func (n *FindingNormalizer) HasRelativeBradycardia(tempF float64, heartRate int) bool {
	return tempF >= n.clinical.BradycardiaTempF && heartRate < n.clinical.BradycardiaMaxHR
}

// Clinical returns the effective thresholds.
func (n *FindingNormalizer) Clinical() domain.ClinicalConfig {
	return n.clinical
}

func (n *FindingNormalizer) validate(raw *RawIntake) error {
	var errs []error
	invalid := func(field, msg string, value interface{}) {
		errs = append(errs, domain.NewValidationError(field, msg, value))
	}

	if raw.Age < minAge || raw.Age > maxAge {
		invalid("age", fmt.Sprintf("must be between %d and %d", minAge, maxAge), raw.Age)
	}
	if raw.MaxTempF < minTempF || raw.MaxTempF > maxTempF {
		invalid("max_temp_f", fmt.Sprintf("must be between %.0f and %.0f", minTempF, maxTempF), raw.MaxTempF)
	}
	if raw.HeartRate < minHeartRate || raw.HeartRate > maxHeartRate {
		invalid("heart_rate", fmt.Sprintf("must be between %d and %d", minHeartRate, maxHeartRate), raw.HeartRate)
	}
	if raw.FeverDays < 0 {
		invalid("fever_days", "must not be negative", raw.FeverDays)
	}

	im := raw.Immune
	kind := im.Kind
	if kind == "" {
		kind = domain.ImmuneNormal
	}
	if !kind.IsValid() {
		invalid("immune.kind", "must be one of normal, hiv, transplant, biologic, chemotherapy", string(im.Kind))
	}
	switch kind {
	case domain.ImmuneHIV:
		if im.CD4 == nil {
			invalid("immune.cd4", "required when immune status is hiv", nil)
		} else if *im.CD4 < 0 {
			invalid("immune.cd4", "must not be negative", *im.CD4)
		}
	case domain.ImmuneTransplant:
		if strings.TrimSpace(im.TransplantOrgan) == "" {
			invalid("immune.transplant_organ", "required when immune status is transplant", nil)
		}
		if im.DaysSinceTransplant != nil && *im.DaysSinceTransplant < 0 {
			invalid("immune.days_since_transplant", "must not be negative", *im.DaysSinceTransplant)
		}
	}

	return errors.Join(errs...)
}

func mapOption(option string) []domain.Finding {
	option = strings.TrimSpace(option)
	if option == "" {
		return nil
	}
	if fs, ok := optionFindings[option]; ok {
		return fs
	}
	return []domain.Finding{domain.Finding(option)}
}

func immuneFindings(im domain.ImmuneStatus) []domain.Finding {
	var out []domain.Finding
	switch im.Kind {
	case domain.ImmuneHIV:
		out = append(out, domain.FindingHIV)
		if im.CD4 != nil {
			for _, threshold := range domain.CD4Thresholds {
				if *im.CD4 < threshold {
					out = append(out, domain.CD4Below(threshold))
				}
			}
		}
	case domain.ImmuneTransplant:
		out = append(out, domain.FindingTransplant)
		if im.TransplantOrgan != "" {
			out = append(out, domain.TransplantOrganFinding(im.TransplantOrgan))
		}
	case domain.ImmuneBiologic:
		out = append(out, domain.FindingBiologic)
	case domain.ImmuneChemotherapy:
		out = append(out, domain.FindingChemotherapy)
	}
	if im.Neutropenic {
		out = append(out, domain.FindingNeutropenia)
	}
	return out
}
