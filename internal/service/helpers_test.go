package service

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/knowledge"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func intPtr(v int) *int {
	return &v
}

// baseIntake is a febrile, immunocompetent adult with an appropriate heart rate and no
// findings checked.
func baseIntake() RawIntake {
	return RawIntake{
		Age:       45,
		Sex:       "Male",
		Immune:    domain.ImmuneStatus{Kind: domain.ImmuneNormal},
		MaxTempF:  101.0,
		HeartRate: 110,
		FeverDays: 10,
	}
}

func normalize(t *testing.T, raw RawIntake) *domain.PatientContext {
	t.Helper()
	patient, err := NewFindingNormalizer(testLogger(), domain.DefaultClinicalConfig()).Normalize(&raw)
	require.NoError(t, err)
	return patient
}

func evaluate(t *testing.T, raw RawIntake) ([]domain.Candidate, *domain.PatientContext) {
	t.Helper()
	patient := normalize(t, raw)
	return NewDifferentialEngine(testLogger()).Evaluate(knowledge.Default(), patient), patient
}

func findCandidate(candidates []domain.Candidate, name string) (domain.Candidate, bool) {
	for _, c := range candidates {
		if c.Name() == name {
			return c, true
		}
	}
	return domain.Candidate{}, false
}

func candidateNames(candidates []domain.Candidate) []string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name()
	}
	return names
}

type recordingObserver struct {
	outcomes []string
	tests    []int
}

func (r *recordingObserver) ObserveConsult(outcome string, _ int, planTests int, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
	r.tests = append(r.tests, planTests)
}
