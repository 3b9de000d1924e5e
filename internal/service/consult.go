package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/knowledge"
)

// Consult outcomes reported to the observer.
const (
	OutcomeMatched   = "matched"
	OutcomeNoPattern = "no_pattern"
	OutcomeInvalid   = "invalid"
	OutcomeCanceled  = "canceled"
)

// ConsultObserver receives one observation per pipeline run.
type ConsultObserver interface {
	ObserveConsult(outcome string, candidates, planTests int, elapsed time.Duration)
}

// ConsultRequest is the intake plus plan options.
type ConsultRequest struct {
	RawIntake
	PlanOptions PlanOptions `json:"plan_options"`
}

// CandidateView is the transport shape of a ranked candidate.
type CandidateView struct {
	Rank     int            `json:"rank"`
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Score    int            `json:"score"`
	Band     string         `json:"band"`
	Evidence []string       `json:"evidence"`
	Orders   []domain.Order `json:"orders"`
	Pearl    string         `json:"pearl,omitempty"`
	Forced   bool           `json:"forced,omitempty"`
}

// DifferentialResult is the output of the normalizer and engine alone.
type DifferentialResult struct {
	Patient     *domain.PatientContext `json:"patient"`
	Findings    []string               `json:"findings"`
	PriorWorkup []string               `json:"prior_workup,omitempty"`
	Candidates  []CandidateView        `json:"candidates"`

	ranked []domain.Candidate
}

// Ranked returns the engine's candidates.
func (r *DifferentialResult) Ranked() []domain.Candidate {
	return r.ranked
}

// ConsultResult is the output of the full pipeline.
type ConsultResult struct {
	DifferentialResult
	Plan           domain.Plan   `json:"plan"`
	Note           string        `json:"note"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// ConditionView is the transport shape of a knowledge-base entry.
type ConditionView struct {
	Name     string           `json:"name"`
	Category string           `json:"category"`
	Triggers []domain.Trigger `json:"triggers"`
	Gates    []string         `json:"gates,omitempty"`
	Orders   []domain.Order   `json:"orders"`
	Pearl    string           `json:"pearl,omitempty"`
}

// ConsultService runs normalizer, engine, plan builder and renderer against one knowledge
// base. It holds no per-consult state and is safe for concurrent use.
type ConsultService struct {
	logger     *logrus.Logger
	kb         *knowledge.Base
	normalizer *FindingNormalizer
	engine     *DifferentialEngine
	planner    *PlanBuilder
	renderer   *NoteRenderer
	observer   ConsultObserver
}

// NewConsultService creates the pipeline. observer may be nil.
func NewConsultService(logger *logrus.Logger, kb *knowledge.Base, clinical domain.ClinicalConfig, observer ConsultObserver) *ConsultService {
	return &ConsultService{
		logger:     logger,
		kb:         kb,
		normalizer: NewFindingNormalizer(logger, clinical),
		engine:     NewDifferentialEngine(logger),
		planner:    NewPlanBuilder(logger, kb.Rules()),
		renderer:   NewNoteRenderer(),
		observer:   observer,
	}
}

// KnowledgeBase returns the knowledge base in use.
func (s *ConsultService) KnowledgeBase() *knowledge.Base {
	return s.kb
}

// Differential normalizes the intake and ranks candidates.
func (s *ConsultService) Differential(ctx context.Context, intake *RawIntake) (*DifferentialResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	patient, err := s.normalizer.Normalize(intake)
	if err != nil {
		return nil, err
	}
	ranked := s.engine.Evaluate(s.kb, patient)

	return &DifferentialResult{
		Patient:     patient,
		Findings:    patient.Findings.Sorted(),
		PriorWorkup: patient.PriorWorkup.Sorted(),
		Candidates:  candidateViews(ranked),
		ranked:      ranked,
	}, nil
}

// Run executes the full pipeline: normalize, evaluate, build the plan and render the note.
func (s *ConsultService) Run(ctx context.Context, req *ConsultRequest) (*ConsultResult, error) {
	start := time.Now()
	if req == nil {
		return nil, domain.NewValidationError("intake", "intake is required", nil)
	}

	diff, err := s.Differential(ctx, &req.RawIntake)
	if err != nil {
		if domain.IsCanceled(err) {
			s.observe(OutcomeCanceled, 0, 0, time.Since(start))
			s.logger.WithError(err).Debug("Consult canceled")
			return nil, fmt.Errorf("consult canceled: %w", err)
		}
		s.observe(OutcomeInvalid, 0, 0, time.Since(start))
		s.logger.WithError(err).Info("Consult rejected")
		return nil, fmt.Errorf("consult failed: %w", err)
	}

	plan := s.planner.Build(diff.ranked, diff.Patient, req.PlanOptions)
	note := s.renderer.Render(diff.Patient, diff.ranked, plan)

	result := &ConsultResult{
		DifferentialResult: *diff,
		Plan:               plan,
		Note:               note,
		ProcessingTime:     time.Since(start),
	}

	outcome := OutcomeMatched
	if len(diff.ranked) == 0 {
		outcome = OutcomeNoPattern
	}
	s.observe(outcome, len(diff.ranked), plan.Len(), result.ProcessingTime)

	fields := logrus.Fields{
		"candidates":      len(diff.ranked),
		"plan_tests":      plan.Len(),
		"processing_time": result.ProcessingTime,
	}
	if len(diff.ranked) > 0 {
		fields["top_candidate"] = diff.ranked[0].Name()
		fields["top_score"] = diff.ranked[0].Score
	}
	s.logger.WithFields(fields).Info("Consult completed")

	return result, nil
}

// Conditions lists the knowledge base in declaration order. Views own their slices.
func (s *ConsultService) Conditions() []ConditionView {
	conditions := s.kb.Conditions()
	views := make([]ConditionView, 0, len(conditions))
	for _, c := range conditions {
		views = append(views, ConditionView{
			Name:     c.Name,
			Category: string(c.Category),
			Triggers: slices.Clone(c.Triggers),
			Gates:    c.GateDescriptions(),
			Orders:   slices.Clone(c.Orders),
			Pearl:    c.Pearl,
		})
	}
	return views
}

func (s *ConsultService) observe(outcome string, candidates, tests int, elapsed time.Duration) {
	if s.observer != nil {
		s.observer.ObserveConsult(outcome, candidates, tests, elapsed)
	}
}

func candidateViews(ranked []domain.Candidate) []CandidateView {
	views := make([]CandidateView, 0, len(ranked))
	for i, c := range ranked {
		views = append(views, CandidateView{
			Rank:     i + 1,
			Name:     c.Name(),
			Category: string(c.Category()),
			Score:    c.Score,
			Band:     Band(c),
			Evidence: c.Evidence,
			Orders:   c.Orders,
			Pearl:    c.Condition.Pearl,
			Forced:   c.Forced,
		})
	}
	return views
}
