package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/service"
)

// RunConsultParams defines parameters for the run_consult tool
type RunConsultParams struct {
	Intake      service.RawIntake   `json:"intake"`
	PlanOptions service.PlanOptions `json:"plan_options,omitempty"`
}

// BuildPlanResult is the structured payload of build_plan.
type BuildPlanResult struct {
	Plan       domain.Plan `json:"plan"`
	Candidates []string    `json:"candidates"`
}

// RunConsultResult is the structured payload of run_consult.
type RunConsultResult struct {
	CaseID string `json:"case_id,omitempty"`
	*service.ConsultResult
}

// ListConditionsParams defines parameters for the list_conditions tool
type ListConditionsParams struct {
	Category string `json:"category,omitempty"`
}

// IntakeOptionsParams takes no arguments.
type IntakeOptionsParams struct{}

// GetCaseParams defines parameters for the get_case tool
type GetCaseParams struct {
	CaseID string `json:"case_id"`
}

func (s *Server) handleEvaluateDifferential(ctx context.Context, req *mcp.CallToolRequest, params service.RawIntake) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolEvaluateDifferential).Info("Tool invoked")

	result, err := s.consults.Differential(ctx, &params)
	if err != nil {
		return s.createErrorResult("Differential evaluation failed", err), nil, nil
	}

	summary := fmt.Sprintf("%d candidate(s)", len(result.Candidates))
	if len(result.Candidates) > 0 {
		top := result.Candidates[0]
		summary = fmt.Sprintf("%s; leading: %s (score %d)", summary, top.Name, top.Score)
	}
	return s.createJSONResult(summary, result)
}

func (s *Server) handleBuildPlan(ctx context.Context, req *mcp.CallToolRequest, params RunConsultParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolBuildPlan).Info("Tool invoked")

	result, err := s.consults.Run(ctx, &service.ConsultRequest{
		RawIntake:   params.Intake,
		PlanOptions: params.PlanOptions,
	})
	if err != nil {
		return s.createErrorResult("Plan build failed", err), nil, nil
	}

	payload := BuildPlanResult{
		Plan:       result.Plan,
		Candidates: make([]string, 0, len(result.Candidates)),
	}
	for _, c := range result.Candidates {
		payload.Candidates = append(payload.Candidates, c.Name)
	}
	return s.createJSONResult(fmt.Sprintf("%d test(s) across %d candidate(s)", result.Plan.Len(), len(payload.Candidates)), payload)
}

func (s *Server) handleRunConsult(ctx context.Context, req *mcp.CallToolRequest, params RunConsultParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolRunConsult).Info("Tool invoked")

	result, err := s.consults.Run(ctx, &service.ConsultRequest{
		RawIntake:   params.Intake,
		PlanOptions: params.PlanOptions,
	})
	if err != nil {
		return s.createErrorResult("Consult failed", err), nil, nil
	}

	payload := RunConsultResult{ConsultResult: result}
	if s.cases != nil {
		payload.CaseID = s.cases.Record(result)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode consult: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: result.Note},
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func (s *Server) handleGetCase(ctx context.Context, req *mcp.CallToolRequest, params GetCaseParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolGetCase).Info("Tool invoked")

	if params.CaseID == "" {
		return s.createErrorResult("Missing required parameter", domain.NewValidationError("case_id", "case_id is required", nil)), nil, nil
	}

	entry, err := s.cases.Get(params.CaseID)
	if err != nil {
		return s.createErrorResult("Case lookup failed", err), nil, nil
	}
	return s.createJSONResult(entry.Result.Note, entry)
}

func (s *Server) handleListConditions(ctx context.Context, req *mcp.CallToolRequest, params ListConditionsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolListConditions).Debug("Tool invoked")

	conditions := s.consults.Conditions()
	if params.Category != "" {
		filtered := conditions[:0:0]
		for _, c := range conditions {
			if c.Category == params.Category {
				filtered = append(filtered, c)
			}
		}
		conditions = filtered
	}

	return s.createJSONResult(fmt.Sprintf("%d condition(s)", len(conditions)), conditions)
}

func (s *Server) handleIntakeOptions(ctx context.Context, req *mcp.CallToolRequest, params IntakeOptionsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolIntakeOptions).Debug("Tool invoked")

	return s.createJSONResult("Intake options", map[string]any{
		"sections":     service.IntakeOptions,
		"prior_workup": s.consults.KnowledgeBase().Rules().PriorWorkupLabels(),
	})
}

// createJSONResult returns a one-line summary followed by the JSON payload.
func (s *Server) createJSONResult(summary string, payload any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error [%s]: %s", domain.ErrorCode(err), message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}
	s.logger.WithError(err).WithField("code", domain.ErrorCode(err)).Info("Tool call rejected")

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
