// Package mcp exposes the consult pipeline as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/fuo-consult-server/internal/caselog"
	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/service"
)

// Tool names.
const (
	ToolEvaluateDifferential = "evaluate_differential"
	ToolBuildPlan            = "build_plan"
	ToolRunConsult           = "run_consult"
	ToolListConditions       = "list_conditions"
	ToolIntakeOptions        = "intake_options"
	ToolGetCase              = "get_case"
)

// Server represents the FUO consult MCP server
type Server struct {
	config    *domain.Config
	mcpServer *mcp.Server
	consults  *service.ConsultService
	cases     *caselog.Log
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance. cases may be nil, in which case get_case is
// not offered.
func NewServer(cfg *domain.Config, logger *logrus.Logger, consults *service.ConsultService, cases *caselog.Log) (*Server, error) {
	if consults == nil {
		return nil, fmt.Errorf("consult service is required")
	}

	serverInfo := &mcp.Implementation{
		Name:    cfg.MCP.ServerName,
		Version: cfg.MCP.ServerVersion,
	}

	server := &Server{
		config:    cfg,
		mcpServer: mcp.NewServer(serverInfo, nil),
		consults:  consults,
		cases:     cases,
		logger:    logger,
	}

	if err := server.registerCapabilities(); err != nil {
		return nil, fmt.Errorf("failed to register capabilities: %w", err)
	}

	return server, nil
}

// Start runs the server on stdio until ctx is cancelled or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"name":       s.config.MCP.ServerName,
		"version":    s.config.MCP.ServerVersion,
		"conditions": s.consults.KnowledgeBase().Len(),
	}).Info("Starting FUO consult MCP server")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

// registerCapabilities registers all MCP tools
func (s *Server) registerCapabilities() error {
	s.logger.Debug("Registering MCP capabilities...")

	if err := s.registerConsultTools(); err != nil {
		return fmt.Errorf("failed to register consult tools: %w", err)
	}

	if err := s.registerReferenceTools(); err != nil {
		return fmt.Errorf("failed to register reference tools: %w", err)
	}

	s.logger.Debug("Successfully registered all MCP capabilities")
	return nil
}

func (s *Server) registerConsultTools() error {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolEvaluateDifferential,
		Description: "Normalize a fever-of-unknown-origin intake and return the ranked differential with the evidence behind each score.",
	}, s.handleEvaluateDifferential)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolBuildPlan,
		Description: "Return the tiered diagnostic plan for an intake, after consolidation, stewardship against prior workup and suppression.",
	}, s.handleBuildPlan)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolRunConsult,
		Description: "Run the full consult: ranked differential, tiered diagnostic plan and the formatted consult note.",
	}, s.handleRunConsult)

	if s.cases != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        ToolGetCase,
			Description: "Fetch a recent consult by the case_id returned from run_consult.",
		}, s.handleGetCase)
	}

	s.logger.Debug("Registered consult tools")
	return nil
}

func (s *Server) registerReferenceTools() error {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolListConditions,
		Description: "List the conditions in the knowledge base with their triggers, gates and orders.",
	}, s.handleListConditions)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolIntakeOptions,
		Description: "List the checkbox options of each intake section and the recognised prior-workup labels.",
	}, s.handleIntakeOptions)

	s.logger.Debug("Registered reference tools")
	return nil
}
