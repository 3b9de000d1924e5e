package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fuo-consult-server/internal/caselog"
	"github.com/fuo-consult-server/internal/config"
	"github.com/fuo-consult-server/internal/knowledge"
	"github.com/fuo-consult-server/internal/logging"
	"github.com/fuo-consult-server/internal/mcp"
	"github.com/fuo-consult-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	// stdout carries the protocol, so logs always go to stderr.
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	kb, err := knowledge.FromConfig(cfg.Knowledge)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load knowledge base")
	}

	cases, err := caselog.FromConfig(logger, cfg.CaseLog)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create case log")
	}

	consults := service.NewConsultService(logger, kb, cfg.Clinical, nil)

	// Create MCP server
	mcpServer, err := mcp.NewServer(cfg, logger, consults, cases)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down MCP server...")
		cancel()
	}()

	// Start MCP server
	if err := mcpServer.Start(ctx); err != nil {
		logger.WithError(err).Fatal("MCP server failed")
	}

	logger.Info("FUO consult MCP server stopped")
}
