package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fuo-consult-server/internal/api"
	"github.com/fuo-consult-server/internal/caselog"
	"github.com/fuo-consult-server/internal/config"
	"github.com/fuo-consult-server/internal/knowledge"
	"github.com/fuo-consult-server/internal/logging"
	"github.com/fuo-consult-server/internal/metrics"
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

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	kb, err := knowledge.FromConfig(cfg.Knowledge)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load knowledge base")
	}

	collector := metrics.NewCollector()

	cases, err := caselog.FromConfig(logger, cfg.CaseLog)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create case log")
	}

	consults := service.NewConsultService(logger, kb, cfg.Clinical, collector)
	server := api.NewServer(cfg, logger, consults, cases, collector)

	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"conditions":  kb.Len(),
		"environment": cfg.Environment,
	}).Info("Starting FUO consult server")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
