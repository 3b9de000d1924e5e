package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fuo-consult-server/internal/caselog"
	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/export"
	"github.com/fuo-consult-server/internal/metrics"
	"github.com/fuo-consult-server/internal/middleware"
	"github.com/fuo-consult-server/internal/service"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// defaultCaseListLimit caps GET /api/v1/cases when no limit is given.
const defaultCaseListLimit = 50

// ConsultResponse is the body of POST /api/v1/consult.
type ConsultResponse struct {
	CaseID string `json:"case_id,omitempty"`
	*service.ConsultResult
}

// Server represents the HTTP server
type Server struct {
	config    *domain.Config
	logger    *logrus.Logger
	consults  *service.ConsultService
	cases     *caselog.Log
	collector *metrics.Collector
	router    *gin.Engine
	server    *http.Server
	now       func() time.Time
}

// NewServer creates a new HTTP server instance. cases and collector may be nil.
func NewServer(cfg *domain.Config, logger *logrus.Logger, consults *service.ConsultService, cases *caselog.Log, collector *metrics.Collector) *Server {
	// Set Gin mode based on environment
	if gin.Mode() != gin.TestMode {
		if cfg.Logging.Level == "debug" {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.AccessLog(logger))
	if collector != nil {
		router.Use(middleware.Metrics(collector))
	}

	server := &Server{
		config:    cfg,
		logger:    logger,
		consults:  consults,
		cases:     cases,
		collector: collector,
		router:    router,
		now:       time.Now,
	}

	server.setupRoutes()

	return server
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.collector != nil {
		s.router.GET("/metrics", gin.WrapH(s.collector.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	if rl := s.config.RateLimit; rl.Enabled {
		v1.Use(middleware.RateLimit(middleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst)))
	}
	{
		v1.GET("/conditions", s.handleConditions)
		v1.GET("/intake-options", s.handleIntakeOptions)
		v1.POST("/differential", s.handleDifferential)
		v1.POST("/consult", s.handleConsult)
		v1.POST("/note/export", s.handleNoteExport)
		v1.GET("/cases", s.handleListCases)
		v1.GET("/cases/:id", s.handleGetCase)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  s.now().UTC(),
		"version":    Version,
		"conditions": s.consults.KnowledgeBase().Len(),
	})
}

func (s *Server) handleConditions(c *gin.Context) {
	conditions := s.consults.Conditions()
	c.JSON(http.StatusOK, gin.H{
		"conditions": conditions,
		"count":      len(conditions),
	})
}

func (s *Server) handleIntakeOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sections":     service.IntakeOptions,
		"prior_workup": s.consults.KnowledgeBase().Rules().PriorWorkupLabels(),
	})
}

func (s *Server) handleDifferential(c *gin.Context) {
	var intake service.RawIntake
	if err := c.ShouldBindJSON(&intake); err != nil {
		s.badRequest(c, err)
		return
	}

	result, err := s.consults.Differential(c.Request.Context(), &intake)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleConsult(c *gin.Context) {
	result, ok := s.runConsult(c)
	if !ok {
		return
	}

	resp := ConsultResponse{ConsultResult: result}
	if s.cases != nil {
		resp.CaseID = s.cases.Record(result)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleNoteExport(c *gin.Context) {
	result, ok := s.runConsult(c)
	if !ok {
		return
	}

	filename := export.NoteFileName(s.now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(result.Note))
}

func (s *Server) handleListCases(c *gin.Context) {
	if s.cases == nil {
		s.writeError(c, fmt.Errorf("case log is disabled: %w", domain.ErrNotFound))
		return
	}

	limit := defaultCaseListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.badRequest(c, fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = n
	}

	cases := s.cases.Recent(limit)
	c.JSON(http.StatusOK, gin.H{
		"cases": cases,
		"count": len(cases),
	})
}

func (s *Server) handleGetCase(c *gin.Context) {
	if s.cases == nil {
		s.writeError(c, fmt.Errorf("case log is disabled: %w", domain.ErrNotFound))
		return
	}

	entry, err := s.cases.Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) runConsult(c *gin.Context) (*service.ConsultResult, bool) {
	var req service.ConsultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return nil, false
	}

	result, err := s.consults.Run(c.Request.Context(), &req)
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	return result, true
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, domain.NewAPIError(
		domain.ErrCodeInvalidInput,
		"Malformed request",
		err.Error(),
		c.GetString(middleware.CorrelationIDKey),
	))
}

// statusClientClosedRequest is the non-standard status logged when the client goes away
// before the consult finishes.
const statusClientClosedRequest = 499

// writeError maps a pipeline error onto the API error envelope.
func (s *Server) writeError(c *gin.Context, err error) {
	code := domain.ErrorCode(err)
	status := http.StatusInternalServerError
	message := "Internal server error"
	switch code {
	case domain.ErrCodeValidation:
		status = http.StatusBadRequest
		message = "Invalid intake"
	case domain.ErrCodeNotFound:
		status = http.StatusNotFound
		message = "Not found"
	case domain.ErrCodeCanceled:
		status = statusClientClosedRequest
		message = "Request canceled"
		s.logger.WithError(err).WithField("correlation_id", c.GetString(middleware.CorrelationIDKey)).Debug("Request canceled")
	default:
		s.logger.WithError(err).WithField("correlation_id", c.GetString(middleware.CorrelationIDKey)).Error("Request failed")
	}

	c.JSON(status, domain.NewAPIError(code, message, err.Error(), c.GetString(middleware.CorrelationIDKey)))
}
