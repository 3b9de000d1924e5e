package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuo-consult-server/internal/caselog"
	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/knowledge"
	"github.com/fuo-consult-server/internal/metrics"
	"github.com/fuo-consult-server/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const rmsfIntake = `{
	"age": 45,
	"sex": "Male",
	"immune": {"kind": "normal"},
	"max_temp_f": 102.5,
	"heart_rate": 88,
	"fever_days": 9,
	"exposures": ["Tick Bite (Dog/Wood)"],
	"exam": ["Rash (Palms/Soles)"]
}`

type testServer struct {
	*Server
	cases     *caselog.Log
	collector *metrics.Collector
}

func newTestServer(t *testing.T, mutate func(cfg *domain.Config)) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &domain.Config{
		Clinical:  domain.DefaultClinicalConfig(),
		RateLimit: domain.RateLimitConfig{Enabled: false},
	}
	if mutate != nil {
		mutate(cfg)
	}

	collector := metrics.NewCollector()
	cases, err := caselog.New(logger, 10, time.Hour)
	require.NoError(t, err)
	consults := service.NewConsultService(logger, knowledge.Default(), cfg.Clinical, collector)

	srv := NewServer(cfg, logger, consults, cases, collector)
	srv.now = func() time.Time { return time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC) }
	return &testServer{Server: srv, cases: cases, collector: collector}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(knowledge.Default().Len()), body["conditions"])
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestConditions(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/v1/conditions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Conditions []service.ConditionView `json:"conditions"`
		Count      int                     `json:"count"`
	}
	decode(t, rec, &body)
	assert.Equal(t, knowledge.Default().Len(), body.Count)
	assert.Equal(t, "Hemophagocytic Lymphohistiocytosis (HLH)", body.Conditions[0].Name)
	assert.NotEmpty(t, body.Conditions[0].Orders)
}

func TestIntakeOptions(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/v1/intake-options", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sections    map[string][]string `json:"sections"`
		PriorWorkup []string            `json:"prior_workup"`
	}
	decode(t, rec, &body)
	assert.Contains(t, body.Sections[service.SectionExposures], "Tick Bite (Dog/Wood)")
	assert.Contains(t, body.PriorWorkup, "Negative Blood Cx x3")
}

func TestConsult(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/v1/consult", rmsfIntake)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		CaseID     string                  `json:"case_id"`
		Candidates []service.CandidateView `json:"candidates"`
		Plan       map[string][]string     `json:"plan"`
		Note       string                  `json:"note"`
	}
	decode(t, rec, &body)

	require.NotEmpty(t, body.Candidates)
	assert.Equal(t, "Rocky Mountain Spotted Fever", body.Candidates[0].Name)
	assert.Equal(t, 9, body.Candidates[0].Score)
	assert.Contains(t, body.Plan["immediate"], knowledge.TestDoxycycline)
	assert.Contains(t, body.Note, "ID CONSULT NOTE: FEVER OF UNKNOWN ORIGIN")

	require.NotEmpty(t, body.CaseID)
	entry, err := s.cases.Get(body.CaseID)
	require.NoError(t, err)
	assert.Equal(t, body.Note, entry.Result.Note)
}

func TestConsult_PlanOptions(t *testing.T) {
	s := newTestServer(t, nil)
	intake := `{"age": 35, "immune": {"kind": "normal"}, "max_temp_f": 101, "heart_rate": 105, "fever_days": 5, "exam": ["Malar Rash"]%s}`

	var body struct {
		Plan map[string][]string `json:"plan"`
	}

	rec := s.do(http.MethodPost, "/api/v1/consult", strings.Replace(intake, "%s", "", 1))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.NotContains(t, body.Plan["targeted"], knowledge.TestRheumPanel)

	rec = s.do(http.MethodPost, "/api/v1/consult",
		strings.Replace(intake, "%s", `, "plan_options": {"rheumatologic_suspicion": true}`, 1))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Contains(t, body.Plan["targeted"], knowledge.TestRheumPanel)
}

func TestConsult_ValidationError(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/v1/consult", `{"age": 45, "immune": {"kind": "hiv"}, "max_temp_f": 101, "heart_rate": 100}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr domain.APIError
	decode(t, rec, &apiErr)
	assert.Equal(t, domain.ErrCodeValidation, apiErr.Code)
	assert.Contains(t, apiErr.Details, "immune.cd4")
	assert.Equal(t, rec.Header().Get("X-Correlation-ID"), apiErr.RequestID)
	assert.Equal(t, 0, s.cases.Len())
}

func TestConsult_ClientCanceled(t *testing.T) {
	s := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consult", strings.NewReader(rmsfIntake)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, statusClientClosedRequest, rec.Code)
	var apiErr domain.APIError
	decode(t, rec, &apiErr)
	assert.Equal(t, domain.ErrCodeCanceled, apiErr.Code)
	assert.Equal(t, 0, s.cases.Len())
}

func TestConsult_MalformedJSON(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/v1/consult", `{"age": "old"`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr domain.APIError
	decode(t, rec, &apiErr)
	assert.Equal(t, domain.ErrCodeInvalidInput, apiErr.Code)
}

func TestDifferential(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/v1/differential", rmsfIntake)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	decode(t, rec, &body)
	assert.Contains(t, body, "candidates")
	assert.Contains(t, body, "findings")
	assert.NotContains(t, body, "plan")
	assert.NotContains(t, body, "note")
	assert.Equal(t, 0, s.cases.Len(), "differential-only calls are not logged")
}

func TestNoteExport(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/v1/note/export", rmsfIntake)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="fuo-consult-20261018-153000.txt"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "ID CONSULT NOTE: FEVER OF UNKNOWN ORIGIN\n"))
	assert.Contains(t, rec.Body.String(), "[ ] "+knowledge.TestDoxycycline)
}

func TestCases(t *testing.T) {
	s := newTestServer(t, nil)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/consult", rmsfIntake).Code)
	}

	rec := s.do(http.MethodGet, "/api/v1/cases?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Cases []caselog.Summary `json:"cases"`
		Count int               `json:"count"`
	}
	decode(t, rec, &list)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "Rocky Mountain Spotted Fever", list.Cases[0].TopCandidate)

	rec = s.do(http.MethodGet, "/api/v1/cases/"+list.Cases[0].ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entry struct {
		ID     string `json:"id"`
		Result struct {
			Note string `json:"note"`
		} `json:"result"`
	}
	decode(t, rec, &entry)
	assert.Equal(t, list.Cases[0].ID, entry.ID)
	assert.NotEmpty(t, entry.Result.Note)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/cases/unknown", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/cases?limit=zero", "").Code)
}

func TestCases_Disabled(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &domain.Config{Clinical: domain.DefaultClinicalConfig()}
	consults := service.NewConsultService(logger, knowledge.Default(), cfg.Clinical, nil)
	s := NewServer(cfg, logger, consults, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/consult", bytes.NewBufferString(rmsfIntake))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"case_id"`)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(http.MethodPost, "/api/v1/consult", rmsfIntake)

	rec := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fuo_consult_consults_total{outcome="matched"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/v1/consult"`)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *domain.Config) {
		cfg.RateLimit = domain.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}
	})

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/conditions", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/api/v1/conditions", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code, "health is not rate limited")
}
