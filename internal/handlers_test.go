package internal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubGate struct {
	allowed bool
	err     error
	calls   int
}

func (g *stubGate) Allow(ctx context.Context, key string) (bool, error) {
	g.calls++
	return g.allowed, g.err
}

func TestHealthHandler_AllHealthy(t *testing.T) {
	checks := map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return nil },
	}

	w := httptest.NewRecorder()
	HealthHandler(checks, createTestLogger())(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %s", body.Status)
	}
	if body.Services["redis"] != "connected" {
		t.Errorf("expected redis connected, got %s", body.Services["redis"])
	}
}

func TestHealthHandler_FailingDependency(t *testing.T) {
	checks := map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"nats":     func(context.Context) error { return errors.New("not connected") },
	}

	w := httptest.NewRecorder()
	HealthHandler(checks, createTestLogger())(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "degraded" {
		t.Errorf("expected degraded status, got %v", body["status"])
	}
}

func TestMetricsHandler_IncludesSchedulerStats(t *testing.T) {
	logger := createTestLogger()
	metrics := NewMetricsCollector(logger)
	metrics.RecordReply(ReplyActionable)
	scheduler := NewScheduler(SchedulerOptions{MaxConcurrent: 1}, &fakeProvider{}, logger, metrics)

	w := httptest.NewRecorder()
	MetricsHandler(metrics, scheduler, logger)(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := body["scheduler"]; !ok {
		t.Error("scheduler stats should be included")
	}
	if _, ok := body["replies"]; !ok {
		t.Error("reply counters should be included")
	}
}

func TestWithRateLimit(t *testing.T) {
	logger := createTestLogger()
	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	tests := []struct {
		name     string
		gate     *stubGate
		expected int
	}{
		{"allowed", &stubGate{allowed: true}, http.StatusOK},
		{"blocked", &stubGate{allowed: false}, http.StatusTooManyRequests},
		{"gate error", &stubGate{err: errors.New("redis down")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			withRateLimit(tt.gate, "ops", logger)(next)(w, httptest.NewRequest("GET", "/metrics", nil))
			if w.Code != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, w.Code)
			}
		})
	}
}

func TestWithRateLimit_NilGatePassesThrough(t *testing.T) {
	w := httptest.NewRecorder()
	withRateLimit(nil, "ops", createTestLogger())(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("expected handler to run, got %d", w.Code)
	}
}

func TestNewOpsServer_Routes(t *testing.T) {
	logger := createTestLogger()
	metrics := NewMetricsCollector(logger)
	srv := NewOpsServer(&Config{AppPort: "8000"}, map[string]HealthCheck{}, metrics, nil, nil, logger)

	if srv.Addr != ":8000" {
		t.Errorf("expected addr :8000, got %s", srv.Addr)
	}

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected /healthz 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("POST", "/metrics", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected POST /metrics 405, got %d", w.Code)
	}
}
