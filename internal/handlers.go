package internal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

const opsReadHeaderTimeout = 5 * time.Second

type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e APIError) Error() string {
	return e.Message
}

func NewAPIError(message string, status int) APIError {
	return APIError{Message: message, Status: status}
}

func writeError(w http.ResponseWriter, err error, logger *Logger, r *http.Request) {
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		apiErr = NewAPIError("Internal server error", http.StatusInternalServerError)
	}

	requestID := GetRequestID(r.Context())

	logger.Error("api_error").
		Component("http").
		Operation("write_error").
		HTTP(r.Method, r.URL.Path, apiErr.Status).
		Request(r.UserAgent(), r.RemoteAddr, requestID).
		Err(err).
		ErrorCode(strconv.Itoa(apiErr.Status)).
		Log()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":     apiErr.Message,
		"status":    apiErr.Status,
		"timestamp": time.Now().Unix(),
		"requestId": requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, logger *Logger, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("json_encode_failed").
			Component("http").
			Operation("write_json").
			Request("", "", GetRequestID(r.Context())).
			Err(err).
			Log()
	}
}

func withRateLimit(gate WindowGate, key string, logger *Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if gate == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			allowed, err := gate.Allow(r.Context(), key)
			if err != nil {
				writeError(w, NewAPIError("Rate limiter error", http.StatusInternalServerError), logger, r)
				return
			}
			if !allowed {
				logger.Warn("rate_limit_exceeded").
					Component("rate_limiter").
					Operation("check_limit").
					Request("", "", GetRequestID(r.Context())).
					Meta("key", key).
					Log()
				writeError(w, NewAPIError("Rate limit exceeded", http.StatusTooManyRequests), logger, r)
				return
			}
			next(w, r)
		}
	}
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandler runs every check and answers 503 when any of them fails.
func HealthHandler(checks map[string]HealthCheck, logger *Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		services := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				services[name] = "unavailable"
				status = http.StatusServiceUnavailable
				logger.Warn("health_check_failed").
					Component("health").
					Operation("check").
					Meta("service", name).
					Err(err).
					Log()
				continue
			}
			services[name] = "connected"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		writeJSON(w, status, map[string]interface{}{
			"status":    overall,
			"timestamp": time.Now().Unix(),
			"services":  services,
		}, logger, r)
	}
}

func MetricsHandler(metrics *MetricsCollector, scheduler *Scheduler, logger *Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("metrics_request").
			Component("metrics").
			Operation("get_metrics").
			Request("", "", GetRequestID(r.Context())).
			Log()

		data := metrics.GetMetrics()
		if scheduler != nil {
			data["scheduler"] = scheduler.Stats()
		}
		writeJSON(w, http.StatusOK, data, logger, r)
	}
}

// NewOpsServer serves the liveness and metrics endpoints.
func NewOpsServer(cfg *Config, checks map[string]HealthCheck, metrics *MetricsCollector, scheduler *Scheduler, gate WindowGate, logger *Logger) *http.Server {
	mw := NewLoggingMiddleware(logger, metrics)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", mw.Handler(HealthHandler(checks, logger)))
	mux.HandleFunc("GET /metrics", mw.Handler(withRateLimit(gate, "ops:metrics", logger)(MetricsHandler(metrics, scheduler, logger))))

	return &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           mux,
		ReadHeaderTimeout: opsReadHeaderTimeout,
	}
}
