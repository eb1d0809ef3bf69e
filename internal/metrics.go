package internal

import (
	"context"
	"sort"
	"sync"
	"time"
)

const metricsReportInterval = time.Minute

type MetricsCollector struct {
	logger *Logger

	providerCalls    map[string]int64
	providerDuration map[string][]int64
	providerErrors   map[string]int64
	degradedLookups  int64
	replies          map[ReplyKind]int64
	replyFailures    int64
	taskFailures     int64
	httpRequests     map[string]int64

	mu sync.RWMutex
}

func NewMetricsCollector(logger *Logger) *MetricsCollector {
	return &MetricsCollector{
		logger:           logger,
		providerCalls:    make(map[string]int64),
		providerDuration: make(map[string][]int64),
		providerErrors:   make(map[string]int64),
		replies:          make(map[ReplyKind]int64),
		httpRequests:     make(map[string]int64),
	}
}

// RecordProviderCall tracks one outbound call. statusCode is 0 when no
// response was received.
func (mc *MetricsCollector) RecordProviderCall(endpoint string, duration time.Duration, statusCode int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.providerCalls[endpoint]++
	mc.providerDuration[endpoint] = append(mc.providerDuration[endpoint], duration.Milliseconds())
	if statusCode == 0 || statusCode >= 400 {
		mc.providerErrors[endpoint]++
	}
}

func (mc *MetricsCollector) RecordDegradedLookup() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.degradedLookups++
}

func (mc *MetricsCollector) RecordReply(kind ReplyKind) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.replies[kind]++
}

func (mc *MetricsCollector) RecordReplyFailure() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.replyFailures++
}

func (mc *MetricsCollector) RecordTaskFailure() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.taskFailures++
}

func (mc *MetricsCollector) RecordRequest(path string, duration time.Duration, statusCode int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.httpRequests[path]++

	mc.logger.Debug("request_recorded").
		Component("metrics").
		Operation("record_request").
		HTTP("", path, statusCode).
		Duration(duration).
		Log()
}

// Start reports a snapshot through the logger until ctx is done.
func (mc *MetricsCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(metricsReportInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mc.reportMetrics()
			}
		}
	}()
}

func (mc *MetricsCollector) reportMetrics() {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	mc.logger.Info("metrics_report").
		Component("metrics").
		Operation("report").
		Meta("provider_calls", sumMapValues(mc.providerCalls)).
		Meta("provider_errors", sumMapValues(mc.providerErrors)).
		Meta("degraded_lookups", mc.degradedLookups).
		Meta("reply_failures", mc.replyFailures).
		Meta("task_failures", mc.taskFailures).
		Log()

	for endpoint, durations := range mc.providerDuration {
		if len(durations) == 0 {
			continue
		}
		mc.logger.Info("endpoint_performance").
			Component("metrics").
			Operation("performance_report").
			Meta("endpoint", endpoint).
			Meta("call_count", mc.providerCalls[endpoint]).
			Meta("avg_duration_ms", calculateAverage(durations)).
			Meta("p95_duration_ms", calculatePercentile(durations, 0.95)).
			Meta("error_count", mc.providerErrors[endpoint]).
			Log()
	}
}

func (mc *MetricsCollector) GetMetrics() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	replies := make(map[string]int64, len(mc.replies))
	for kind, n := range mc.replies {
		replies[kind.String()] = n
	}

	return map[string]interface{}{
		"provider": map[string]interface{}{
			"calls":    copyCounts(mc.providerCalls),
			"errors":   copyCounts(mc.providerErrors),
			"degraded": mc.degradedLookups,
		},
		"replies":        replies,
		"reply_failures": mc.replyFailures,
		"task_failures":  mc.taskFailures,
		"http_requests":  copyCounts(mc.httpRequests),
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sumMapValues(m map[string]int64) int64 {
	sum := int64(0)
	for _, count := range m {
		sum += count
	}
	return sum
}

func calculateAverage(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := int64(0)
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func calculatePercentile(values []int64, percentile float64) int64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(percentile * float64(len(sorted)-1))
	return sorted[index]
}
