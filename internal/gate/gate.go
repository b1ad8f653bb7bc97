package gate

import (
	"math"
	"sort"
	"strings"

	"github.com/loclocko/locomotive/internal/analyzer"
	"github.com/loclocko/locomotive/pkg/config"
	"github.com/loclocko/locomotive/pkg/models"
)

const (
	reasonMissingHistory    = "missing stats history for warmup"
	reasonMinRequestsNotMet = "min_requests not met"
	reasonMissingCurrent    = "missing current value"
	reasonMissingThresholds = "missing thresholds"
)

// errorMetrics are the failure-category metrics that get an implicit
// warn = 0 in resilience mode: any non-zero error level is at least a
// warning whenever a fail threshold exists and no explicit warn was given.
var errorMetrics = map[string]bool{
	"error_rate":         true,
	"error_rate_4xx":     true,
	"error_rate_5xx":     true,
	"error_rate_503":     true,
	"error_rate_non_503": true,
	"failures":           true,
	"failures_4xx":       true,
	"failures_5xx":       true,
	"failures_503":       true,
	"failures_non_503":   true,
}

// Threshold is one parsed gate entry. Nil warn/fail means "not configured".
type Threshold struct {
	Warn      *float64
	Fail      *float64
	Direction string
}

// ParseThresholds normalizes the raw thresholds config. A bare numeric
// entry is shorthand for {fail: value}; structured entries carry warn,
// fail and an optional direction defaulting to "increase".
func ParseThresholds(raw map[string]any) map[string]Threshold {
	thresholds := make(map[string]Threshold)
	for metric, cfg := range raw {
		switch entry := cfg.(type) {
		case map[string]any:
			direction := strings.ToLower(strings.TrimSpace(stringValue(entry["direction"])))
			if direction == "" {
				direction = models.DirectionIncrease
			}
			thresholds[metric] = Threshold{
				Warn:      models.CoerceFloat(entry["warn"]),
				Fail:      models.CoerceFloat(entry["fail"]),
				Direction: direction,
			}
		default:
			if fail := models.CoerceFloat(cfg); fail != nil {
				thresholds[metric] = Threshold{Fail: fail, Direction: models.DirectionIncrease}
			}
		}
	}
	return thresholds
}

// applyDefaults synthesizes the implicit policies over the parsed config
// before the evaluation loop: acceptance mode with nothing configured means
// zero tolerance for errors, and resilience mode infers warn = 0 for error
// metrics that only carry a fail threshold.
func applyDefaults(thresholds map[string]Threshold, mode string) map[string]Threshold {
	if len(thresholds) == 0 && mode == config.ModeAcceptance {
		zero := 0.0
		return map[string]Threshold{
			"error_rate": {Fail: &zero, Direction: models.DirectionIncrease},
		}
	}
	if mode != config.ModeResilience {
		return thresholds
	}
	for metric, th := range thresholds {
		if th.Warn == nil && th.Fail != nil && errorMetrics[metric] {
			zero := 0.0
			th.Warn = &zero
			thresholds[metric] = th
		}
	}
	return thresholds
}

// Evaluate judges the current metrics against the gate configuration.
// Returns nil when no thresholds apply at all, distinguishing "gate not
// configured" from "gate configured but every check skipped".
func Evaluate(metrics models.Metrics, cfg config.GateConfig, mode string, history *models.HistorySummary) *models.Verdict {
	thresholds := applyDefaults(ParseThresholds(cfg.Thresholds), mode)
	if len(thresholds) == 0 {
		return nil
	}

	minRequests := cfg.MinRequests
	warmupSeconds := cfg.WarmupSeconds
	warmupActive := warmupSeconds != nil && *warmupSeconds > 0

	working := metrics.Clone()
	requestsUsed := working.Int("requests")
	failuresUsed := working.Int("failures")

	// Judge steady-state behavior: with warm-up configured the history
	// summary totals replace whole-run requests/failures and the error
	// rate is recomputed from them.
	if warmupActive && history != nil {
		requests := int(math.Round(history.Requests))
		failures := int(math.Round(history.Failures))
		requestsUsed = &requests
		failuresUsed = &failures
		working["requests"] = requests
		working["failures"] = failures
		if requests != 0 {
			working["error_rate"] = float64(failures) / float64(requests) * 100
		}
	}

	// Eligibility is decided once and applied uniformly to every threshold.
	eligible := true
	skipReason := ""
	if warmupActive && history == nil {
		eligible = false
		skipReason = reasonMissingHistory
	}
	if minRequests != nil && (requestsUsed == nil || *requestsUsed < *minRequests) {
		eligible = false
		skipReason = reasonMinRequestsNotMet
	}

	names := make([]string, 0, len(thresholds))
	for name := range thresholds {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]models.Result, 0, len(names))
	for _, name := range names {
		current := working.Float(name)
		results = append(results, evaluateThreshold(name, current, thresholds[name], eligible, skipReason))
	}

	combined := analyzer.Merge([][]models.Result{results})
	combined.Gate = &models.GateMeta{
		Mode:          mode,
		MinRequests:   minRequests,
		WarmupSeconds: warmupSeconds,
		RequestsUsed:  requestsUsed,
		FailuresUsed:  failuresUsed,
		EvaluatedAt:   combined.EvaluatedAt,
	}
	return &combined
}

func evaluateThreshold(metric string, current *float64, th Threshold, eligible bool, skipReason string) models.Result {
	result := models.Result{
		Metric:    "gate." + metric,
		Mode:      "gate",
		Direction: th.Direction,
		Warn:      th.Warn,
		Fail:      th.Fail,
		Current:   current,
		Status:    models.StatusPass,
	}

	if !eligible {
		result.Status = models.StatusSkip
		if skipReason == "" {
			skipReason = "gate not eligible"
		}
		result.Reason = skipReason
		return result
	}

	if current == nil {
		result.Status = models.StatusSkip
		result.Reason = reasonMissingCurrent
		return result
	}

	if th.Warn == nil && th.Fail == nil {
		result.Status = models.StatusSkip
		result.Reason = reasonMissingThresholds
		return result
	}

	if th.Direction == models.DirectionDecrease {
		switch {
		case th.Fail != nil && *current <= *th.Fail:
			result.Status = models.StatusDegradation
		case th.Warn != nil && *current <= *th.Warn:
			result.Status = models.StatusWarning
		}
		return result
	}

	// Strict inequality for the increase direction: a genuinely-zero metric
	// equal to a zero fail threshold must not fire.
	switch {
	case th.Fail != nil && *current > *th.Fail:
		result.Status = models.StatusDegradation
	case th.Warn != nil && *current > *th.Warn:
		result.Status = models.StatusWarning
	}
	return result
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
