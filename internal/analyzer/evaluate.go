package analyzer

import (
	"time"

	"github.com/loclocko/locomotive/pkg/models"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

func utcNow() time.Time {
	return timeNow().UTC().Truncate(time.Second)
}

const (
	reasonMissingCurrent  = "missing current value"
	reasonMissingBaseline = "missing baseline value"
	reasonUnsupportedMode = "unsupported rule mode"
)

// Evaluate runs one rule against the current and baseline metric mappings.
// Missing data never fails the evaluation; it degrades to a SKIP result
// carrying the reason.
func Evaluate(rule models.Rule, current, baseline models.Metrics) models.Result {
	warn := rule.Warn
	fail := rule.Fail
	result := models.Result{
		Metric:    rule.Metric,
		Mode:      rule.Mode,
		Direction: rule.Direction,
		Warn:      &warn,
		Fail:      &fail,
		Current:   current.Float(rule.Metric),
		Baseline:  baseline.Float(rule.Metric),
		Status:    models.StatusPass,
	}

	if result.Current == nil {
		result.Status = models.StatusSkip
		result.Reason = reasonMissingCurrent
		return result
	}

	switch rule.Mode {
	case models.ModeRelative:
		return evaluateRelative(rule, result)
	case models.ModeAbsolute:
		return evaluateAbsolute(rule, result)
	}

	result.Status = models.StatusSkip
	result.Reason = reasonUnsupportedMode
	return result
}

// evaluateRelative compares the percentage change from baseline against the
// thresholds. A zero baseline makes percentage change undefined, not
// defined-as-infinite, so it skips like a missing one.
func evaluateRelative(rule models.Rule, result models.Result) models.Result {
	if result.Baseline == nil || *result.Baseline == 0 {
		result.Status = models.StatusSkip
		result.Reason = reasonMissingBaseline
		return result
	}

	delta := (*result.Current - *result.Baseline) / *result.Baseline * 100
	result.DeltaPercent = &delta

	// Movement in the good direction never counts against the rule.
	magnitude := delta
	if rule.Direction != models.DirectionIncrease {
		magnitude = -delta
	}
	if magnitude < 0 {
		magnitude = 0
	}

	switch {
	case magnitude >= rule.Fail:
		result.Status = models.StatusDegradation
	case magnitude >= rule.Warn:
		result.Status = models.StatusWarning
	}
	return result
}

// evaluateAbsolute compares the current value against fixed thresholds. The
// delta is still reported when a baseline exists, for display only.
func evaluateAbsolute(rule models.Rule, result models.Result) models.Result {
	current := *result.Current
	if rule.Direction == models.DirectionIncrease {
		switch {
		case current >= rule.Fail:
			result.Status = models.StatusDegradation
		case current >= rule.Warn:
			result.Status = models.StatusWarning
		}
	} else {
		switch {
		case current <= rule.Fail:
			result.Status = models.StatusDegradation
		case current <= rule.Warn:
			result.Status = models.StatusWarning
		}
	}

	if result.Baseline != nil && *result.Baseline != 0 {
		delta := (current - *result.Baseline) / *result.Baseline * 100
		result.DeltaPercent = &delta
	}
	return result
}

// EvaluateMany runs every rule independently and combines the outcomes into
// one verdict. No short-circuiting: a degraded metric does not stop the
// remaining rules from being reported.
func EvaluateMany(rules []models.Rule, current, baseline models.Metrics) models.Verdict {
	results := make([]models.Result, 0, len(rules))
	for _, rule := range rules {
		results = append(results, Evaluate(rule, current, baseline))
	}
	return Merge([][]models.Result{results})
}
