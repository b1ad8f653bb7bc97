package models

import "time"

// Rule is a declarative comparison spec, parsed once from configuration and
// read-only afterwards. Mode "relative" compares against the baseline run,
// "absolute" against the thresholds directly. Direction names which way the
// metric moving is bad.
type Rule struct {
	Metric    string  `json:"metric"`
	Mode      string  `json:"mode"`
	Direction string  `json:"direction"`
	Warn      float64 `json:"warn"`
	Fail      float64 `json:"fail"`
}

const (
	ModeRelative = "relative"
	ModeAbsolute = "absolute"

	DirectionIncrease = "increase"
	DirectionDecrease = "decrease"
)

// Result is the atomic outcome for one metric check. Pointer fields are
// null in JSON when the value was unavailable. Reason is set only on SKIP.
type Result struct {
	Metric       string   `json:"metric"`
	Mode         string   `json:"mode"`
	Direction    string   `json:"direction"`
	Warn         *float64 `json:"warn"`
	Fail         *float64 `json:"fail"`
	Current      *float64 `json:"current"`
	Baseline     *float64 `json:"baseline"`
	DeltaPercent *float64 `json:"delta_percent"`
	Status       Status   `json:"status"`
	Reason       string   `json:"reason,omitempty"`
}

// Summary counts results per status. All four statuses are always present.
type Summary map[Status]int

func NewSummary(results []Result) Summary {
	summary := Summary{
		StatusPass:        0,
		StatusWarning:     0,
		StatusDegradation: 0,
		StatusSkip:        0,
	}
	for _, res := range results {
		summary[res.Status]++
	}
	return summary
}

// GateMeta records how the gate pass was parameterized, alongside the
// working request/failure counts it judged.
type GateMeta struct {
	Mode          string    `json:"mode"`
	MinRequests   *int      `json:"min_requests"`
	WarmupSeconds *int      `json:"warmup_seconds"`
	RequestsUsed  *int      `json:"requests_used"`
	FailuresUsed  *int      `json:"failures_used"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// Verdict is the combined outcome of one or more evaluations: all results
// in evaluation order, per-status counts, and the most severe status.
type Verdict struct {
	Status      Status    `json:"status"`
	EvaluatedAt time.Time `json:"evaluated_at"`
	Summary     Summary   `json:"summary"`
	Results     []Result  `json:"results"`
	RunID       string    `json:"run_id,omitempty"`
	BaselineID  string    `json:"baseline_id,omitempty"`
	Gate        *GateMeta `json:"gate,omitempty"`
}

// HistorySummary aggregates a stats-history window after the warm-up period
// was discarded. ErrorRate is nil when no requests were observed, which is
// distinct from a true 0% error rate.
type HistorySummary struct {
	Requests  float64  `json:"requests"`
	Failures  float64  `json:"failures"`
	ErrorRate *float64 `json:"error_rate"`
}
