package models

// EndpointStat is one per-endpoint row from a load generator's stats
// export, as shown in the report's endpoint table.
type EndpointStat struct {
	Method   string   `json:"method"`
	Name     string   `json:"name"`
	Requests float64  `json:"requests"`
	Failures float64  `json:"failures"`
	AvgMs    *float64 `json:"avg_ms"`
	MedianMs *float64 `json:"median_ms"`
	P95Ms    *float64 `json:"p95_ms"`
	P99Ms    *float64 `json:"p99_ms"`
	MaxMs    *float64 `json:"max_ms"`
	RPS      *float64 `json:"rps"`
}

// ErrorRate derives the endpoint's failure percentage, guarding against a
// zero request count.
func (e EndpointStat) ErrorRate() float64 {
	requests := e.Requests
	if requests < 1 {
		requests = 1
	}
	return e.Failures / requests * 100
}

// HistoryPoint is one aggregated interval sample used for the report's
// time-series charts. Offset is seconds since the first sample.
type HistoryPoint struct {
	Offset         float64  `json:"offset"`
	RPS            float64  `json:"rps"`
	FailuresPerSec float64  `json:"failures_per_sec"`
	P50Ms          *float64 `json:"p50_ms"`
	P95Ms          *float64 `json:"p95_ms"`
	P99Ms          *float64 `json:"p99_ms"`
}
