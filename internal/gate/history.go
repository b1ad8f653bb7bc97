package gate

import "github.com/loclocko/locomotive/pkg/models"

// Sample is one interval row from a load generator's stats-history export.
type Sample struct {
	Timestamp      float64
	RPS            float64
	FailuresPerSec float64
}

// SummarizeHistory aggregates the post-warm-up window of a run's interval
// samples. Samples inside warmupSeconds of the first timestamp are
// discarded so ramp-up noise does not reach the gate. Returns nil when
// there are no samples at all.
func SummarizeHistory(samples []Sample, warmupSeconds int) *models.HistorySummary {
	if len(samples) == 0 {
		return nil
	}

	start := samples[0].Timestamp
	var totalRequests, totalFailures float64
	for _, sample := range samples {
		if sample.Timestamp-start < float64(warmupSeconds) {
			continue
		}
		totalRequests += sample.RPS
		totalFailures += sample.FailuresPerSec
	}

	summary := &models.HistorySummary{
		Requests: totalRequests,
		Failures: totalFailures,
	}
	if totalRequests > 0 {
		rate := totalFailures / totalRequests * 100
		summary.ErrorRate = &rate
	} else {
		summary.Requests = 0
	}
	return summary
}
