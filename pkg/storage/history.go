package storage

import (
	"errors"
	"io/fs"
	"time"

	"github.com/loclocko/locomotive/pkg/models"
)

// HistoryEntry is the rolling-window history record for one run, carrying
// the headline metrics the dashboard trends over.
type HistoryEntry struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	Status       string    `json:"status,omitempty"`
	RPS          *float64  `json:"rps"`
	AvgMs        *float64  `json:"avg_ms"`
	MedianMs     *float64  `json:"median_ms"`
	P95Ms        *float64  `json:"p95_ms"`
	P99Ms        *float64  `json:"p99_ms"`
	MaxMs        *float64  `json:"max_ms"`
	ErrorRate    *float64  `json:"error_rate"`
	ErrorRate4xx *float64  `json:"error_rate_4xx"`
	ErrorRate5xx *float64  `json:"error_rate_5xx"`
	ErrorRate503 *float64  `json:"error_rate_503"`
	Requests     *float64  `json:"requests"`
	Failures     *float64  `json:"failures"`
}

type History struct {
	Runs []HistoryEntry `json:"runs"`
}

func (s *Storage) LoadHistory() (History, error) {
	var history History
	err := s.LoadJSON(s.HistoryPath(), &history)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return History{}, err
	}
	return history, nil
}

// AppendHistory adds a run to history.json, replacing any previous entry
// with the same run id (retries) and trimming the oldest entries beyond
// maxRuns when maxRuns is positive.
func (s *Storage) AppendHistory(meta models.RunMeta, metrics models.Metrics, status string, maxRuns int) error {
	history, err := s.LoadHistory()
	if err != nil {
		return err
	}

	entry := HistoryEntry{
		RunID:        meta.RunID,
		StartedAt:    meta.StartedAt,
		Status:       status,
		RPS:          metrics.Float("rps"),
		AvgMs:        metrics.Float("avg_ms"),
		MedianMs:     metrics.Float("median_ms"),
		P95Ms:        metrics.Float("p95_ms"),
		P99Ms:        metrics.Float("p99_ms"),
		MaxMs:        metrics.Float("max_ms"),
		ErrorRate:    metrics.Float("error_rate"),
		ErrorRate4xx: metrics.Float("error_rate_4xx"),
		ErrorRate5xx: metrics.Float("error_rate_5xx"),
		ErrorRate503: metrics.Float("error_rate_503"),
		Requests:     metrics.Float("requests"),
		Failures:     metrics.Float("failures"),
	}

	runs := make([]HistoryEntry, 0, len(history.Runs)+1)
	for _, run := range history.Runs {
		if run.RunID != meta.RunID {
			runs = append(runs, run)
		}
	}
	runs = append(runs, entry)

	if maxRuns > 0 && len(runs) > maxRuns {
		runs = runs[len(runs)-maxRuns:]
	}

	return s.SaveJSON(s.HistoryPath(), History{Runs: runs})
}
