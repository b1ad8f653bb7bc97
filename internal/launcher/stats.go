package launcher

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/loclocko/locomotive/internal/gate"
	"github.com/loclocko/locomotive/pkg/models"
)

var keyNormalizer = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeKey(value string) string {
	return keyNormalizer.ReplaceAllString(strings.ToLower(value), "")
}

// FindStatsCSV locates the aggregate stats export in a run's raw dir,
// preferring the default locust prefix.
func FindStatsCSV(rawDir string) string {
	preferred := filepath.Join(rawDir, "locust_stats.csv")
	if _, err := os.Stat(preferred); err == nil {
		return preferred
	}
	matches, _ := filepath.Glob(filepath.Join(rawDir, "*_stats.csv"))
	sort.Strings(matches)
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

// FindStatsHistoryCSV locates the interval stats-history export.
func FindStatsHistoryCSV(rawDir string) string {
	preferred := filepath.Join(rawDir, "locust_stats_history.csv")
	if _, err := os.Stat(preferred); err == nil {
		return preferred
	}
	matches, _ := filepath.Glob(filepath.Join(rawDir, "*_stats_history.csv"))
	sort.Strings(matches)
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

func readCSVRows(path string) ([]map[string]string, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer handle.Close()

	reader := csv.NewReader(handle)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// selectAggregateRow picks the run-wide totals row. Locust labels it
// "Aggregated"; older exports used "Total".
func selectAggregateRow(rows []map[string]string) map[string]string {
	for _, row := range rows {
		name := strings.ToLower(strings.TrimSpace(row["Name"]))
		typ := strings.ToLower(strings.TrimSpace(row["Type"]))
		if name == "aggregated" || typ == "aggregated" {
			return row
		}
	}
	for _, row := range rows {
		name := strings.ToLower(strings.TrimSpace(row["Name"]))
		if name == "total" || name == "overall" {
			return row
		}
	}
	if len(rows) > 0 {
		return rows[0]
	}
	return nil
}

// ParseStats extracts the flat metric mapping from a locust stats CSV.
// Header names vary across locust versions, so lookups go through a
// normalized key map.
func ParseStats(path string) (models.Metrics, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}
	row := selectAggregateRow(rows)
	if row == nil {
		return models.Metrics{}, nil
	}

	normMap := make(map[string]string, len(row))
	for key := range row {
		normMap[normalizeKey(key)] = key
	}
	fetch := func(candidates ...string) any {
		for _, candidate := range candidates {
			if key, ok := normMap[normalizeKey(candidate)]; ok {
				return row[key]
			}
		}
		return nil
	}

	requests := models.CoerceFloat(fetch("Requests", "Request Count"))
	failures := models.CoerceFloat(fetch("Failures", "Failure Count"))
	errorRate := models.CoerceFloat(fetch("Failure%", "Failure %"))
	if errorRate == nil && requests != nil && *requests > 0 {
		var failed float64
		if failures != nil {
			failed = *failures
		}
		rate := failed / *requests * 100
		errorRate = &rate
	}

	metrics := models.Metrics{}
	put := func(name string, value *float64) {
		if value != nil {
			metrics[name] = *value
		} else {
			metrics[name] = nil
		}
	}
	put("requests", requests)
	put("failures", failures)
	put("error_rate", errorRate)
	put("avg_ms", models.CoerceFloat(fetch("Average Response Time", "Average Response Time (ms)")))
	put("median_ms", models.CoerceFloat(fetch("Median Response Time", "Median Response Time (ms)")))
	put("min_ms", models.CoerceFloat(fetch("Min Response Time", "Min Response Time (ms)")))
	put("max_ms", models.CoerceFloat(fetch("Max Response Time", "Max Response Time (ms)")))
	put("p95_ms", models.CoerceFloat(fetch("95%", "95% Response Time")))
	put("p99_ms", models.CoerceFloat(fetch("99%", "99% Response Time")))
	put("rps", models.CoerceFloat(fetch("Requests/s")))

	return metrics, nil
}

// ParseEndpointStats extracts the per-endpoint rows from a locust stats
// CSV, skipping the aggregate row.
func ParseEndpointStats(path string) ([]models.EndpointStat, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	endpoints := make([]models.EndpointStat, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row["Name"])
		lower := strings.ToLower(name)
		if name == "" || lower == "aggregated" || lower == "total" || lower == "overall" {
			continue
		}

		normMap := make(map[string]string, len(row))
		for key := range row {
			normMap[normalizeKey(key)] = key
		}
		fetch := func(candidates ...string) *float64 {
			for _, candidate := range candidates {
				if key, ok := normMap[normalizeKey(candidate)]; ok {
					return models.CoerceFloat(row[key])
				}
			}
			return nil
		}

		ep := models.EndpointStat{
			Method:   strings.TrimSpace(row["Type"]),
			Name:     name,
			AvgMs:    fetch("Average Response Time", "Average Response Time (ms)"),
			MedianMs: fetch("Median Response Time", "50%"),
			P95Ms:    fetch("95%", "95% Response Time"),
			P99Ms:    fetch("99%", "99% Response Time"),
			MaxMs:    fetch("Max Response Time", "Max Response Time (ms)"),
			RPS:      fetch("Requests/s"),
		}
		if requests := fetch("Requests", "Request Count"); requests != nil {
			ep.Requests = *requests
		}
		if failures := fetch("Failures", "Failure Count"); failures != nil {
			ep.Failures = *failures
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// ParseHistoryPoints reads the aggregated interval rows as chart samples,
// with timestamps rebased to seconds since the first row.
func ParseHistoryPoints(path string) ([]models.HistoryPoint, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	points := make([]models.HistoryPoint, 0, len(rows))
	var start *float64
	for i, row := range rows {
		name := strings.ToLower(strings.TrimSpace(row["Name"]))
		if name != "" && name != "aggregated" && name != "total" {
			continue
		}

		ts := float64(i)
		if value := models.CoerceFloat(row["Timestamp"]); value != nil {
			ts = *value
		}
		if start == nil {
			first := ts
			start = &first
		}

		point := models.HistoryPoint{
			Offset: ts - *start,
			P50Ms:  models.CoerceFloat(row["50%"]),
			P95Ms:  models.CoerceFloat(row["95%"]),
			P99Ms:  models.CoerceFloat(row["99%"]),
		}
		if rps := models.CoerceFloat(row["Requests/s"]); rps != nil {
			point.RPS = *rps
		}
		if failures := models.CoerceFloat(row["Failures/s"]); failures != nil {
			point.FailuresPerSec = *failures
		}
		points = append(points, point)
	}
	return points, nil
}

// ParseStatsHistory reads the interval samples used for warm-up-aware gate
// aggregation. Rows without a timestamp fall back to their index so the
// relative warm-up window still applies.
func ParseStatsHistory(path string) ([]gate.Sample, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	samples := make([]gate.Sample, 0, len(rows))
	for i, row := range rows {
		name := strings.ToLower(strings.TrimSpace(row["Name"]))
		if name != "" && name != "aggregated" && name != "total" {
			continue
		}

		sample := gate.Sample{Timestamp: float64(i)}
		if ts := models.CoerceFloat(row["Timestamp"]); ts != nil {
			sample.Timestamp = *ts
		}
		if rps := models.CoerceFloat(row["Requests/s"]); rps != nil {
			sample.RPS = *rps
		}
		if failures := models.CoerceFloat(row["Failures/s"]); failures != nil {
			sample.FailuresPerSec = *failures
		}
		samples = append(samples, sample)
	}
	return samples, nil
}
