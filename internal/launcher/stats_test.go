package launcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFindStatsCSV(t *testing.T) {
	t.Run("prefers default locust prefix", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "custom_stats.csv", "Name\n")
		preferred := writeFile(t, dir, "locust_stats.csv", "Name\n")
		assert.Equal(t, preferred, FindStatsCSV(dir))
	})

	t.Run("falls back to first glob match", func(t *testing.T) {
		dir := t.TempDir()
		first := writeFile(t, dir, "a_stats.csv", "Name\n")
		writeFile(t, dir, "b_stats.csv", "Name\n")
		assert.Equal(t, first, FindStatsCSV(dir))
	})

	t.Run("empty when nothing matches", func(t *testing.T) {
		assert.Equal(t, "", FindStatsCSV(t.TempDir()))
	})
}

func TestFindStatsHistoryCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "locust_stats.csv", "Name\n")
	history := writeFile(t, dir, "run_stats_history.csv", "Name\n")
	assert.Equal(t, history, FindStatsHistoryCSV(dir))
}

const statsCSV = `Type,Name,Request Count,Failure Count,Median Response Time,Average Response Time,Min Response Time,Max Response Time,Requests/s,Failures/s,95%,99%
GET,/items,900,9,100,120,10,800,45.0,0.45,300,500
,Aggregated,1000,10,105,125.5,10,900,50.0,0.5,320,550
`

func TestParseStats(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "locust_stats.csv", statsCSV)

	metrics, err := ParseStats(path)
	require.NoError(t, err)

	require.NotNil(t, metrics.Float("requests"))
	assert.Equal(t, 1000.0, *metrics.Float("requests"))
	assert.Equal(t, 10.0, *metrics.Float("failures"))
	assert.Equal(t, 125.5, *metrics.Float("avg_ms"))
	assert.Equal(t, 105.0, *metrics.Float("median_ms"))
	assert.Equal(t, 320.0, *metrics.Float("p95_ms"))
	assert.Equal(t, 550.0, *metrics.Float("p99_ms"))
	assert.Equal(t, 50.0, *metrics.Float("rps"))

	// Failure% column absent, derived from counts.
	require.NotNil(t, metrics.Float("error_rate"))
	assert.InDelta(t, 1.0, *metrics.Float("error_rate"), 0.001)
}

func TestParseStats_FailurePercentColumn(t *testing.T) {
	content := `Type,Name,Requests,Failures,Failure%,Requests/s
,Aggregated,500,25,5.0,20.0
`
	path := writeFile(t, t.TempDir(), "locust_stats.csv", content)

	metrics, err := ParseStats(path)
	require.NoError(t, err)
	require.NotNil(t, metrics.Float("error_rate"))
	assert.Equal(t, 5.0, *metrics.Float("error_rate"))
	// Columns missing from the export stay present as explicit nulls.
	val, ok := metrics["p95_ms"]
	assert.True(t, ok)
	assert.Nil(t, val)
}

func TestParseStats_NAValues(t *testing.T) {
	content := `Type,Name,Request Count,Failure Count,Average Response Time,Requests/s
,Aggregated,0,0,N/A,0.0
`
	path := writeFile(t, t.TempDir(), "locust_stats.csv", content)

	metrics, err := ParseStats(path)
	require.NoError(t, err)
	assert.Nil(t, metrics["avg_ms"])
	assert.Nil(t, metrics["error_rate"])
	require.NotNil(t, metrics.Float("requests"))
	assert.Equal(t, 0.0, *metrics.Float("requests"))
}

func TestParseEndpointStats(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "locust_stats.csv", statsCSV)

	endpoints, err := ParseEndpointStats(path)
	require.NoError(t, err)
	require.Len(t, endpoints, 1)

	ep := endpoints[0]
	assert.Equal(t, "GET", ep.Method)
	assert.Equal(t, "/items", ep.Name)
	assert.Equal(t, 900.0, ep.Requests)
	assert.Equal(t, 9.0, ep.Failures)
	require.NotNil(t, ep.AvgMs)
	assert.Equal(t, 120.0, *ep.AvgMs)
	require.NotNil(t, ep.P95Ms)
	assert.Equal(t, 300.0, *ep.P95Ms)
	require.NotNil(t, ep.RPS)
	assert.Equal(t, 45.0, *ep.RPS)
	assert.InDelta(t, 1.0, ep.ErrorRate(), 0.001)
}

func TestParseEndpointStats_OnlyAggregateRow(t *testing.T) {
	content := `Type,Name,Request Count,Failure Count,Requests/s
,Aggregated,1000,10,50.0
`
	path := writeFile(t, t.TempDir(), "locust_stats.csv", content)

	endpoints, err := ParseEndpointStats(path)
	require.NoError(t, err)
	assert.Empty(t, endpoints)
}

func TestParseHistoryPoints(t *testing.T) {
	content := `Timestamp,Name,Requests/s,Failures/s,50%,95%,99%
100,Aggregated,10.0,0.0,80,200,400
105,Aggregated,20.0,2.0,90,240,N/A
105,/items,15.0,1.0,85,210,380
115,Aggregated,30.0,3.0,95,260,500
`
	path := writeFile(t, t.TempDir(), "locust_stats_history.csv", content)

	points, err := ParseHistoryPoints(path)
	require.NoError(t, err)
	require.Len(t, points, 3)

	// Offsets are rebased to the first aggregated sample.
	assert.Equal(t, 0.0, points[0].Offset)
	assert.Equal(t, 5.0, points[1].Offset)
	assert.Equal(t, 15.0, points[2].Offset)

	assert.Equal(t, 20.0, points[1].RPS)
	assert.Equal(t, 3.0, points[2].FailuresPerSec)
	require.NotNil(t, points[0].P95Ms)
	assert.Equal(t, 200.0, *points[0].P95Ms)
	assert.Nil(t, points[1].P99Ms)
}

func TestParseStatsHistory(t *testing.T) {
	content := `Timestamp,Name,Requests/s,Failures/s
100,Aggregated,10.0,0.0
105,Aggregated,20.0,2.0
105,/items,15.0,1.0
115,Aggregated,30.0,3.0
`
	path := writeFile(t, t.TempDir(), "locust_stats_history.csv", content)

	samples, err := ParseStatsHistory(path)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, 100.0, samples[0].Timestamp)
	assert.Equal(t, 20.0, samples[1].RPS)
	assert.Equal(t, 3.0, samples[2].FailuresPerSec)
}

func TestParseStatsHistory_TimestampFallsBackToIndex(t *testing.T) {
	content := `Name,Requests/s,Failures/s
Aggregated,10.0,0.0
Aggregated,20.0,1.0
`
	path := writeFile(t, t.TempDir(), "locust_stats_history.csv", content)

	samples, err := ParseStatsHistory(path)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 0.0, samples[0].Timestamp)
	assert.Equal(t, 1.0, samples[1].Timestamp)
}
