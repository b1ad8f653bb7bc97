package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loclocko/locomotive/pkg/models"
)

func TestBaselineRoundtrip(t *testing.T) {
	store := New(t.TempDir())

	// No baseline set yet.
	runID, err := store.Baseline()
	require.NoError(t, err)
	assert.Equal(t, "", runID)

	require.NoError(t, store.SetBaseline("run-abc123"))

	runID, err = store.Baseline()
	require.NoError(t, err)
	assert.Equal(t, "run-abc123", runID)
}

func TestSaveLoadJSON(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.EnsureRun("run-1"))

	metrics := models.Metrics{"p95_ms": 120.5, "requests": 1000.0}
	require.NoError(t, store.SaveJSON(store.MetricsPath("run-1"), metrics))

	var loaded models.Metrics
	require.NoError(t, store.LoadJSON(store.MetricsPath("run-1"), &loaded))
	assert.Equal(t, 120.5, loaded["p95_ms"])
	assert.True(t, store.Exists(store.MetricsPath("run-1")))
	assert.False(t, store.Exists(store.MetricsPath("run-2")))
}

func TestAppendHistory(t *testing.T) {
	store := New(t.TempDir())
	startedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	metrics := models.Metrics{"rps": 50.0, "p95_ms": 200.0, "requests": 3000.0}
	meta := models.RunMeta{RunID: "run-1", StartedAt: startedAt}
	require.NoError(t, store.AppendHistory(meta, metrics, "PASS", 10))

	history, err := store.LoadHistory()
	require.NoError(t, err)
	require.Len(t, history.Runs, 1)
	assert.Equal(t, "run-1", history.Runs[0].RunID)
	assert.Equal(t, "PASS", history.Runs[0].Status)
	require.NotNil(t, history.Runs[0].P95Ms)
	assert.Equal(t, 200.0, *history.Runs[0].P95Ms)
	assert.Nil(t, history.Runs[0].ErrorRate)
}

func TestAppendHistory_ReplacesDuplicateRunID(t *testing.T) {
	store := New(t.TempDir())
	meta := models.RunMeta{RunID: "run-1", StartedAt: time.Now().UTC()}

	require.NoError(t, store.AppendHistory(meta, models.Metrics{"rps": 10.0}, "DEGRADATION", 10))
	require.NoError(t, store.AppendHistory(meta, models.Metrics{"rps": 20.0}, "PASS", 10))

	history, err := store.LoadHistory()
	require.NoError(t, err)
	require.Len(t, history.Runs, 1)
	assert.Equal(t, "PASS", history.Runs[0].Status)
	require.NotNil(t, history.Runs[0].RPS)
	assert.Equal(t, 20.0, *history.Runs[0].RPS)
}

func TestAppendHistory_TrimsOldestBeyondLimit(t *testing.T) {
	store := New(t.TempDir())

	for i := 0; i < 5; i++ {
		meta := models.RunMeta{RunID: fmt.Sprintf("run-%d", i), StartedAt: time.Now().UTC()}
		require.NoError(t, store.AppendHistory(meta, models.Metrics{}, "PASS", 3))
	}

	history, err := store.LoadHistory()
	require.NoError(t, err)
	require.Len(t, history.Runs, 3)
	assert.Equal(t, "run-2", history.Runs[0].RunID)
	assert.Equal(t, "run-4", history.Runs[2].RunID)
}

func TestLoadHistory_MissingFileIsEmpty(t *testing.T) {
	store := New(t.TempDir())
	history, err := store.LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, history.Runs)
}
