package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Storage is the filesystem workspace for run artifacts:
//
//	root/
//	  baseline.json
//	  history.json
//	  runs/<run_id>/
//	    raw/            locust CSV output
//	    metrics.json
//	    analysis.json
//	    report.html
//	    run.json
type Storage struct {
	root string
}

func New(root string) *Storage {
	return &Storage{root: root}
}

func (s *Storage) Root() string                 { return s.root }
func (s *Storage) BaselinePath() string         { return filepath.Join(s.root, "baseline.json") }
func (s *Storage) HistoryPath() string          { return filepath.Join(s.root, "history.json") }
func (s *Storage) RunsDir() string              { return filepath.Join(s.root, "runs") }
func (s *Storage) RunDir(runID string) string   { return filepath.Join(s.RunsDir(), runID) }
func (s *Storage) RawDir(runID string) string   { return filepath.Join(s.RunDir(runID), "raw") }
func (s *Storage) MetricsPath(id string) string { return filepath.Join(s.RunDir(id), "metrics.json") }
func (s *Storage) AnalysisPath(id string) string {
	return filepath.Join(s.RunDir(id), "analysis.json")
}
func (s *Storage) ReportPath(id string) string  { return filepath.Join(s.RunDir(id), "report.html") }
func (s *Storage) RunMetaPath(id string) string { return filepath.Join(s.RunDir(id), "run.json") }

func (s *Storage) EnsureRun(runID string) error {
	return os.MkdirAll(s.RawDir(runID), 0o755)
}

// Exists reports whether an artifact path is present.
func (s *Storage) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *Storage) LoadJSON(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (s *Storage) SaveJSON(path string, data any) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return s.SaveText(path, string(raw)+"\n")
}

func (s *Storage) SaveText(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

type baselinePointer struct {
	RunID string    `json:"run_id"`
	SetAt time.Time `json:"set_at"`
}

// SetBaseline marks runID as the comparison point for future runs.
func (s *Storage) SetBaseline(runID string) error {
	return s.SaveJSON(s.BaselinePath(), baselinePointer{
		RunID: runID,
		SetAt: time.Now().UTC().Truncate(time.Second),
	})
}

// Baseline returns the current baseline run id, or "" when none is set.
func (s *Storage) Baseline() (string, error) {
	var pointer baselinePointer
	err := s.LoadJSON(s.BaselinePath(), &pointer)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return pointer.RunID, nil
}
