package models

import "time"

// RunMeta describes one executed load-test run, written next to its
// metrics as run.json.
type RunMeta struct {
	RunID      string            `json:"run_id"`
	BaselineID string            `json:"baseline_id,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	ReturnCode int               `json:"returncode"`
	Command    []string          `json:"command,omitempty"`
	Locustfile string            `json:"locustfile,omitempty"`
	Host       string            `json:"host,omitempty"`
	Users      int               `json:"users,omitempty"`
	SpawnRate  int               `json:"spawn_rate,omitempty"`
	RunTime    string            `json:"run_time,omitempty"`
	CI         map[string]string `json:"ci,omitempty"`
}
