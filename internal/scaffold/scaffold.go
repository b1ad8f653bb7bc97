package scaffold

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// endpoint is one request template extracted from an OpenAPI spec.
type endpoint struct {
	Name   string   `json:"name"`
	Method string   `json:"method"`
	Path   string   `json:"path"`
	Weight int      `json:"weight"`
	Tags   []string `json:"tags,omitempty"`
}

var specMethods = []string{"get", "post", "put", "patch", "delete"}

// extractEndpoints walks an OpenAPI document's paths and turns each
// operation into a weighted request entry.
func extractEndpoints(spec map[string]any) []endpoint {
	var endpoints []endpoint
	paths, _ := spec["paths"].(map[string]any)
	for path, rawItem := range paths {
		item, ok := rawItem.(map[string]any)
		if !ok {
			continue
		}
		for _, method := range specMethods {
			operation, ok := item[method].(map[string]any)
			if !ok {
				continue
			}
			name, _ := operation["summary"].(string)
			if name == "" {
				name, _ = operation["operationId"].(string)
			}
			if name == "" {
				name = fmt.Sprintf("%s %s", strings.ToUpper(method), path)
			}
			ep := endpoint{
				Name:   name,
				Method: strings.ToUpper(method),
				Path:   path,
				Weight: 1,
			}
			if rawTags, ok := operation["tags"].([]any); ok {
				for _, tag := range rawTags {
					if text, ok := tag.(string); ok {
						ep.Tags = append(ep.Tags, text)
					}
				}
			}
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints
}

func loadOpenAPI(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI spec: %w", err)
	}
	var spec map[string]any
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI spec %s: %w", path, err)
	}
	return spec, nil
}

// WriteConfigTemplate generates a starter loconfig at path. When an
// OpenAPI spec is given its operations pre-populate the scenario requests.
func WriteConfigTemplate(path, host, openapiPath string) error {
	requests := []endpoint{
		{Name: "Health Check", Method: "GET", Path: "/health", Weight: 1},
	}
	if openapiPath != "" {
		spec, err := loadOpenAPI(openapiPath)
		if err != nil {
			return err
		}
		if extracted := extractEndpoints(spec); len(extracted) > 0 {
			requests = extracted
		}
	}

	template := map[string]any{
		"load": map[string]any{
			"host":       host,
			"users":      10,
			"spawn_rate": 2,
			"run_time":   "1m",
		},
		"scenario": map[string]any{
			"think_time": map[string]any{"min": 0.5, "max": 2.0},
			"requests":   requests,
		},
		"artifacts": map[string]any{
			"storage": "artifacts",
		},
		"analysis": map[string]any{
			"fail_on": "DEGRADATION",
			"rules": []map[string]any{
				{"metric": "p95_ms", "mode": "relative", "direction": "increase", "warn": 10, "fail": 25},
				{"metric": "error_rate", "mode": "absolute", "direction": "increase", "warn": 1, "fail": 5},
				{"metric": "rps", "mode": "relative", "direction": "decrease", "warn": 10, "fail": 25},
			},
			"gate": map[string]any{
				"mode": "resilience",
				"thresholds": map[string]any{
					"error_rate": map[string]any{"fail": 5},
					"p95_ms":     map[string]any{"warn": 800, "fail": 1500},
				},
				"min_requests":   100,
				"warmup_seconds": 10,
			},
		},
		"report": map[string]any{
			"title": "CI Load Test Report",
		},
	}

	raw, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteRulesTemplate generates a starter rules file covering the headline
// latency, throughput, and error metrics.
func WriteRulesTemplate(path string) error {
	rules := map[string]any{
		"rules": []map[string]any{
			{"metric": "p95_ms", "mode": "relative", "direction": "increase", "warn": 10, "fail": 25},
			{"metric": "p99_ms", "mode": "relative", "direction": "increase", "warn": 15, "fail": 30},
			{"metric": "avg_ms", "mode": "relative", "direction": "increase", "warn": 10, "fail": 20},
			{"metric": "rps", "mode": "relative", "direction": "decrease", "warn": 10, "fail": 20},
			{"metric": "error_rate", "mode": "absolute", "direction": "increase", "warn": 0.5, "fail": 2.0},
		},
	}

	raw, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rules template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteGitHubWorkflow generates a GitHub Actions workflow that runs the
// full ci pipeline and uploads the report artifact.
func WriteGitHubWorkflow(path, configName string) error {
	workflow := fmt.Sprintf(`name: Load Test

on:
  push:
    branches: [main]
  workflow_dispatch:

jobs:
  loadtest:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4

      - uses: actions/setup-python@v5
        with:
          python-version: "3.12"

      - name: Install locust
        run: pip install locust

      - name: Run load test
        run: loco --config %s ci

      - name: Upload report
        if: always()
        uses: actions/upload-artifact@v4
        with:
          name: loadtest-report
          path: artifacts/runs/**/report.html
`, configName)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(workflow), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
