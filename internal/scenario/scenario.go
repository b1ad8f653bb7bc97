package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/loclocko/locomotive/pkg/config"
)

var namePattern = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func slugify(value string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = namePattern.ReplaceAllString(slug, "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "task"
	}
	return slug
}

type taskData struct {
	FuncName string
	Name     string
	Method   string
	Path     string
	Weight   int
	Tags     []string
	Query    string
	Body     string
	Headers  string
}

type fileData struct {
	ThinkMin    float64
	ThinkMax    float64
	BaseHeaders string
	OnStart     []taskData
	Tasks       []taskData
}

// FilterRequests applies the load config's tag include/exclude sets to the
// scenario's request list.
func FilterRequests(requests []config.RequestConfig, include, exclude []string) []config.RequestConfig {
	if len(include) == 0 && len(exclude) == 0 {
		return requests
	}
	includeSet := make(map[string]bool, len(include))
	for _, tag := range include {
		includeSet[tag] = true
	}
	excludeSet := make(map[string]bool, len(exclude))
	for _, tag := range exclude {
		excludeSet[tag] = true
	}

	var filtered []config.RequestConfig
	for _, req := range requests {
		skip := false
		matched := len(includeSet) == 0
		for _, tag := range req.Tags {
			if excludeSet[tag] {
				skip = true
				break
			}
			if includeSet[tag] {
				matched = true
			}
		}
		if !skip && matched {
			filtered = append(filtered, req)
		}
	}
	return filtered
}

func pyDict(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	raw, _ := json.Marshal(m)
	return string(raw)
}

func pyJSON(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	raw, _ := json.Marshal(m)
	return string(raw)
}

// Generate writes a locustfile built from the scenario config into
// outputDir and returns its path.
func Generate(scenario config.ScenarioConfig, load config.LoadConfig, outputDir string) (string, error) {
	requests := FilterRequests(scenario.Requests, load.Tags, load.ExcludeTags)
	if len(requests) == 0 {
		return "", fmt.Errorf("scenario.requests must be a non-empty list")
	}

	thinkMin, thinkMax := scenario.ThinkTime.Min, scenario.ThinkTime.Max
	if thinkMax <= 0 {
		thinkMin, thinkMax = 1.0, 1.0
	}

	baseHeaders := make(map[string]string, len(scenario.Headers)+1)
	for key, value := range scenario.Headers {
		baseHeaders[key] = value
	}
	if scenario.Auth.Type == "bearer" && scenario.Auth.Token != "" {
		baseHeaders["Authorization"] = "Bearer " + scenario.Auth.Token
	}

	data := fileData{
		ThinkMin:    thinkMin,
		ThinkMax:    thinkMax,
		BaseHeaders: pyDict(baseHeaders),
	}

	seen := make(map[string]int)
	build := func(req config.RequestConfig, prefix string) taskData {
		name := req.Name
		if name == "" {
			name = fmt.Sprintf("%s %s", req.Method, req.Path)
		}
		funcName := prefix + slugify(name)
		seen[funcName]++
		if count := seen[funcName]; count > 1 {
			funcName = fmt.Sprintf("%s_%d", funcName, count-1)
		}
		weight := req.Weight
		if weight <= 0 {
			weight = 1
		}
		method := strings.ToUpper(req.Method)
		if method == "" {
			method = "GET"
		}
		return taskData{
			FuncName: funcName,
			Name:     name,
			Method:   method,
			Path:     req.Path,
			Weight:   weight,
			Tags:     req.Tags,
			Query:    pyDict(req.Query),
			Body:     pyJSON(req.Body),
			Headers:  pyDict(req.Headers),
		}
	}

	for _, req := range scenario.OnStart {
		data.OnStart = append(data.OnStart, build(req, "start_"))
	}
	for _, req := range requests {
		data.Tasks = append(data.Tasks, build(req, "task_"))
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outputDir, err)
	}
	outputPath := filepath.Join(outputDir, "generated_locustfile.py")

	var out strings.Builder
	if err := locustfileTemplate.Execute(&out, data); err != nil {
		return "", fmt.Errorf("failed to render locustfile: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(out.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return outputPath, nil
}

var locustfileTemplate = template.Must(template.New("locustfile").Parse(`import os

from locust import HttpUser, task, between, tag

BASE_HEADERS = {{if .BaseHeaders}}{{.BaseHeaders}}{{else}}{}{{end}}


def merged_headers(extra=None):
    headers = dict(BASE_HEADERS)
    if extra:
        headers.update(extra)
    return {k: os.path.expandvars(v) for k, v in headers.items()}


class GeneratedUser(HttpUser):
    wait_time = between({{.ThinkMin}}, {{.ThinkMax}})
{{if .OnStart}}
    def on_start(self):
{{- range .OnStart}}
        self.client.request(
            "{{.Method}}",
            "{{.Path}}",
            name="{{.Name}}",
            {{- if .Query}}
            params={{.Query}},
            {{- end}}
            {{- if .Body}}
            json={{.Body}},
            {{- end}}
            headers=merged_headers({{if .Headers}}{{.Headers}}{{else}}None{{end}}),
        )
{{- end}}
{{end}}
{{- range .Tasks}}
    {{range .Tags}}@tag("{{.}}")
    {{end}}@task({{.Weight}})
    def {{.FuncName}}(self):
        self.client.request(
            "{{.Method}}",
            "{{.Path}}",
            name="{{.Name}}",
            {{- if .Query}}
            params={{.Query}},
            {{- end}}
            {{- if .Body}}
            json={{.Body}},
            {{- end}}
            headers=merged_headers({{if .Headers}}{{.Headers}}{{else}}None{{end}}),
        )
{{end}}`))
