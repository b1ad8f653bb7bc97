package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/loclocko/locomotive/pkg/models"
)

// Data is everything the report can show for one run. Baseline, Endpoints
// and History are optional; their sections are omitted when absent.
type Data struct {
	Meta      models.RunMeta
	Current   models.Metrics
	Baseline  models.Metrics
	Verdict   *models.Verdict
	Endpoints []models.EndpointStat
	History   []models.HistoryPoint
	Title     string
}

type row struct {
	Metric      string
	Baseline    string
	Current     string
	Delta       string
	Status      string
	StatusClass string
}

type summaryItem struct {
	Label string
	Count int
}

type kpiCard struct {
	Label      string
	Value      string
	Unit       string
	Delta      string
	DeltaClass string
}

type endpointRow struct {
	Name           string
	Requests       string
	Failures       string
	AvgMs          string
	MedianMs       string
	P95Ms          string
	P99Ms          string
	MaxMs          string
	RPS            string
	ErrorRate      string
	ErrorRateClass string
}

type page struct {
	Title       string
	RunID       string
	BaselineID  string
	Status      string
	StatusClass string
	GeneratedAt string
	Cards       []kpiCard
	HasCharts   bool
	ChartData   template.JS
	Summary     []summaryItem
	Rows        []row
	Endpoints   []endpointRow
}

var statusClasses = map[models.Status]string{
	models.StatusPass:        "status-pass",
	models.StatusWarning:     "status-warning",
	models.StatusDegradation: "status-fail",
	models.StatusSkip:        "status-skip",
}

func statusClass(status models.Status) string {
	if class, ok := statusClasses[status]; ok {
		return class
	}
	return "status-unknown"
}

func formatValue(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *value)
}

func formatFixed(value *float64, decimals int) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", decimals, *value)
}

func formatDelta(value *float64) string {
	if value == nil {
		return "-"
	}
	arrow := "→"
	if *value > 0 {
		arrow = "↑"
	} else if *value < 0 {
		arrow = "↓"
	}
	return fmt.Sprintf("%s %.1f%%", arrow, absFloat(*value))
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// deltaClass colors a KPI delta: higher throughput is good, higher
// latency or errors is bad.
func deltaClass(metric string, delta float64) string {
	if delta == 0 {
		return ""
	}
	up := delta > 0
	if strings.Contains(strings.ToLower(metric), "rps") {
		if up {
			return "delta-good"
		}
		return "delta-bad"
	}
	if up {
		return "delta-bad"
	}
	return "delta-good"
}

func kpiDelta(metric string, current, baseline models.Metrics) (string, string) {
	if baseline == nil {
		return "", ""
	}
	cur := current.Float(metric)
	base := baseline.Float(metric)
	if cur == nil || base == nil || *base == 0 {
		return "", ""
	}
	delta := (*cur - *base) / *base * 100
	return formatDelta(&delta), deltaClass(metric, delta)
}

func buildCards(data Data) []kpiCard {
	specs := []struct {
		metric   string
		label    string
		unit     string
		decimals int
	}{
		{"requests", "Total Requests", "", 0},
		{"rps", "Throughput", "req/s", 2},
		{"p95_ms", "p95 Latency", "ms", 0},
		{"error_rate", "Error Rate", "%", 2},
	}

	var cards []kpiCard
	for _, spec := range specs {
		value := data.Current.Float(spec.metric)
		if value == nil {
			continue
		}
		delta, class := kpiDelta(spec.metric, data.Current, data.Baseline)
		cards = append(cards, kpiCard{
			Label:      spec.label,
			Value:      formatFixed(value, spec.decimals),
			Unit:       spec.unit,
			Delta:      delta,
			DeltaClass: class,
		})
	}
	if data.Meta.RunTime != "" {
		cards = append(cards, kpiCard{Label: "Duration", Value: data.Meta.RunTime})
	}
	return cards
}

type chartSeries struct {
	Labels []float64  `json:"labels"`
	RPS    []float64  `json:"rps"`
	Errors []float64  `json:"errors"`
	P50    []*float64 `json:"p50"`
	P95    []*float64 `json:"p95"`
	P99    []*float64 `json:"p99"`
}

func buildChartData(history []models.HistoryPoint) (template.JS, error) {
	series := chartSeries{
		Labels: make([]float64, 0, len(history)),
		RPS:    make([]float64, 0, len(history)),
		Errors: make([]float64, 0, len(history)),
		P50:    make([]*float64, 0, len(history)),
		P95:    make([]*float64, 0, len(history)),
		P99:    make([]*float64, 0, len(history)),
	}
	for _, point := range history {
		series.Labels = append(series.Labels, point.Offset)
		series.RPS = append(series.RPS, point.RPS)
		series.Errors = append(series.Errors, point.FailuresPerSec)
		series.P50 = append(series.P50, point.P50Ms)
		series.P95 = append(series.P95, point.P95Ms)
		series.P99 = append(series.P99, point.P99Ms)
	}
	raw, err := json.Marshal(series)
	if err != nil {
		return "", fmt.Errorf("failed to encode chart data: %w", err)
	}
	return template.JS(raw), nil
}

const (
	endpointErrorWarn = 1.0
	endpointErrorFail = 5.0
)

func buildEndpointRows(endpoints []models.EndpointStat) []endpointRow {
	rows := make([]endpointRow, 0, len(endpoints))
	for _, ep := range endpoints {
		name := strings.TrimSpace(ep.Method + " " + ep.Name)
		rate := ep.ErrorRate()
		rateClass := ""
		if rate >= endpointErrorFail {
			rateClass = "highlight-fail"
		} else if rate >= endpointErrorWarn {
			rateClass = "highlight-warn"
		}
		rows = append(rows, endpointRow{
			Name:           name,
			Requests:       fmt.Sprintf("%.0f", ep.Requests),
			Failures:       fmt.Sprintf("%.0f", ep.Failures),
			AvgMs:          formatFixed(ep.AvgMs, 1),
			MedianMs:       formatFixed(ep.MedianMs, 0),
			P95Ms:          formatFixed(ep.P95Ms, 0),
			P99Ms:          formatFixed(ep.P99Ms, 0),
			MaxMs:          formatFixed(ep.MaxMs, 0),
			RPS:            formatFixed(ep.RPS, 2),
			ErrorRate:      fmt.Sprintf("%.2f", rate),
			ErrorRateClass: rateClass,
		})
	}
	return rows
}

// Render produces the self-contained HTML report for one run: KPI cards
// with baseline deltas, time-series charts from the interval samples, the
// regression table (or raw metrics when no verdict exists), and per-endpoint
// statistics.
func Render(data Data) (string, error) {
	p := page{
		Title:       data.Title,
		RunID:       data.Meta.RunID,
		BaselineID:  data.Meta.BaselineID,
		Status:      string(models.StatusPass),
		StatusClass: statusClass(models.StatusPass),
		GeneratedAt: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Cards:       buildCards(data),
		Endpoints:   buildEndpointRows(data.Endpoints),
	}
	if p.BaselineID == "" {
		p.BaselineID = "-"
	}

	if len(data.History) > 0 {
		chartData, err := buildChartData(data.History)
		if err != nil {
			return "", err
		}
		p.HasCharts = true
		p.ChartData = chartData
	}

	if data.Verdict != nil {
		p.Status = string(data.Verdict.Status)
		p.StatusClass = statusClass(data.Verdict.Status)
		for _, status := range []models.Status{
			models.StatusPass, models.StatusWarning, models.StatusDegradation, models.StatusSkip,
		} {
			p.Summary = append(p.Summary, summaryItem{Label: string(status), Count: data.Verdict.Summary[status]})
		}
		for _, res := range data.Verdict.Results {
			p.Rows = append(p.Rows, row{
				Metric:      res.Metric,
				Baseline:    formatValue(res.Baseline),
				Current:     formatValue(res.Current),
				Delta:       formatDelta(res.DeltaPercent),
				Status:      string(res.Status),
				StatusClass: statusClass(res.Status),
			})
		}
	} else {
		names := make([]string, 0, len(data.Current))
		for name := range data.Current {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p.Rows = append(p.Rows, row{
				Metric:      name,
				Baseline:    "-",
				Current:     formatValue(data.Current.Float(name)),
				Delta:       "-",
				Status:      string(models.StatusSkip),
				StatusClass: statusClass(models.StatusSkip),
			})
		}
	}

	var out strings.Builder
	if err := pageTemplate.Execute(&out, p); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return out.String(), nil
}

var pageTemplate = template.Must(template.New("report").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
{{- if .HasCharts}}
  <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
{{- end}}
  <style>
    :root {
      --pass: #2a7a2a;
      --warn: #b36b00;
      --fail: #b00020;
      --muted: #6b7280;
      --bg: #f8fafc;
      --card: #ffffff;
      --line: #e2e8f0;
    }
    body {
      font-family: "Helvetica Neue", Arial, sans-serif;
      margin: 0;
      padding: 24px;
      background: var(--bg);
      color: #111827;
    }
    .header {
      display: flex;
      align-items: baseline;
      justify-content: space-between;
      gap: 16px;
      margin-bottom: 16px;
    }
    .title { font-size: 24px; font-weight: 700; }
    .meta { color: var(--muted); font-size: 13px; }
    .card {
      background: var(--card);
      border: 1px solid var(--line);
      border-radius: 12px;
      padding: 16px;
      margin-bottom: 16px;
      box-shadow: 0 1px 2px rgba(0, 0, 0, 0.04);
    }
    .card-title {
      font-size: 13px;
      font-weight: 700;
      text-transform: uppercase;
      letter-spacing: 0.06em;
      color: var(--muted);
      margin-bottom: 10px;
    }
    .status { font-weight: 700; font-size: 16px; }
    .kpi-grid {
      display: grid;
      grid-template-columns: repeat(auto-fit, minmax(160px, 1fr));
      gap: 12px;
      margin-bottom: 16px;
    }
    .kpi-card {
      background: var(--card);
      border: 1px solid var(--line);
      border-radius: 12px;
      padding: 14px 16px;
    }
    .kpi-value { font-size: 22px; font-weight: 700; }
    .kpi-unit { font-size: 13px; font-weight: 400; color: var(--muted); margin-left: 3px; }
    .kpi-label { font-size: 12px; color: var(--muted); margin-top: 2px; }
    .kpi-delta { font-size: 12px; margin-top: 4px; min-height: 14px; }
    .delta-good { color: var(--pass); font-weight: 700; }
    .delta-bad { color: var(--fail); font-weight: 700; }
    .charts-grid {
      display: grid;
      grid-template-columns: repeat(auto-fit, minmax(320px, 1fr));
      gap: 16px;
      margin-bottom: 16px;
    }
    .chart-container { position: relative; height: 240px; }
    table { width: 100%; border-collapse: collapse; font-size: 14px; }
    th, td {
      padding: 8px 10px;
      border-bottom: 1px solid var(--line);
      text-align: left;
    }
    th {
      font-size: 12px;
      text-transform: uppercase;
      letter-spacing: 0.06em;
      color: var(--muted);
    }
    td.num { text-align: right; font-variant-numeric: tabular-nums; }
    .endpoint-name { font-weight: 600; }
    .highlight-warn { color: var(--warn); font-weight: 700; }
    .highlight-fail { color: var(--fail); font-weight: 700; }
    .status-pass { color: var(--pass); font-weight: 700; }
    .status-warning { color: var(--warn); font-weight: 700; }
    .status-fail { color: var(--fail); font-weight: 700; }
    .status-skip { color: var(--muted); font-weight: 700; }
    .summary {
      display: grid;
      grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
      gap: 12px;
      font-size: 13px;
      color: var(--muted);
      margin-top: 12px;
    }
  </style>
</head>
<body>
  <div class="header">
    <div>
      <div class="title">{{.Title}}</div>
      <div class="meta">Run: {{.RunID}} | Baseline: {{.BaselineID}}</div>
    </div>
    <div class="status {{.StatusClass}}">{{.Status}}</div>
  </div>

  {{if .Cards}}<div class="kpi-grid">
    {{range .Cards}}<div class="kpi-card">
      <div class="kpi-value">{{.Value}}{{if .Unit}}<span class="kpi-unit">{{.Unit}}</span>{{end}}</div>
      <div class="kpi-label">{{.Label}}</div>
      <div class="kpi-delta">{{if .Delta}}<span class="{{.DeltaClass}}">{{.Delta}}</span>{{end}}</div>
    </div>
    {{end}}</div>{{end}}

  {{if .HasCharts}}<div class="charts-grid">
    <div class="card">
      <div class="card-title">Throughput &amp; Errors</div>
      <div class="chart-container"><canvas id="throughputChart"></canvas></div>
    </div>
    <div class="card">
      <div class="card-title">Response Times</div>
      <div class="chart-container"><canvas id="responseChart"></canvas></div>
    </div>
  </div>{{end}}

  <div class="card">
    <div class="card-title">Regression Analysis</div>
    <div class="meta">Generated at {{.GeneratedAt}}</div>
    {{if .Summary}}<div class="summary">
      {{range .Summary}}<div><strong>{{.Label}}</strong> {{.Count}}</div>
      {{end}}</div>{{end}}
    <table>
      <thead>
        <tr>
          <th>Metric</th>
          <th>Baseline</th>
          <th>Current</th>
          <th>Delta %</th>
          <th>Status</th>
        </tr>
      </thead>
      <tbody>
        {{range .Rows}}<tr>
          <td>{{.Metric}}</td>
          <td>{{.Baseline}}</td>
          <td>{{.Current}}</td>
          <td>{{.Delta}}</td>
          <td class="{{.StatusClass}}">{{.Status}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </div>

  {{if .Endpoints}}<div class="card">
    <div class="card-title">Endpoint Statistics</div>
    <table>
      <thead>
        <tr>
          <th>Endpoint</th>
          <th>Requests</th>
          <th>Failures</th>
          <th>Avg (ms)</th>
          <th>p50</th>
          <th>p95</th>
          <th>p99</th>
          <th>Max (ms)</th>
          <th>RPS</th>
          <th>Error %</th>
        </tr>
      </thead>
      <tbody>
        {{range .Endpoints}}<tr>
          <td class="endpoint-name">{{.Name}}</td>
          <td class="num">{{.Requests}}</td>
          <td class="num">{{.Failures}}</td>
          <td class="num">{{.AvgMs}}</td>
          <td class="num">{{.MedianMs}}</td>
          <td class="num">{{.P95Ms}}</td>
          <td class="num">{{.P99Ms}}</td>
          <td class="num">{{.MaxMs}}</td>
          <td class="num">{{.RPS}}</td>
          <td class="num {{.ErrorRateClass}}">{{.ErrorRate}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </div>{{end}}
{{- if .HasCharts}}
  <script>
    const chartData = {{.ChartData}};
    const labels = chartData.labels.map(t => t + 's');
    new Chart(document.getElementById('throughputChart'), {
      type: 'line',
      data: {
        labels: labels,
        datasets: [
          { label: 'Requests/s', data: chartData.rps, borderColor: '#2563eb', backgroundColor: '#2563eb26', fill: true, tension: 0.3, pointRadius: 0, borderWidth: 2 },
          { label: 'Failures/s', data: chartData.errors, borderColor: '#b00020', backgroundColor: 'transparent', fill: false, tension: 0.3, pointRadius: 0, borderWidth: 2 }
        ]
      },
      options: {
        responsive: true, maintainAspectRatio: false,
        interaction: { mode: 'index', intersect: false },
        plugins: { legend: { position: 'top' } },
        scales: {
          x: { title: { display: true, text: 'Time' } },
          y: { title: { display: true, text: 'Requests/s' }, min: 0 }
        }
      }
    });
    new Chart(document.getElementById('responseChart'), {
      type: 'line',
      data: {
        labels: labels,
        datasets: [
          { label: 'p50', data: chartData.p50, borderColor: '#2a7a2a', backgroundColor: 'transparent', fill: false, tension: 0.3, pointRadius: 0, borderWidth: 2 },
          { label: 'p95', data: chartData.p95, borderColor: '#b36b00', backgroundColor: 'transparent', fill: false, tension: 0.3, pointRadius: 0, borderWidth: 2 },
          { label: 'p99', data: chartData.p99, borderColor: '#b00020', backgroundColor: 'transparent', fill: false, tension: 0.3, pointRadius: 0, borderWidth: 2 }
        ]
      },
      options: {
        responsive: true, maintainAspectRatio: false,
        interaction: { mode: 'index', intersect: false },
        plugins: { legend: { position: 'top' } },
        scales: {
          x: { title: { display: true, text: 'Time' } },
          y: { title: { display: true, text: 'Response Time (ms)' }, min: 0 }
        }
      }
    });
  </script>
{{- end}}
</body>
</html>
`))
