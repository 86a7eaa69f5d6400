package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/torosent/benchforge/internal/suite"
	"github.com/torosent/benchforge/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	Report           *suite.Report
	ThresholdResults []threshold.Result
	ReportJSON       template.JS
}

// GenerateHTMLReport writes a standalone HTML report with the raw JSON embedded.
func GenerateHTMLReport(w io.Writer, report *suite.Report, thresholdResults []threshold.Result) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data := HTMLReportData{
		Report:           report,
		ThresholdResults: thresholdResults,
		ReportJSON:       template.JS(raw),
	}
	return htmlTemplate.Execute(w, data)
}

// WriteHTMLReport writes the HTML report to a file path.
func WriteHTMLReport(path string, report *suite.Report, thresholdResults []threshold.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	defer f.Close()
	if err := GenerateHTMLReport(f, report, thresholdResults); err != nil {
		return err
	}
	return f.Close()
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>benchforge report: {{.Report.Name}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #222; }
  h1 { font-size: 1.4rem; }
  h2 { font-size: 1.1rem; margin-top: 2rem; }
  table { border-collapse: collapse; width: 100%; margin-top: .5rem; }
  th, td { border: 1px solid #ddd; padding: .35rem .6rem; text-align: right; font-size: .85rem; }
  th:first-child, td:first-child { text-align: left; }
  th { background: #f5f5f5; }
  .fail { color: #b00020; font-weight: 600; }
  .pass { color: #0a7d32; font-weight: 600; }
  .meta { color: #666; font-size: .85rem; }
</style>
</head>
<body>
<h1>{{.Report.Name}}</h1>
<p class="meta">Run {{.Report.RunID}} &middot; generated {{.Report.GeneratedAt}}</p>

{{range .Report.Suites}}
<h2>{{.Name}} <span class="meta">({{printf "%.1f" .DurationMs}} ms)</span></h2>
<table>
  <tr><th>Task</th><th>Status</th><th>Iters</th><th>Avg (ms)</th><th>Min (ms)</th><th>Max (ms)</th><th>P99 (ms)</th><th>Ops/s</th></tr>
  {{range .Records}}
  <tr>
    <td>{{.Name}}</td>
    <td>{{.Status}}</td>
    <td>{{.Iterations}}</td>
    <td>{{printf "%.3f" .AvgMs}}</td>
    <td>{{printf "%.3f" .MinMs}}</td>
    <td>{{printf "%.3f" .MaxMs}}</td>
    <td>{{printf "%.3f" .P99Ms}}</td>
    <td>{{printf "%.2f" .OpsPerSecond}}</td>
  </tr>
  {{end}}
</table>
{{end}}

{{if .Report.Failures}}
<h2>Failed Suites</h2>
<table>
  <tr><th>Suite</th><th>Duration (ms)</th><th>Error</th></tr>
  {{range .Report.Failures}}
  <tr><td>{{.Name}}</td><td>{{printf "%.1f" .DurationMs}}</td><td>{{.Error}}</td></tr>
  {{end}}
</table>
{{end}}

{{if .ThresholdResults}}
<h2>Thresholds</h2>
<table>
  <tr><th>Expression</th><th>Actual</th><th>Outcome</th></tr>
  {{range .ThresholdResults}}
  <tr>
    <td>{{.Threshold.Raw}}</td>
    <td>{{printf "%.3f" .Actual}}</td>
    <td>{{if .Pass}}<span class="pass">PASS</span>{{else}}<span class="fail">FAIL</span>{{end}}</td>
  </tr>
  {{end}}
</table>
{{end}}

<script type="application/json" id="report-data">{{.ReportJSON}}</script>
</body>
</html>
`))
