package output

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"

	"github.com/ramazansakin/firedrill/internal/metrics"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt string
	Target      string
	Stats       metrics.AggregateStats
	MoreErrors  int
}

// WriteHTMLReport renders the aggregate report into dir under a unique name
// and returns the written path. The file is guarded with an advisory lock so
// concurrent invocations sharing a report directory cannot interleave writes.
func WriteHTMLReport(dir, target string, stats metrics.AggregateStats) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("firedrill_report_%s.html", ulid.Make().String()))

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock report file: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(path + ".lock")
	}()

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()

	if err := GenerateHTMLReport(file, target, stats); err != nil {
		return "", err
	}
	return path, nil
}

// GenerateHTMLReport writes a standalone HTML report for the aggregate.
func GenerateHTMLReport(w io.Writer, target string, stats metrics.AggregateStats) error {
	data := HTMLReportData{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Target:      target,
		Stats:       stats,
		MoreErrors:  stats.ErrorsTotal - len(stats.Errors),
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"truncate": func(s string) string {
			if len(s) > 100 {
				return s[:100] + "..."
			}
			return s
		},
		"inc": func(i int) int { return i + 1 },
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Performance Test Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .summary { background: #f5f5f5; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
        .metric { margin: 10px 0; }
        .success { color: green; }
        .error { color: red; }
        .warning { color: orange; font-weight: bold; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        pre { background: #f5f5f5; padding: 10px; border-radius: 4px; overflow-x: auto; }
        .tips { margin-top: 20px; padding: 15px; background-color: #fff3cd; border-left: 5px solid #ffc107; }
    </style>
</head>
<body>
    <h1>Performance Test Report</h1>
    <p>Generated {{.GeneratedAt}}{{if .Target}} for <code>{{.Target}}</code>{{end}}</p>
    <div class="summary">
        <h2>Summary</h2>
        <div class="metric">Runs: {{.Stats.Runs}}</div>
        <div class="metric">Total Requests: {{.Stats.Total}}</div>
        <div class="metric {{if gt .Stats.Successful 0}}success{{else}}error{{end}}">Successful: {{.Stats.Successful}}</div>
        <div class="metric {{if gt .Stats.Failed 0}}error{{end}}">Failed: {{.Stats.Failed}}</div>
        <div class="metric">Success Rate: {{formatFloat .Stats.SuccessRate}}%</div>
        {{if .Stats.NoSuccesses}}
        <div class="metric warning">No successful requests to calculate response times</div>
        {{else}}
        <div class="metric">Average Response Time: {{formatFloat .Stats.MeanMs}} ms</div>
        <div class="metric">Min Response Time: {{formatFloat .Stats.MinMs}} ms</div>
        <div class="metric">Max Response Time: {{formatFloat .Stats.MaxMs}} ms</div>
        <div class="metric">P50 / P90 / P99: {{formatFloat .Stats.P50Ms}} / {{formatFloat .Stats.P90Ms}} / {{formatFloat .Stats.P99Ms}} ms</div>
        {{end}}
    </div>

    {{if .Stats.PerRun}}
    <h2>Per-Run Results</h2>
    <table>
        <tr><th>Run</th><th>Total</th><th>Successful</th><th>Failed</th><th>Success Rate</th><th>Avg Time</th></tr>
        {{range $i, $run := .Stats.PerRun}}
        <tr>
            <td>{{inc $i}}</td>
            <td>{{$run.Total}}</td>
            <td>{{$run.Successful}}</td>
            <td>{{$run.Failed}}</td>
            <td>{{formatFloat $run.SuccessRate}}%</td>
            <td>{{formatFloat $run.MeanMs}} ms</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    {{if .Stats.Errors}}
    <h2>Error Details</h2>
    <p>First few errors encountered:</p>
    <table>
        <tr><th>#</th><th>Endpoint</th><th>Status Code</th><th>Error</th></tr>
        {{range $i, $err := .Stats.Errors}}
        <tr>
            <td>{{inc $i}}</td>
            <td>{{$err.Endpoint}}</td>
            <td>{{if $err.StatusCode}}{{$err.StatusCode}}{{else}}N/A{{end}}</td>
            <td><pre>{{truncate $err.Error}}</pre></td>
        </tr>
        {{end}}
        {{if gt .MoreErrors 0}}
        <tr><td colspan="4">... and {{.MoreErrors}} more errors</td></tr>
        {{end}}
    </table>
    {{if .Stats.NoSuccesses}}
    <div class="tips">
        <h3>Debugging Tips</h3>
        <ul>
            <li>Check if the API server is running and accessible</li>
            <li>Verify the base URL in the configuration</li>
            <li>Check if authentication is required and credentials are correct</li>
            <li>Inspect the error messages above for more details</li>
            <li>Try testing the endpoints manually with a tool like curl</li>
        </ul>
    </div>
    {{end}}
    {{end}}
</body>
</html>
`
