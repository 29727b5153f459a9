package output

import (
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/selimozcann/AuthFlowHunter/internal/model"
)

// PageData is the template context for the HTML report.
type PageData struct {
	Title       string
	GeneratedAt time.Time
	Report      model.Report
	Summary     Summary
}

// RenderHTML writes a standalone HTML report for one run.
func RenderHTML(w io.Writer, page PageData) error {
	return htmlTemplate.Execute(w, page)
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatTime": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"upper":      strings.ToUpper,
	"status": func(passed bool) string {
		if passed {
			return "pass"
		}
		return "fail"
	},
}).Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root { color-scheme: light dark; }
body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 24px; background:#fafafa; color:#111; }
h1 { font-size: 24px; margin: 0 0 4px; }
.meta { color:#6b7280; font-size:12px; margin-bottom:20px; }
.section { border:1px solid #e5e7eb; border-radius:12px; padding:16px 20px; margin-bottom:16px; background:#fff; }
.badge { display:inline-block; padding:2px 10px; border-radius:999px; font-size:12px; font-weight:600; color:#fff; }
.badge.pass { background:#16a34a; }
.badge.fail { background:#dc2626; }
.table { width:100%; border-collapse:collapse; font-size:14px; }
.table th, .table td { border-bottom:1px solid #e5e7eb; padding:6px 8px; text-align:left; vertical-align:top; }
.mono { font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace; font-size:13px; }
pre { background:#f3f4f6; border-radius:8px; padding:8px 12px; font-size:12px; overflow:auto; }
@media (prefers-color-scheme: dark) {
  body { background:#0f172a; color:#e2e8f0; }
  .section { background:#1e293b; border-color:#334155; }
  pre { background:#0f172a; }
}
</style>
</head>
<body>
<header>
<h1>{{.Title}} <span class="badge {{status .Report.Passed}}">{{if .Report.Passed}}PASS{{else}}FAIL{{end}}</span></h1>
<div class="meta">target {{.Report.Target}} · generated {{formatTime .GeneratedAt}} · {{.Report.DurationMs}}ms</div>
</header>

<div class="section">
<h2>Checkpoints ({{.Summary.Passed}}/{{.Summary.Total}} passed)</h2>
<table class="table">
<tr><th>Checkpoint</th><th>Result</th><th>Message</th><th>URL</th></tr>
{{range .Report.Checkpoints}}
<tr>
<td>{{.Name}}</td>
<td><span class="badge {{status .Passed}}">{{if .Passed}}PASS{{else}}FAIL{{end}}</span></td>
<td>{{.Message}}</td>
<td class="mono">{{.Snapshot.URL}}</td>
</tr>
{{end}}
</table>
</div>

{{if .Report.Preflight}}
<div class="section">
<h2>Preflight redirect chain</h2>
<table class="table">
<tr><th>#</th><th>URL</th><th>Status</th><th>Via</th><th>Time</th></tr>
{{range .Report.Preflight}}
<tr><td>{{.Index}}</td><td class="mono">{{.URL}}</td><td>{{.Status}}</td><td>{{.Via}}</td><td>{{.TimeMs}}ms</td></tr>
{{end}}
</table>
</div>
{{end}}

{{if .Report.Findings}}
<div class="section">
<h2>Findings</h2>
<ul>
{{range .Report.Findings}}
<li><strong>{{upper .Severity}}</strong> {{.Type}} — {{.Detail}}{{if .Source}} <span class="meta">({{.Source}})</span>{{end}}</li>
{{end}}
</ul>
</div>
{{end}}

{{if .Report.PodLogs}}
<div class="section">
<h2>Pod logs</h2>
{{range $name, $text := .Report.PodLogs}}
<h3>{{$name}}</h3>
<pre>{{$text}}</pre>
{{end}}
</div>
{{end}}

</body>
</html>
`))
