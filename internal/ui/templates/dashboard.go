package templates

import (
	"context"
	"encoding/json"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"projects-dashboard/internal/charts"
)

const (
	PageTitle   = "Active Projects Dashboard"
	datastarCDN = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"
)

// Element ids patched by the SSE handlers.
const (
	ProjectsID   = "projects-content"
	SummaryID    = "summary-content"
	ActivityID   = "activity-content"
	SalesID      = "sales-content"
	ComplianceID = "compliance-content"
	MarketID     = "market-content"
	StatusID     = "status-content"
	ControlsID   = "controls"
)

func ChartID(name string) string {
	return "chart-" + name
}

type Section struct {
	Heading string
	Targets []string
}

// Sections lists the page layout top to bottom.
var Sections = []Section{
	{"Project Data", []string{ProjectsID}},
	{"Summary", []string{SummaryID}},
	{"Cashflow Projection", []string{ChartID(charts.Cashflow)}},
	{"Activity KPIs", []string{ActivityID, ChartID(charts.ActivityByManager), ChartID(charts.ActivityByMarket)}},
	{"Sales Orders", []string{SalesID, ChartID(charts.SalesByManager)}},
	{"Revenue Forecast", []string{ChartID(charts.RevenueForecast)}},
	{"Financial Compliance", []string{ComplianceID, ChartID(charts.ComplianceByType)}},
	{"Market Turnover", []string{MarketID, ChartID(charts.MarketTurnover)}},
}

type DashboardProps struct {
	Managers []string
	Selected string
}

type controlsData struct {
	ID       string
	Options  []string
	Selected string
}

func newControls(managers []string, selected string) controlsData {
	if selected == "" {
		selected = "All"
	}
	return controlsData{ID: ControlsID, Options: append([]string{"All"}, managers...), Selected: selected}
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script type="module" src="{{.CDN}}"></script>
<style>{{.CSS}}</style>
</head>
<body data-signals="{{.Signals}}" data-init="@get('/sse/refresh-all')">
<main class="wide">
<h1>📊 {{.Title}}</h1>
{{template "controls" .Controls}}
{{range .Sections}}<section class="panel"><h2>{{.Heading}}</h2>{{range .Targets}}<div id="{{.}}" class="placeholder">Loading…</div>{{end}}</section>
{{end}}<footer id="{{.StatusID}}"></footer>
</main>
</body>
</html>
{{define "controls"}}<section id="{{.ID}}" class="controls"><label for="manager">Filter by Project Manager</label><select id="manager" data-bind:manager data-on:change="@get('/sse/refresh-all')">
{{- range .Options}}{{if eq . $.Selected}}<option value="{{.}}" selected>{{.}}</option>{{else}}<option value="{{.}}">{{.}}</option>{{end}}{{end -}}
</select><button data-on:click="@post('/sse/regenerate')">Regenerate data</button></section>{{end}}`))

// Dashboard renders the full page. The manager signal is seeded as JSON so
// datastar reads the selection back verbatim.
func Dashboard(props DashboardProps) templ.Component {
	controls := newControls(props.Managers, props.Selected)
	signals, err := json.Marshal(map[string]string{"manager": controls.Selected})
	if err != nil {
		return templ.ComponentFunc(func(context.Context, io.Writer) error { return err })
	}

	return templ.FromGoHTML(page, struct {
		Title    string
		CDN      string
		CSS      template.CSS
		Signals  string
		Controls controlsData
		Sections []Section
		StatusID string
	}{PageTitle, datastarCDN, pageCSS, string(signals), controls, Sections, StatusID})
}

// ManagerSelect renders the filter control; SSE handlers patch it when the
// manager set changes.
func ManagerSelect(managers []string, selected string) templ.Component {
	return templ.FromGoHTML(page.Lookup("controls"), newControls(managers, selected))
}

const pageCSS template.CSS = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7fb;color:#1f2330}
main.wide{max-width:1400px;margin:0 auto;padding:24px}
.controls{display:flex;gap:12px;align-items:center;margin-bottom:16px}
.panel{background:#fff;border-radius:8px;padding:16px;margin-bottom:16px;box-shadow:0 1px 3px rgba(0,0,0,.08)}
.modern-table{width:100%;border-collapse:collapse;font-size:14px}
.modern-table th,.modern-table td{padding:6px 10px;border-bottom:1px solid #e6e8ef;text-align:left}
.kpis{display:grid;grid-template-columns:repeat(auto-fit,minmax(180px,1fr));gap:12px}
.kpi{background:#f0f3ff;border-radius:6px;padding:12px}
.kpi strong{display:block;font-size:20px}
.stage-badge{background:#eef;border-radius:4px;padding:2px 6px}
figure{margin:0;overflow-x:auto}
figcaption{color:#666;font-size:12px}
.placeholder{color:#999}
.muted{color:#666;font-size:12px}
.error{color:#b3261e}
`
