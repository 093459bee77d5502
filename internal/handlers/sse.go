package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"projects-dashboard/internal/charts"
	"projects-dashboard/internal/models"
	"projects-dashboard/internal/services"
	"projects-dashboard/internal/ui/templates"
)

const (
	maxTableRows = 50
	dateLayout   = "2006-01-02"
)

var funcs = template.FuncMap{
	"money": func(v any) string {
		p := message.NewPrinter(language.English)
		switch n := v.(type) {
		case int:
			return p.Sprintf("$%d", n)
		case float64:
			return p.Sprintf("$%.2f", n)
		default:
			return p.Sprintf("$%v", n)
		}
	},
	"pct": func(v float64) string {
		return message.NewPrinter(language.English).Sprintf("%.2f%%", v)
	},
	"date": func(t time.Time) string {
		return t.Format(dateLayout)
	},
}

var fragments = template.Must(template.New("fragments").Funcs(funcs).Parse(`
{{define "rows"}}{{if lt .Shown .Total}}<p class="muted">Showing {{.Shown}} of {{.Total}} rows</p>{{end}}{{end}}

{{define "projects"}}<div id="{{.ID}}">
<table class="modern-table">
<thead><tr><th>Project</th><th>Due Date</th><th>Revenue</th><th>GM %</th><th>WIP %</th><th>Budget Spent %</th><th>Stage</th><th>PM</th><th>Payment Term</th><th>Cashflow Date</th></tr></thead>
<tbody>
{{range .Data}}<tr>
<td>{{.ID}}</td>
<td>{{date .DueDate}}</td>
<td><strong>{{money .Revenue}}</strong></td>
<td>{{pct .GrossMargin}}</td>
<td>{{.WIP}}%</td>
<td>{{.BudgetSpent}}%</td>
<td><span class="stage-badge">{{.Stage}}</span></td>
<td>{{.Manager}}</td>
<td>{{.PaymentTerm}} days</td>
<td>{{date .CashflowDate}}</td>
</tr>{{else}}<tr><td colspan="10">No projects</td></tr>{{end}}
</tbody>
</table>
{{template "rows" .}}
</div>{{end}}

{{define "summary"}}<div id="{{.ID}}" class="kpis">
<div class="kpi"><span>Projects</span><strong>{{.Data.Projects}}</strong></div>
<div class="kpi"><span>Total Revenue</span><strong>{{money .Data.TotalRevenue}}</strong></div>
<div class="kpi"><span>Avg GM %</span><strong>{{pct .Data.AvgGrossMargin}}</strong></div>
<div class="kpi"><span>Avg WIP %</span><strong>{{pct .Data.AvgWIP}}</strong></div>
<div class="kpi"><span>Avg Budget Spent %</span><strong>{{pct .Data.AvgBudgetSpent}}</strong></div>
</div>{{end}}

{{define "activity"}}<div id="{{.ID}}">
<div class="kpis"><div class="kpi"><span>Activities</span><strong>{{.Total}}</strong></div></div>
<table class="modern-table">
<thead><tr><th>Created</th><th>PM</th><th>Market</th><th>Opportunity</th></tr></thead>
<tbody>
{{range .Data}}<tr><td>{{date .CreatedAt}}</td><td>{{.Manager}}</td><td>{{.Market}}</td><td>{{.Opportunity}}</td></tr>{{else}}<tr><td colspan="4">No activities</td></tr>{{end}}
</tbody>
</table>
{{template "rows" .}}
</div>{{end}}

{{define "sales"}}<div id="{{.ID}}">
<div class="kpis">
<div class="kpi"><span>Sales Orders</span><strong>{{.Total}}</strong></div>
<div class="kpi"><span>Total Revenue</span><strong>{{money .Extra.TotalRevenue}}</strong></div>
<div class="kpi"><span>Avg GM %</span><strong>{{pct .Extra.AvgGrossMargin}}</strong></div>
</div>
<table class="modern-table">
<thead><tr><th>Created</th><th>PM</th><th>Market</th><th>Opportunity</th><th>Revenue</th><th>GM %</th></tr></thead>
<tbody>
{{range .Data}}<tr><td>{{date .CreatedAt}}</td><td>{{.Manager}}</td><td>{{.Market}}</td><td>{{.Opportunity}}</td><td><strong>{{money .Revenue}}</strong></td><td>{{pct .GrossMargin}}</td></tr>{{else}}<tr><td colspan="6">No sales orders</td></tr>{{end}}
</tbody>
</table>
{{template "rows" .}}
</div>{{end}}

{{define "compliance"}}<div id="{{.ID}}">
<div class="kpis">{{range .Extra}}<div class="kpi"><span>{{.Category}}</span><strong>{{.Count}}</strong></div>{{end}}</div>
<table class="modern-table">
<thead><tr><th>Created</th><th>PM</th><th>Task Type</th><th>Market</th></tr></thead>
<tbody>
{{range .Data}}<tr><td>{{date .CreatedAt}}</td><td>{{.Manager}}</td><td>{{.TaskType}}</td><td>{{.Market}}</td></tr>{{else}}<tr><td colspan="4">No compliance tasks</td></tr>{{end}}
</tbody>
</table>
{{template "rows" .}}
</div>{{end}}

{{define "market"}}<div id="{{.ID}}">
<table class="modern-table">
<thead><tr><th>Market</th><th>Quote Days</th><th>Close Days</th><th>Total Days</th></tr></thead>
<tbody>
{{range .Data}}<tr><td>{{.Market}}</td><td>{{.QuoteDays}}</td><td>{{.CloseDays}}</td><td><strong>{{.TotalDays}}</strong></td></tr>{{else}}<tr><td colspan="4">No market records</td></tr>{{end}}
</tbody>
</table>
{{template "rows" .}}
</div>{{end}}

{{define "chart"}}<div id="{{.ID}}"><figure>{{.SVG}}<figcaption>{{.Spec.XLabel}} / {{.Spec.YLabel}}</figcaption></figure></div>{{end}}

{{define "status"}}<footer id="{{.ID}}" class="muted">Snapshot {{.Snapshot.ID}} generated {{.Snapshot.GeneratedAt.Format "2006-01-02 15:04:05"}} · filter: {{.Manager}}</footer>{{end}}
`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type dashboardSignals struct {
	Manager string `json:"manager"`
}

type tableData struct {
	ID    string
	Data  any
	Extra any
	Shown int
	Total int
}

func limit[T any](rows []T) ([]T, int) {
	if len(rows) > maxTableRows {
		return rows[:maxTableRows], maxTableRows
	}
	return rows, len(rows)
}

func table[T any](id string, rows []T, extra any) tableData {
	shown, n := limit(rows)
	return tableData{ID: id, Data: shown, Extra: extra, Shown: n, Total: len(rows)}
}

func render(name string, data any) (string, error) {
	var buf strings.Builder
	err := fragments.ExecuteTemplate(&buf, name, data)
	return buf.String(), err
}

func renderChart(v *services.View, name, manager string) (string, error) {
	spec, err := charts.Lookup(name)
	if err != nil {
		return "", err
	}

	var svg bytes.Buffer
	if err := charts.RenderSVG(&svg, spec, chartBars(v, name, manager)); err != nil {
		return "", err
	}

	return render("chart", struct {
		ID   string
		Spec charts.Spec
		SVG  template.HTML
	}{templates.ChartID(name), spec, template.HTML(svg.String())})
}

// section renders the fragments one datastar call patches. Every section of
// a response reads the same view.
type section func(v *services.View, manager string) ([]string, error)

func projectsSection(v *services.View, manager string) ([]string, error) {
	rows := v.Projects(manager)
	projects, err := render("projects", table(templates.ProjectsID, rows, nil))
	if err != nil {
		return nil, err
	}
	summary, err := render("summary", tableData{ID: templates.SummaryID, Data: services.Summarize(rows)})
	if err != nil {
		return nil, err
	}
	cashflow, err := renderChart(v, charts.Cashflow, manager)
	if err != nil {
		return nil, err
	}
	return []string{projects, summary, cashflow}, nil
}

func activitySection(v *services.View, manager string) ([]string, error) {
	content, err := render("activity", table(templates.ActivityID, v.Activities(manager), nil))
	if err != nil {
		return nil, err
	}
	return withCharts(v, manager, []string{content}, charts.ActivityByManager, charts.ActivityByMarket)
}

func salesSection(v *services.View, manager string) ([]string, error) {
	sales := v.Sales(manager)
	content, err := render("sales", table(templates.SalesID, sales.Orders, sales))
	if err != nil {
		return nil, err
	}
	return withCharts(v, manager, []string{content}, charts.SalesByManager, charts.RevenueForecast)
}

func complianceSection(v *services.View, manager string) ([]string, error) {
	compliance := v.Compliance(manager)
	content, err := render("compliance", table(templates.ComplianceID, compliance.Tasks, compliance.ByType))
	if err != nil {
		return nil, err
	}
	return withCharts(v, manager, []string{content}, charts.ComplianceByType)
}

func marketSection(v *services.View, manager string) ([]string, error) {
	market := v.MarketTurnover()
	content, err := render("market", table(templates.MarketID, market.Records, nil))
	if err != nil {
		return nil, err
	}
	return withCharts(v, manager, []string{content}, charts.MarketTurnover)
}

func statusSection(v *services.View, manager string) ([]string, error) {
	status, err := render("status", struct {
		ID       string
		Snapshot *models.Snapshot
		Manager  string
	}{templates.StatusID, v.Snapshot(), manager})
	if err != nil {
		return nil, err
	}
	return []string{status}, nil
}

func withCharts(v *services.View, manager string, out []string, names ...string) ([]string, error) {
	for _, name := range names {
		html, err := renderChart(v, name, manager)
		if err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}

var allSections = []section{
	projectsSection,
	activitySection,
	salesSection,
	complianceSection,
	marketSection,
	statusSection,
}

// readManager returns the manager signal. Unknown or unreadable values fall
// back to All and the caller must push the corrected signal.
func (h *SSEHandlers) readManager(r *http.Request, v *services.View) (string, bool) {
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Debug("read signals", "error", err)
		return services.AllManagers, true
	}

	manager := strings.TrimSpace(signals.Manager)
	if manager == "" {
		return services.AllManagers, false
	}
	if !v.IsKnownManager(manager) {
		h.logger.Warn("unknown manager signal, showing all", "manager", manager)
		return services.AllManagers, true
	}
	return manager, false
}

func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, sections ...section) {
	v := h.analytics.View()
	manager, reset := h.readManager(r, v)
	sse := datastar.NewSSE(w, r)

	if reset {
		h.patchManager(sse, manager)
	}
	h.patch(sse, v, manager, sections)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) patch(sse *datastar.ServerSentEventGenerator, v *services.View, manager string, sections []section) {
	for _, s := range sections {
		elements, err := s(v, manager)
		if err != nil {
			h.logger.Error("render section", "error", err, "manager", manager)
			return
		}
		for _, el := range elements {
			if err := sse.PatchElements(el); err != nil {
				h.logger.Debug("patch elements", "error", err)
				return
			}
		}
	}
}

func (h *SSEHandlers) patchManager(sse *datastar.ServerSentEventGenerator, manager string) {
	jsonData, err := json.Marshal(dashboardSignals{Manager: manager})
	if err != nil {
		h.logger.Error("marshal manager signal", "error", err)
		return
	}
	sse.PatchSignals(jsonData)
}

func (h *SSEHandlers) HandleProjects(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, projectsSection)
}

func (h *SSEHandlers) HandleActivity(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, activitySection)
}

func (h *SSEHandlers) HandleSales(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, salesSection)
}

func (h *SSEHandlers) HandleCompliance(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, complianceSection)
}

func (h *SSEHandlers) HandleMarket(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, marketSection)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, allSections...)
}

// HandleRegenerate draws a new snapshot, then repaints the manager select
// and every section. The selected manager is kept while it still exists.
func (h *SSEHandlers) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Debug("read signals", "error", err)
	}

	regenErr := h.analytics.Regenerate(r.Context())
	v := h.analytics.View()

	manager := strings.TrimSpace(signals.Manager)
	if manager == "" || !v.IsKnownManager(manager) {
		manager = services.AllManagers
	}

	sse := datastar.NewSSE(w, r)
	if regenErr != nil {
		h.logger.Error("regenerate", "error", regenErr)
		sse.PatchElements(`<footer id="` + templates.StatusID + `" class="error">Regeneration failed, showing previous data</footer>`)
		return
	}

	var controls strings.Builder
	if err := templates.ManagerSelect(v.Managers(), manager).Render(r.Context(), &controls); err != nil {
		h.logger.Error("render manager select", "error", err)
		return
	}
	sse.PatchElements(controls.String())
	h.patchManager(sse, manager)
	h.patch(sse, v, manager, allSections)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
