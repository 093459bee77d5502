package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"projects-dashboard/internal/models"
	"projects-dashboard/internal/services"
	"projects-dashboard/internal/ui/templates"
)

func sseRequest(method, path, signals string) *http.Request {
	if signals == "" {
		return httptest.NewRequest(method, path, nil)
	}
	if method == http.MethodGet {
		return httptest.NewRequest(method, path+"?datastar="+url.QueryEscape(signals), nil)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(signals))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	handlers := NewSSEHandlers(analytics, logger)

	if handlers == nil {
		t.Error("NewSSEHandlers() returned nil")
	}

	if handlers.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}

	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestRender_ProjectsTable(t *testing.T) {
	a := createTestAnalytics()

	html, err := render("projects", table(templates.ProjectsID, a.View().Projects(services.AllManagers), nil))
	if err != nil {
		t.Fatalf("render() failed: %v", err)
	}

	expectedElements := []string{
		`<div id="projects-content">`,
		`<table class="modern-table">`,
		"<th>Project</th>",
		"<td>Project 1</td>",
		"$12,000",
		"32.50%",
		"2025-02-01",
		`<span class="stage-badge">Installation</span>`,
		"60 days",
	}

	for _, element := range expectedElements {
		if !strings.Contains(html, element) {
			t.Errorf("expected HTML to contain %q", element)
		}
	}
}

func TestRender_RowLimit(t *testing.T) {
	projects := make([]models.Project, maxTableRows+5)
	for i := range projects {
		projects[i] = models.Project{ID: "P", Manager: "Alice"}
	}

	html, err := render("projects", table(templates.ProjectsID, projects, nil))
	if err != nil {
		t.Fatalf("render() failed: %v", err)
	}

	if n := strings.Count(html, "<td>P</td>"); n != maxTableRows {
		t.Errorf("expected %d rows, got %d", maxTableRows, n)
	}
	if !strings.Contains(html, "Showing 50 of 55 rows") {
		t.Error("expected truncation notice")
	}
}

func TestRender_EmptyTable(t *testing.T) {
	html, err := render("market", table[models.MarketTurnover](templates.MarketID, nil, nil))
	if err != nil {
		t.Fatalf("render() failed: %v", err)
	}
	if !strings.Contains(html, "No market records") {
		t.Error("expected empty-state row")
	}
}

func TestRender_Summary(t *testing.T) {
	a := createTestAnalytics()

	html, err := render("summary", tableData{ID: templates.SummaryID, Data: a.View().Summary(services.AllManagers)})
	if err != nil {
		t.Fatalf("render() failed: %v", err)
	}

	for _, want := range []string{`id="summary-content"`, "$20,000.00", "35.00%", "60.00%"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected summary to contain %q", want)
		}
	}
}

func TestRenderChart(t *testing.T) {
	v := createTestAnalytics().View()

	html, err := renderChart(v, "cashflow", services.AllManagers)
	if err != nil {
		t.Fatalf("renderChart() failed: %v", err)
	}

	for _, want := range []string{`<div id="chart-cashflow">`, "<svg", "Projected Revenue ($)", "<figcaption>"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected chart fragment to contain %q", want)
		}
	}

	if _, err := renderChart(v, "pie", services.AllManagers); err == nil {
		t.Error("expected error for unknown chart")
	}
}

func TestSSEHandlers_Sections(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		ids     []string
	}{
		{"projects", handlers.HandleProjects, []string{templates.ProjectsID, templates.SummaryID, templates.ChartID("cashflow")}},
		{"activity", handlers.HandleActivity, []string{templates.ActivityID, templates.ChartID("activity-by-manager"), templates.ChartID("activity-by-market")}},
		{"sales", handlers.HandleSales, []string{templates.SalesID, templates.ChartID("sales-by-manager"), templates.ChartID("revenue-forecast")}},
		{"compliance", handlers.HandleCompliance, []string{templates.ComplianceID, templates.ChartID("compliance-by-type")}},
		{"market", handlers.HandleMarket, []string{templates.MarketID, templates.ChartID("market-turnover")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, sseRequest(http.MethodGet, "/sse/"+tt.name, ""))

			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
				t.Errorf("expected Content-Type text/event-stream, got %s", ct)
			}

			body := w.Body.String()
			if !strings.Contains(body, "event: datastar-patch-elements") {
				t.Error("expected a patch-elements event")
			}
			for _, id := range tt.ids {
				if !strings.Contains(body, `id="`+id+`"`) {
					t.Errorf("expected patch for #%s", id)
				}
			}
		})
	}
}

func TestSSEHandlers_ManagerSignal(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleProjects(w, sseRequest(http.MethodGet, "/sse/projects", `{"manager":"Bob"}`))

	body := w.Body.String()
	if !strings.Contains(body, "Project 2") {
		t.Error("expected Bob's project")
	}
	if strings.Contains(body, "<td>Project 1</td>") {
		t.Error("Alice's project should be filtered out")
	}
	if strings.Contains(body, "datastar-patch-signals") {
		t.Error("a known manager should not reset the signal")
	}
}

func TestSSEHandlers_UnknownManagerFallsBack(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleProjects(w, sseRequest(http.MethodGet, "/sse/projects", `{"manager":"Mallory"}`))

	body := w.Body.String()
	if !strings.Contains(body, "event: datastar-patch-signals") || !strings.Contains(body, `"manager":"All"`) {
		t.Error("expected the manager signal to be reset to All")
	}
	if !strings.Contains(body, "<td>Project 1</td>") || !strings.Contains(body, "<td>Project 2</td>") {
		t.Error("expected every project after fallback")
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleRefreshAll(w, sseRequest(http.MethodGet, "/sse/refresh-all", ""))

	body := w.Body.String()
	for _, id := range []string{templates.ProjectsID, templates.ActivityID, templates.SalesID, templates.ComplianceID, templates.MarketID, templates.StatusID} {
		if !strings.Contains(body, `id="`+id+`"`) {
			t.Errorf("expected patch for #%s", id)
		}
	}
	if n := strings.Count(body, "<svg"); n != 7 {
		t.Errorf("expected 7 charts, got %d", n)
	}
	if !strings.Contains(body, "Snapshot snap-test") {
		t.Error("expected status footer with the snapshot id")
	}
}

func TestSSEHandlers_HandleRegenerate(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewSSEHandlers(analytics, testLogger())

	w := httptest.NewRecorder()
	handlers.HandleRegenerate(w, sseRequest(http.MethodPost, "/sse/regenerate", `{"manager":"All"}`))

	if analytics.Snapshot().ID == "snap-test" {
		t.Fatal("regenerate should replace the snapshot")
	}

	body := w.Body.String()
	for _, want := range []string{
		`id="` + templates.ControlsID + `"`,
		"Filter by Project Manager",
		`"manager":"All"`,
		`id="` + templates.ProjectsID + `"`,
		"Snapshot " + analytics.Snapshot().ID,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected regenerate stream to contain %q", want)
		}
	}
}

func projectsSnapshot(id string, n int) *models.Snapshot {
	snap := &models.Snapshot{ID: id}
	for i := 1; i <= n; i++ {
		snap.Projects = append(snap.Projects, models.Project{ID: fmt.Sprintf("Project %d", i), Manager: "Alice", Revenue: 1000})
	}
	return snap
}

func TestProjectsSection_ConsistentDuringRegeneration(t *testing.T) {
	analytics := createTestAnalytics()
	one, three := projectsSnapshot("one", 1), projectsSnapshot("three", 3)

	var stop atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for !stop.Load() {
			analytics.SetSnapshot(one)
			analytics.SetSnapshot(three)
		}
	}()
	defer func() {
		stop.Store(true)
		wg.Wait()
	}()

	for i := 0; i < 2000; i++ {
		elements, err := projectsSection(analytics.View(), services.AllManagers)
		if err != nil {
			t.Fatalf("projectsSection() failed: %v", err)
		}
		rows := strings.Count(elements[0], "<td>Project ")
		kpi := fmt.Sprintf("<span>Projects</span><strong>%d</strong>", rows)
		if !strings.Contains(elements[1], kpi) {
			t.Fatalf("iteration %d: table has %d rows but summary is %s", i, rows, elements[1])
		}
	}
}

func TestSSEHandlers_StatusMatchesRenderedSnapshot(t *testing.T) {
	analytics := createTestAnalytics()
	v := analytics.View()
	analytics.SetSnapshot(projectsSnapshot("later", 1))

	elements, err := statusSection(v, services.AllManagers)
	if err != nil {
		t.Fatalf("statusSection() failed: %v", err)
	}
	if !strings.Contains(elements[0], "Snapshot snap-test") {
		t.Errorf("status should name the pinned snapshot, got %s", elements[0])
	}
}
