package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"projects-dashboard/internal/charts"
	"projects-dashboard/internal/errors"
	"projects-dashboard/internal/observability"
	"projects-dashboard/internal/services"
)

const cacheControl = "no-cache"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// manager reads the ?manager= filter against v. An unknown manager is a
// validation error; an empty snapshot means the service is not ready yet.
func (h *APIHandlers) manager(w http.ResponseWriter, r *http.Request, v *services.View) (string, bool) {
	requestID := observability.GetRequestID(r.Context())

	if !v.Ready() {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("Data has not been generated yet"), requestID)
		return "", false
	}

	manager := strings.TrimSpace(r.URL.Query().Get("manager"))
	if !v.IsKnownManager(manager) {
		errors.WriteError(w, h.logger,
			errors.Validation("Unknown project manager").WithDetails("manager %q is not one of %v", manager, v.Managers()),
			requestID)
		return "", false
	}
	if manager == "" {
		manager = services.AllManagers
	}
	return manager, true
}

// write sends data with the id of the snapshot it was computed from.
func (h *APIHandlers) write(w http.ResponseWriter, v *services.View, data any) {
	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
		"X-Snapshot-ID": v.Snapshot().ID,
	})
}

func (h *APIHandlers) HandleManagers(w http.ResponseWriter, r *http.Request) {
	v := h.analytics.View()
	h.write(w, v, v.Managers())
}

func (h *APIHandlers) HandleProjects(w http.ResponseWriter, r *http.Request) {
	v := h.analytics.View()
	manager, ok := h.manager(w, r, v)
	if !ok {
		return
	}
	h.write(w, v, v.Projects(manager))
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	v := h.analytics.View()
	manager, ok := h.manager(w, r, v)
	if !ok {
		return
	}
	h.write(w, v, v.Summary(manager))
}

func (h *APIHandlers) HandleCashflow(w http.ResponseWriter, r *http.Request) {
	v := h.analytics.View()
	manager, ok := h.manager(w, r, v)
	if !ok {
		return
	}
	h.write(w, v, v.Cashflow(manager))
}

func (h *APIHandlers) HandleActivities(w http.ResponseWriter, r *http.Request) {
	v := h.analytics.View()
	manager, ok := h.manager(w, r, v)
	if !ok {
		return
	}
	h.write(w, v, v.ActivityKPIs(manager))
}

func (h *APIHandlers) HandleSalesOrders(w http.ResponseWriter, r *http.Request) {
	v := h.analytics.View()
	manager, ok := h.manager(w, r, v)
	if !ok {
		return
	}
	h.write(w, v, v.Sales(manager))
}

func (h *APIHandlers) HandleRevenueForecast(w http.ResponseWriter, r *http.Request) {
	v := h.analytics.View()
	manager, ok := h.manager(w, r, v)
	if !ok {
		return
	}
	h.write(w, v, v.RevenueForecast(manager))
}

func (h *APIHandlers) HandleCompliance(w http.ResponseWriter, r *http.Request) {
	v := h.analytics.View()
	manager, ok := h.manager(w, r, v)
	if !ok {
		return
	}
	h.write(w, v, v.Compliance(manager))
}

func (h *APIHandlers) HandleMarketTurnover(w http.ResponseWriter, r *http.Request) {
	v := h.analytics.View()
	if _, ok := h.manager(w, r, v); !ok {
		return
	}
	h.write(w, v, v.MarketTurnover())
}

func (h *APIHandlers) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	if err := h.analytics.Regenerate(r.Context()); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to regenerate data"), observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccess(w, h.analytics.Stats())
}

func (h *APIHandlers) HandleChartSpecs(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, charts.Specs())
}

// HandleChart serves GET /charts/{name} as an SVG image.
func (h *APIHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	name := strings.TrimSuffix(r.PathValue("name"), ".svg")
	spec, err := charts.Lookup(name)
	if err != nil {
		errors.WriteError(w, h.logger, errors.NotFoundWrap(err, "Chart not found"), requestID)
		return
	}

	v := h.analytics.View()
	manager, ok := h.manager(w, r, v)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderSVG(&buf, spec, chartBars(v, name, manager)); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to render chart"), requestID)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", cacheControl)
	w.Header().Set("X-Snapshot-ID", v.Snapshot().ID)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.analytics.View().Ready() {
		status = "starting"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}

// chartBars builds the series for a named chart. Unknown names yield nil.
func chartBars(v *services.View, name, manager string) []charts.Bar {
	switch name {
	case charts.Cashflow:
		return charts.FromMonthly(v.Cashflow(manager))
	case charts.ActivityByManager:
		return charts.FromCounts(v.ActivityKPIs(manager).ByManager)
	case charts.ActivityByMarket:
		return charts.FromCounts(v.ActivityKPIs(manager).ByMarket)
	case charts.SalesByManager:
		return charts.FromValues(v.Sales(manager).ByManager)
	case charts.RevenueForecast:
		return charts.FromMonthly(v.RevenueForecast(manager))
	case charts.ComplianceByType:
		return charts.FromCounts(v.Compliance(manager).ByType)
	case charts.MarketTurnover:
		return charts.FromValues(v.MarketTurnover().ByMarket)
	default:
		return nil
	}
}
