package server

import (
	"log/slog"
	"net/http"

	"projects-dashboard/internal/handlers"
	"projects-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/managers", s.apiHandlers.HandleManagers)
	s.mux.HandleFunc("GET /api/projects", s.apiHandlers.HandleProjects)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/cashflow", s.apiHandlers.HandleCashflow)
	s.mux.HandleFunc("GET /api/activities", s.apiHandlers.HandleActivities)
	s.mux.HandleFunc("GET /api/sales-orders", s.apiHandlers.HandleSalesOrders)
	s.mux.HandleFunc("GET /api/revenue-forecast", s.apiHandlers.HandleRevenueForecast)
	s.mux.HandleFunc("GET /api/compliance", s.apiHandlers.HandleCompliance)
	s.mux.HandleFunc("GET /api/market-turnover", s.apiHandlers.HandleMarketTurnover)
	s.mux.HandleFunc("GET /api/charts", s.apiHandlers.HandleChartSpecs)
	s.mux.HandleFunc("POST /api/regenerate", s.apiHandlers.HandleRegenerate)

	// Charts
	s.mux.HandleFunc("GET /charts/{name}", s.apiHandlers.HandleChart)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/projects", s.sseHandlers.HandleProjects)
	s.mux.HandleFunc("GET /sse/activity", s.sseHandlers.HandleActivity)
	s.mux.HandleFunc("GET /sse/sales", s.sseHandlers.HandleSales)
	s.mux.HandleFunc("GET /sse/compliance", s.sseHandlers.HandleCompliance)
	s.mux.HandleFunc("GET /sse/market", s.sseHandlers.HandleMarket)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
	s.mux.HandleFunc("POST /sse/regenerate", s.sseHandlers.HandleRegenerate)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
