// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/rankdelta/internal/app"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	Periods(ctx context.Context) []string
	Tables() []string

	// Render operations return markdown.
	RenderTable(ctx context.Context, period, placeholder string) (string, error)
	RenderTemplate(ctx context.Context, period, text string) (string, error)

	DeltaDependencies
}

// Server wires HTTP routes for the report API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	tablesHandler *TablesHandler
	renderHandler *RenderHandler
	deltasHandler *DeltasHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		tablesHandler: NewTablesHandler(deps),
		renderHandler: NewRenderHandler(deps),
		deltasHandler: NewDeltasHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint)))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	route("GET /stats", "stats", s.statsHandler.HandleStats)
	route("GET /periods", "periods", s.tablesHandler.HandlePeriods)
	route("GET /tables", "tables", s.tablesHandler.HandleList)
	route("GET /tables/{name}", "table", s.tablesHandler.HandleGet)
	route("POST /render", "render", s.renderHandler.HandleRender)
	route("GET /deltas/{period}", "deltas", s.deltasHandler.HandleCategory)
	route("GET /annual/{year}", "annual", s.deltasHandler.HandleAnnual)
	route("GET /tiers/{period}", "tiers", s.deltasHandler.HandleTiers)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeMarkdown writes rendered output. An empty table is 204.
func writeMarkdown(w http.ResponseWriter, out string) {
	if out == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates a service error into a status and code.
func writeServiceError(w http.ResponseWriter, err error) {
	kind := service.ErrorKind(err)
	writeError(w, statusFor(kind), kind, err)
}

func statusFor(kind string) int {
	switch kind {
	case "invalid_placeholder", "invalid_parameters", "missing_column", "no_columns", "invalid_period":
		return http.StatusBadRequest
	case "unknown_table", "not_found":
		return http.StatusNotFound
	case "timeout":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
