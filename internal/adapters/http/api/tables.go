package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// queryPeriod names the query parameter selecting a snapshot.
const queryPeriod = "period"

// TableDependencies defines the interface for table operations.
type TableDependencies interface {
	Periods(ctx context.Context) []string
	Tables() []string
	RenderTable(ctx context.Context, period, placeholder string) (string, error)
}

// TablesHandler handles table listing and rendering requests.
type TablesHandler struct {
	deps TableDependencies
}

// NewTablesHandler creates a new tables handler.
func NewTablesHandler(deps TableDependencies) *TablesHandler {
	return &TablesHandler{deps: deps}
}

type tablesResponse struct {
	Tables []string `json:"tables"`
}

type periodsResponse struct {
	Periods []string `json:"periods"`
}

// HandleList handles GET /tables requests.
func (h *TablesHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tablesResponse{Tables: h.deps.Tables()})
}

// HandlePeriods handles GET /periods requests.
func (h *TablesHandler) HandlePeriods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, periodsResponse{Periods: h.deps.Periods(r.Context())})
}

// HandleGet handles GET /tables/{name}?period=P&<param>=<value> requests.
// Query parameters other than period become placeholder parameters.
func (h *TablesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	placeholder, err := placeholderFor(r.PathValue("name"), query)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	out, err := h.deps.RenderTable(r.Context(), query.Get(queryPeriod), placeholder)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeMarkdown(w, out)
}

// placeholderFor builds {{tables.name|k:v|...}} with parameters in key order.
func placeholderFor(name string, query url.Values) (string, error) {
	keys := make([]string, 0, len(query))
	for k := range query {
		if k != queryPeriod {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{{tables.")
	b.WriteString(name)
	for _, k := range keys {
		v := query.Get(k)
		if strings.ContainsAny(k+v, "|{}") {
			return "", fmt.Errorf("%w: %q", ErrInvalidQuery, k)
		}
		fmt.Fprintf(&b, "|%s:%s", k, v)
	}
	b.WriteString("}}")
	return b.String(), nil
}
