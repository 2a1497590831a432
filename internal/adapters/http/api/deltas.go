package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/rankdelta/internal/app"
	"github.com/okian/rankdelta/internal/domain/tier"
	"github.com/okian/rankdelta/internal/domain/types"
)

// DeltaDependencies defines the interface for delta operations.
type DeltaDependencies interface {
	CategoryDeltas(ctx context.Context, period, against string, categories []string) (map[string][]types.Record, error)
	TierDeltas(ctx context.Context, period, against string, categories []string) (map[string][]types.Record, error)
	AnnualReport(ctx context.Context, year string, categories []string) (service.AnnualReport, error)
	TierAnalysis(ctx context.Context, period, against string, categories []string) (map[string]tier.Analysis, error)
}

// DeltasHandler handles delta and tier requests.
type DeltasHandler struct {
	deps DeltaDependencies
}

// NewDeltasHandler creates a new deltas handler.
func NewDeltasHandler(deps DeltaDependencies) *DeltasHandler {
	return &DeltasHandler{deps: deps}
}

// HandleCategory handles GET /deltas/{period}?against=P&category=C&tiers=B
// requests. tiers=true adds tier fields to every row.
func (h *DeltasHandler) HandleCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	deltas := h.deps.CategoryDeltas
	if raw := q.Get("tiers"); raw != "" {
		tiers, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrInvalidQuery)
			return
		}
		if tiers {
			deltas = h.deps.TierDeltas
		}
	}
	out, err := deltas(r.Context(), r.PathValue("period"), q.Get("against"), categories(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleAnnual handles GET /annual/{year}?category=C requests. The response
// carries the compared years and their column descriptors.
func (h *DeltasHandler) HandleAnnual(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.AnnualReport(r.Context(), r.PathValue("year"), categories(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleTiers handles GET /tiers/{period}?against=P&category=C requests.
func (h *DeltasHandler) HandleTiers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.deps.TierAnalysis(r.Context(), r.PathValue("period"), q.Get("against"), categories(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// categories collects repeated or comma separated category parameters.
func categories(r *http.Request) []string {
	var out []string
	for _, v := range r.URL.Query()["category"] {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}
