package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxTemplateBytes bounds POST /render bodies.
const maxTemplateBytes = 1 << 20

// RenderDependencies defines the interface for template rendering.
type RenderDependencies interface {
	RenderTemplate(ctx context.Context, period, text string) (string, error)
}

// RenderHandler handles template rendering requests.
type RenderHandler struct {
	deps RenderDependencies
}

// NewRenderHandler creates a new render handler.
func NewRenderHandler(deps RenderDependencies) *RenderHandler {
	return &RenderHandler{deps: deps}
}

// HandleRender handles POST /render?period=P requests. The body is the
// template; every placeholder in it is replaced by its table.
func (h *RenderHandler) HandleRender(w http.ResponseWriter, r *http.Request) {
	const op = "api.render"
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTemplateBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrEmptyBody))
		return
	}
	out, err := h.deps.RenderTemplate(r.Context(), r.URL.Query().Get(queryPeriod), string(body))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeMarkdown(w, out)
}
