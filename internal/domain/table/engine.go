// Package table renders ranked category data as markdown tables driven by
// {{tables.<name>|param:value}} placeholders.
package table

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/rankdelta/internal/domain/delta"
	"github.com/okian/rankdelta/internal/domain/params"
	"github.com/okian/rankdelta/internal/domain/types"
	"github.com/okian/rankdelta/pkg/logger"
)

// LinkResolver maps a table's key cell to a URL for wsdb:true tables.
type LinkResolver interface {
	Resolve(table, key string) (string, bool)
}

// Request is everything one render needs.
type Request struct {
	// Placeholder is the full {{tables....}} text.
	Placeholder string
	// Data is the current period's category rows.
	Data types.CategoryData
	// CurrentPeriod ("2025-05" or "2025") anchors delta windows.
	CurrentPeriod string
	// History holds the snapshots delta windows are looked up in.
	History types.History
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCatalog replaces the default table catalog.
func WithCatalog(c *Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithPolicy replaces the default limiting policy.
func WithPolicy(p params.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithAcronyms adds words kept verbatim in headers.
func WithAcronyms(words ...string) Option {
	return func(e *Engine) {
		e.extraAcronyms = append(e.extraAcronyms, words...)
	}
}

// WithLinkResolver enables wsdb:true links.
func WithLinkResolver(r LinkResolver) Option {
	return func(e *Engine) {
		e.links = r
	}
}

// WithDeltaCalculator sets the calculator used for deltas:true.
func WithDeltaCalculator(c *delta.Calculator) Option {
	return func(e *Engine) {
		if c != nil {
			e.deltas = c
		}
	}
}

// Engine renders placeholders. It holds no per-render state and is safe
// for concurrent use.
type Engine struct {
	logger        logger.Logger
	catalog       *Catalog
	validator     *params.Validator
	policy        params.Policy
	extraAcronyms []string
	acronyms      map[string]string
	links         LinkResolver
	deltas        *delta.Calculator
}

// New creates an Engine over DefaultCatalog and DefaultPolicy.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:  logger.Nop(),
		catalog: DefaultCatalog(),
		policy:  params.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.deltas == nil {
		e.deltas = delta.New(delta.WithLogger(e.logger))
	}
	e.validator = params.NewValidator(e.catalog.Whitelist())
	e.acronyms = acronymSet(DefaultAcronyms, e.extraAcronyms)
	return e
}

// Catalog returns the engine's table catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Render renders one placeholder. Tables with no rows, or whose rows are
// all filtered out, render as the empty string.
func (e *Engine) Render(ctx context.Context, req Request) (string, error) {
	ph, err := params.ParsePlaceholder(req.Placeholder)
	if err != nil {
		return "", err
	}
	if err := e.validator.ValidateErr(ph.Name, ph.Params); err != nil {
		return "", err
	}
	def, _ := e.catalog.Lookup(ph.Name)

	src := req.Data[ph.DataKey]
	if len(src) == 0 {
		e.logger.Debug(ctx, "no rows for table", logger.String("table", ph.Name))
		return "", nil
	}

	rows := params.FieldLimiter{Policy: e.policy}.Apply(types.CloneRecords(src), ph.Params)
	rows, err = params.SizeLimiter{Policy: e.policy}.Apply(rows, ph.Params)
	if err != nil {
		return "", fmt.Errorf("table %s: %w", ph.Name, err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	cols := baseColumns(def, rows)
	if v, ok := ph.Params.Get(params.Columns); ok {
		var dropped []string
		cols, dropped, err = selectColumns(cols, parseColumnSpec(v.String()), rows)
		if len(dropped) > 0 {
			e.logger.Debug(ctx, "dropping unknown columns",
				logger.String("table", ph.Name),
				logger.Any("columns", dropped))
		}
		if err != nil {
			return "", fmt.Errorf("table %s: %w", ph.Name, err)
		}
	}
	withDeltas, err := ph.Params.Flag(params.Deltas)
	if err != nil {
		return "", fmt.Errorf("table %s: %w", ph.Name, err)
	}
	if withDeltas {
		deltaCols, err := e.annotateDeltas(ctx, def, ph.DataKey, rows, req)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", ph.Name, err)
		}
		cols = append(cols, deltaCols...)
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("table %s: %w", ph.Name, types.ErrNoColumns)
	}

	withLinks, err := ph.Params.Flag(params.WSDB)
	if err != nil {
		return "", fmt.Errorf("table %s: %w", ph.Name, err)
	}
	linkField := ""
	if withLinks && def.SupportsWSDB && e.links != nil {
		linkField = def.Key
	}
	return e.markdown(def.Name, cols, rows, linkField), nil
}

// RenderTemplate replaces every table placeholder in text with its
// rendered table. The first failing placeholder aborts the whole render.
func (e *Engine) RenderTemplate(ctx context.Context, text string, req Request) (string, error) {
	matches := params.FindPlaceholders(text)
	if len(matches) == 0 {
		return text, nil
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		r := req
		r.Placeholder = m.Text
		out, err := e.Render(ctx, r)
		if err != nil {
			return "", fmt.Errorf("render %s: %w", m.Text, err)
		}
		b.WriteString(text[last:m.Start])
		b.WriteString(out)
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}
