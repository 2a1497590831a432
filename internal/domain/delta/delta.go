// Package delta computes period-over-period rank movement for ranked rows.
package delta

import (
	"context"
	"regexp"
	"strconv"

	"github.com/okian/rankdelta/internal/domain/tier"
	"github.com/okian/rankdelta/internal/domain/types"
	"github.com/okian/rankdelta/pkg/logger"
)

// DefaultMaxItems bounds how many current rows get a delta.
const DefaultMaxItems = 20

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithLogger sets the logger used for degraded categories and skipped rows.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCategoryKey sets how category-level functions pick the identifier
// field of a category. The default is always "name".
func WithCategoryKey(fn func(category string) string) Option {
	return func(c *Calculator) {
		if fn != nil {
			c.categoryKey = fn
		}
	}
}

// Calculator computes per-item deltas with tie tolerance.
type Calculator struct {
	logger      logger.Logger
	categoryKey func(string) string
}

// New creates a Calculator. Without WithLogger it logs nothing.
func New(opts ...Option) *Calculator {
	c := &Calculator{logger: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CalculateDeltas annotates the first maxItems current rows with delta,
// delta_symbol and delta_text. maxItems <= 0 keeps every row. Current order
// is preserved. Rows missing the key or rank are skipped; rows whose history
// is absent or unparseable get a nil delta and "n/a".
func (c *Calculator) CalculateDeltas(ctx context.Context, current, historical []types.Record, nameKey string, maxItems int) []types.Record {
	if nameKey == "" {
		nameKey = types.FieldName
	}
	current = types.Truncate(current, maxItems)

	hist := historicalRanks(historical, nameKey)
	if len(hist) == 0 {
		out := make([]types.Record, len(current))
		for i, rec := range current {
			out[i] = withDelta(rec, nil)
		}
		return out
	}

	if len(current) == 0 || !current[0].HasRank() {
		c.logger.Debug(ctx, "current data has no rank field; skipping deltas",
			logger.Int("rows", len(current)))
		return []types.Record{}
	}

	out := make([]types.Record, 0, len(current))
	for _, rec := range current {
		key, ok := rec.Key(nameKey)
		if !ok || !rec.HasRank() {
			c.logger.Debug(ctx, "skipping malformed current row", logger.Any("row", rec))
			continue
		}
		raw, found := hist[key]
		if !found {
			out = append(out, withDelta(rec, nil))
			continue
		}
		curRank, okCur := rec.Rank()
		histRank, okHist := types.ParseRank(raw)
		if !okCur || !okHist {
			c.logger.Debug(ctx, "unparseable rank", logger.String("key", key))
			out = append(out, withDelta(rec, nil))
			continue
		}
		d := histRank - curRank
		out = append(out, withDelta(rec, &d))
	}
	return out
}

// CalculateTierBasedDeltas runs CalculateDeltas and adds tier_change,
// tier_movement and the dataset-wide tier_structure_changed and
// tier_restructured flags to each row.
func (c *Calculator) CalculateTierBasedDeltas(ctx context.Context, current, historical []types.Record, nameKey string, maxItems int) []types.Record {
	if nameKey == "" {
		nameKey = types.FieldName
	}
	rows := c.CalculateDeltas(ctx, current, historical, nameKey, maxItems)
	analysis := tier.New(tier.WithNameKey(nameKey)).Analyze(current, historical)

	for _, rec := range rows {
		rec[types.FieldTierChange] = nil
		rec[types.FieldTierMovement] = nil
		if key, ok := rec.Key(nameKey); ok {
			if change, found := analysis.TierChanges[key]; found {
				rec[types.FieldTierChange] = change
				rec[types.FieldTierMovement] = change.Movement()
			}
		}
		rec[types.FieldTierStructureChanged] = analysis.StructureChanged
		rec[types.FieldTierRestructured] = analysis.Restructured
	}
	return rows
}

// TierAnalysis delegates to the tier identifier keyed on "name".
func (c *Calculator) TierAnalysis(current, historical []types.Record) tier.Analysis {
	return tier.New().Analyze(current, historical)
}

// CalculateCategoryDeltas computes deltas per category from decoded
// category maps. A category whose current or historical value is not a list
// degrades to its current rows truncated to maxItems, without delta fields.
// A category missing from historical is compared against empty history.
func (c *Calculator) CalculateCategoryDeltas(ctx context.Context, current, historical map[string]any, categories []string, maxItems int) map[string][]types.Record {
	out := make(map[string][]types.Record, len(categories))
	for _, cat := range categories {
		rows, err := c.categoryDeltas(ctx, current[cat], historical[cat], cat, maxItems)
		if err != nil {
			c.logger.Warn(ctx, "category delta failed; returning data without deltas",
				logger.String("category", cat), logger.Error(err))
			out[cat] = Fallback(current[cat], maxItems)
			continue
		}
		out[cat] = rows
	}
	return out
}

func (c *Calculator) categoryDeltas(ctx context.Context, cur, hist any, category string, maxItems int) ([]types.Record, error) {
	curRows, err := types.AsRecords(cur, "current "+category)
	if err != nil {
		return nil, err
	}
	var histRows []types.Record
	if hist != nil {
		histRows, err = types.AsRecords(hist, "historical "+category)
		if err != nil {
			return nil, err
		}
	}
	return c.CalculateDeltas(ctx, curRows, histRows, c.CategoryKey(category), maxItems), nil
}

// CategoryKey returns the identifier field used for a category.
func (c *Calculator) CategoryKey(category string) string {
	if c.categoryKey != nil {
		if k := c.categoryKey(category); k != "" {
			return k
		}
	}
	return types.FieldName
}

// Fallback returns copies of the current rows truncated to maxItems, or an
// empty list when the value is not a list at all.
func Fallback(current any, maxItems int) []types.Record {
	rows, err := types.AsRecords(current, "current")
	if err != nil {
		return []types.Record{}
	}
	return types.CloneRecords(types.Truncate(rows, maxItems))
}

// Symbol renders a delta as ↑N, ↓N, = or n/a.
func Symbol(d *int) string {
	switch {
	case d == nil:
		return types.SymbolNA
	case *d > 0:
		return types.SymbolUp + strconv.Itoa(*d)
	case *d < 0:
		return types.SymbolDown + strconv.Itoa(-*d)
	default:
		return types.SymbolUnchanged
	}
}

var (
	canonicalDelta = regexp.MustCompile(`^[↑↓][0-9]+$`)
	signedDelta    = regexp.MustCompile(`^[+-]?[0-9]+$`)
)

// FormatDeltaColumn maps each item's delta text to ↑N, ↓N, = or n/a.
// Non-mapping items and unrecognized values map to n/a.
func FormatDeltaColumn(items []any, deltaKey string) []string {
	if deltaKey == "" {
		deltaKey = types.FieldDeltaText
	}
	out := make([]string, len(items))
	for i, item := range items {
		var rec map[string]any
		switch v := item.(type) {
		case types.Record:
			rec = v
		case map[string]any:
			rec = v
		default:
			out[i] = types.SymbolNA
			continue
		}
		out[i] = normalizeSymbol(rec[deltaKey])
	}
	return out
}

func normalizeSymbol(v any) string {
	switch d := v.(type) {
	case int:
		return Symbol(&d)
	case string:
		switch {
		case d == types.SymbolUnchanged || d == types.SymbolNA:
			return d
		case canonicalDelta.MatchString(d):
			return d
		case signedDelta.MatchString(d):
			n, err := strconv.Atoi(d)
			if err != nil {
				return types.SymbolNA
			}
			return Symbol(&n)
		}
	}
	return types.SymbolNA
}

// historicalRanks maps key -> raw rank for records carrying both.
func historicalRanks(historical []types.Record, nameKey string) map[string]any {
	idx := make(map[string]any, len(historical))
	for _, rec := range historical {
		key, ok := rec.Key(nameKey)
		if !ok {
			continue
		}
		rank, ok := rec.RankValue()
		if !ok {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = rank
		}
	}
	return idx
}

func withDelta(rec types.Record, d *int) types.Record {
	out := rec.Clone()
	if d == nil {
		out[types.FieldDelta] = nil
	} else {
		out[types.FieldDelta] = *d
	}
	sym := Symbol(d)
	out[types.FieldDeltaSymbol] = sym
	out[types.FieldDeltaText] = sym
	return out
}
