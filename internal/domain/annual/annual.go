// Package annual runs delta and tier analysis over year-keyed report data
// of the form {"data": {category: [rows...]}}.
package annual

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/rankdelta/internal/domain/delta"
	"github.com/okian/rankdelta/internal/domain/tier"
	"github.com/okian/rankdelta/internal/domain/types"
	"github.com/okian/rankdelta/pkg/logger"
)

const dataKey = "data"

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithLogger sets the logger for degraded categories.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDeltaCalculator replaces the underlying delta calculator.
func WithDeltaCalculator(d *delta.Calculator) Option {
	return func(c *Calculator) {
		if d != nil {
			c.deltas = d
		}
	}
}

// Calculator wraps the delta calculator for annual reports.
type Calculator struct {
	deltas *delta.Calculator
	logger logger.Logger
}

// New creates an annual Calculator.
func New(opts ...Option) *Calculator {
	c := &Calculator{logger: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.deltas == nil {
		c.deltas = delta.New(delta.WithLogger(c.logger))
	}
	return c
}

type deltaFunc func(ctx context.Context, current, historical []types.Record, nameKey string, maxItems int) []types.Record

// CalculateAnnualDeltas computes per-category deltas between two year
// documents. The current document must carry a "data" map; a previous
// document without one is treated as empty. When categories is nil every
// category in the current data is processed; otherwise only the requested
// ones that exist. A failing category degrades to its current rows without
// delta fields.
func (c *Calculator) CalculateAnnualDeltas(ctx context.Context, currentYear, previousYear any, categories []string, maxItems int) (map[string][]types.Record, error) {
	return c.run(ctx, currentYear, previousYear, categories, maxItems, c.deltas.CalculateDeltas)
}

// CalculateTierBasedAnnualDeltas is CalculateAnnualDeltas with tier fields.
func (c *Calculator) CalculateTierBasedAnnualDeltas(ctx context.Context, currentYear, previousYear any, categories []string, maxItems int) (map[string][]types.Record, error) {
	return c.run(ctx, currentYear, previousYear, categories, maxItems, c.deltas.CalculateTierBasedDeltas)
}

func (c *Calculator) run(ctx context.Context, currentYear, previousYear any, categories []string, maxItems int, fn deltaFunc) (map[string][]types.Record, error) {
	curData, prevData, err := yearData(currentYear, previousYear)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]types.Record)
	for _, cat := range selectCategories(curData, categories) {
		rows, err := categoryDeltas(ctx, curData[cat], prevData[cat], cat, c.deltas.CategoryKey(cat), maxItems, fn)
		if err != nil {
			c.logger.Warn(ctx, "annual category delta failed; returning data without deltas",
				logger.String("category", cat), logger.Error(err))
			out[cat] = delta.Fallback(curData[cat], maxItems)
			continue
		}
		out[cat] = rows
	}
	return out, nil
}

func categoryDeltas(ctx context.Context, cur, prev any, category, key string, maxItems int, fn deltaFunc) ([]types.Record, error) {
	curRows, err := types.AsRecords(cur, "current "+category)
	if err != nil {
		return nil, err
	}
	var prevRows []types.Record
	if prev != nil {
		prevRows, err = types.AsRecords(prev, "previous "+category)
		if err != nil {
			return nil, err
		}
	}
	return fn(ctx, curRows, prevRows, key, maxItems), nil
}

// AnnualTierAnalysis returns per-category tier analysis. Inputs that are not
// year documents yield an empty result.
func (c *Calculator) AnnualTierAnalysis(currentYear, previousYear any, categories []string) map[string]tier.Analysis {
	out := make(map[string]tier.Analysis)
	curData, prevData, err := yearData(currentYear, previousYear)
	if err != nil {
		return out
	}
	for _, cat := range selectCategories(curData, categories) {
		cur, err := types.AsRecords(curData[cat], cat)
		if err != nil {
			continue
		}
		prev, _ := types.AsRecords(prevData[cat], cat)
		out[cat] = tier.New(tier.WithNameKey(c.deltas.CategoryKey(cat))).Analyze(cur, prev)
	}
	return out
}

// CalculateMultiYearDeltas seeds each category with copies of its first
// maxItems current rows, then merges one set of delta columns per comparison
// year (delta_<year>, delta_symbol_<year>, delta_text_<year>) by position.
// Comparison years are processed in ascending key order. An empty comparison
// map yields an empty result.
func (c *Calculator) CalculateMultiYearDeltas(ctx context.Context, currentYear any, comparisonYears map[string]any, categories []string, maxItems int) (map[string][]types.Record, error) {
	out := make(map[string][]types.Record)
	if len(comparisonYears) == 0 {
		return out, nil
	}
	curDoc, err := types.AsMap(currentYear, "current year")
	if err != nil {
		return nil, err
	}
	curData, err := types.AsMap(curDoc[dataKey], "current year data")
	if err != nil {
		return nil, fmt.Errorf("%w: current year has no data section", err)
	}
	cats := selectCategories(curData, categories)
	for _, cat := range cats {
		out[cat] = delta.Fallback(curData[cat], maxItems)
	}

	years := make([]string, 0, len(comparisonYears))
	for y := range comparisonYears {
		years = append(years, y)
	}
	sort.Strings(years)

	for _, year := range years {
		yearDeltas, err := c.CalculateAnnualDeltas(ctx, currentYear, comparisonYears[year], cats, maxItems)
		if err != nil {
			c.logger.Warn(ctx, "comparison year failed; skipping",
				logger.String("year", year), logger.Error(err))
			continue
		}
		for _, cat := range cats {
			mergeYear(out[cat], yearDeltas[cat], year)
		}
	}
	return out, nil
}

// mergeYear copies the delta fields of computed onto seeded by position.
// Rows without delta fields (fallback output) contribute nothing.
func mergeYear(seeded, computed []types.Record, year string) {
	for i := 0; i < len(seeded) && i < len(computed); i++ {
		src := computed[i]
		if _, ok := src[types.FieldDelta]; !ok {
			continue
		}
		seeded[i][types.FieldDelta+"_"+year] = src[types.FieldDelta]
		seeded[i][types.FieldDeltaSymbol+"_"+year] = src[types.FieldDeltaSymbol]
		seeded[i][types.FieldDeltaText+"_"+year] = src[types.FieldDeltaText]
	}
}

func yearData(currentYear, previousYear any) (map[string]any, map[string]any, error) {
	curDoc, err := types.AsMap(currentYear, "current year")
	if err != nil {
		return nil, nil, err
	}
	prevDoc, err := types.AsMap(previousYear, "previous year")
	if err != nil {
		return nil, nil, err
	}
	rawCur, ok := curDoc[dataKey]
	if !ok {
		return nil, nil, fmt.Errorf("%w: current year has no data section", types.ErrExpectedMap)
	}
	curData, err := types.AsMap(rawCur, "current year data")
	if err != nil {
		return nil, nil, err
	}
	prevData := map[string]any{}
	if rawPrev, ok := prevDoc[dataKey]; ok {
		if m, err := types.AsMap(rawPrev, "previous year data"); err == nil {
			prevData = m
		}
	}
	return curData, prevData, nil
}

// selectCategories returns every category in data (sorted) when requested
// is nil, otherwise the requested categories that exist, in request order.
func selectCategories(data map[string]any, requested []string) []string {
	if requested == nil {
		out := make([]string, 0, len(data))
		for k := range data {
			out = append(out, k)
		}
		sort.Strings(out)
		return out
	}
	out := make([]string, 0, len(requested))
	for _, k := range requested {
		if _, ok := data[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
