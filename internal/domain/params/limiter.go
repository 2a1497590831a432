package params

import (
	"fmt"
	"sort"

	"github.com/okian/rankdelta/internal/domain/types"
)

// FieldLimiter filters rows by per-column thresholds.
type FieldLimiter struct {
	Policy Policy
}

// Apply keeps rows satisfying every non-universal parameter. Integer
// thresholds compare numerically: value <= threshold for lower-is-better
// columns, value >= threshold otherwise. String thresholds compare the
// value's text lexicographically the same way. Rows missing the column, or
// whose value cannot be coerced for a numeric threshold, are dropped.
func (l FieldLimiter) Apply(rows []types.Record, p *Params) []types.Record {
	out := rows
	for _, name := range p.Names() {
		if IsUniversal(name) {
			continue
		}
		threshold, _ := p.Get(name)
		lower := l.Policy.LowerIsBetterColumn(name)
		kept := make([]types.Record, 0, len(out))
		for _, rec := range out {
			if keep(rec, name, threshold, lower) {
				kept = append(kept, rec)
			}
		}
		out = kept
	}
	return out
}

func keep(rec types.Record, column string, threshold Value, lower bool) bool {
	raw, ok := rec[column]
	if !ok || raw == nil {
		return false
	}
	if n, isNum := threshold.Int(); isNum {
		v, ok := types.ToFloat(raw)
		if !ok {
			return false
		}
		if lower {
			return v <= float64(n)
		}
		return v >= float64(n)
	}
	s := fmt.Sprint(raw)
	if lower {
		return s <= threshold.String()
	}
	return s >= threshold.String()
}

// SizeLimiter truncates rank-ordered rows with tie awareness.
type SizeLimiter struct {
	Policy Policy
}

// Apply applies the ranks limit first, then the rows limit. Rows are
// stably sorted by rank before limiting. Limits require a rank on every row
// and must be positive integers.
func (l SizeLimiter) Apply(rows []types.Record, p *Params) ([]types.Record, error) {
	maxRanks, hasRanks, err := p.PositiveInt(Ranks)
	if err != nil {
		return nil, err
	}
	maxRows, hasRows, err := p.PositiveInt(Rows)
	if err != nil {
		return nil, err
	}
	if !hasRanks && !hasRows {
		return rows, nil
	}
	if len(rows) == 0 {
		return rows, nil
	}
	if err := requireRank(rows); err != nil {
		return nil, err
	}
	out := SortByRank(rows)
	if hasRanks {
		out = l.RankLimit(out, maxRanks)
	}
	if hasRows {
		out = l.RowLimit(out, maxRows)
	}
	return out, nil
}

// RankLimit keeps every row whose rank is <= maxRanks. When the largest
// rank present is already within the limit the rows are returned as is.
func (l SizeLimiter) RankLimit(rows []types.Record, maxRanks int) []types.Record {
	if len(rows) == 0 || maxRanks <= 0 {
		return rows
	}
	highest := 0
	for _, rec := range rows {
		if r, ok := rec.Rank(); ok && r > highest {
			highest = r
		}
	}
	if highest <= maxRanks {
		return rows
	}
	out := make([]types.Record, 0, len(rows))
	for _, rec := range rows {
		if r, ok := rec.Rank(); ok && r <= maxRanks {
			out = append(out, rec)
		}
	}
	return out
}

// RowLimit keeps roughly maxRows rows without splitting a tie. The rank at
// position maxRows-1 is the cutoff and every row up to it is kept, as long
// as that fits within the policy allowance (max_rows + max_rows/2 by
// default). Otherwise the cutoff moves back to the nearest smaller rank. A
// tie that starts at the very first rank has nothing to fall back to and is
// kept whole.
func (l SizeLimiter) RowLimit(rows []types.Record, maxRows int) []types.Record {
	if maxRows <= 0 || len(rows) <= maxRows {
		return rows
	}
	sorted := SortByRank(rows)
	cutoff, ok := sorted[maxRows-1].Rank()
	if !ok {
		return sorted[:maxRows]
	}

	upTo := func(limit int) []types.Record {
		out := make([]types.Record, 0, maxRows)
		for _, rec := range sorted {
			if r, ok := rec.Rank(); ok && r <= limit {
				out = append(out, rec)
			}
		}
		return out
	}

	within := upTo(cutoff)
	if len(within) <= l.Policy.Allowance(maxRows) {
		return within
	}

	lower, found := 0, false
	for _, rec := range sorted {
		if r, ok := rec.Rank(); ok && r < cutoff && (!found || r > lower) {
			lower, found = r, true
		}
	}
	if !found {
		return within
	}
	return upTo(lower)
}

// SortByRank returns a stably rank-sorted copy of rows. Rows without a
// parseable rank sort last.
func SortByRank(rows []types.Record) []types.Record {
	out := make([]types.Record, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		ri, oki := out[i].Rank()
		rj, okj := out[j].Rank()
		switch {
		case oki && okj:
			return ri < rj
		case oki:
			return true
		default:
			return false
		}
	})
	return out
}

func requireRank(rows []types.Record) error {
	for i, rec := range rows {
		if _, ok := rec.Rank(); !ok {
			return fmt.Errorf("%w: row %d has no usable %q", types.ErrMissingColumn, i, types.FieldRank)
		}
	}
	return nil
}
