package table

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rankdelta/internal/domain/types"
)

const (
	monthLayout = "2006-01"
	yearLayout  = "2006"
)

// fallbackKeys are tried, in order, when a table's own key is not present
// in its rows.
var fallbackKeys = []string{"name", "brand", "maker", "user", "format", "fiber"}

// window is one historical period a table is compared against.
type window struct {
	Period string
	Label  string
	Field  string
}

// ComparisonPeriods returns the historical periods compared against a
// period key: previous month, previous year and five years back for
// YYYY-MM; previous year and five years back for YYYY.
func ComparisonPeriods(current string) ([]string, error) {
	ws, err := comparisonWindows(current)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Period
	}
	return out, nil
}

func comparisonWindows(current string) ([]window, error) {
	switch len(current) {
	case len(monthLayout):
		t, err := time.Parse(monthLayout, current)
		if err != nil {
			break
		}
		return []window{
			monthWindow(t.AddDate(0, -1, 0)),
			monthWindow(t.AddDate(-1, 0, 0)),
			monthWindow(t.AddDate(-5, 0, 0)),
		}, nil
	case len(yearLayout):
		t, err := time.Parse(yearLayout, current)
		if err != nil {
			break
		}
		return []window{
			yearWindow(t.AddDate(-1, 0, 0)),
			yearWindow(t.AddDate(-5, 0, 0)),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q is neither YYYY-MM nor YYYY", types.ErrInvalidPeriod, current)
}

func monthWindow(t time.Time) window {
	p := t.Format(monthLayout)
	return window{Period: p, Label: "Δ vs " + t.Format("Jan 2006"), Field: "delta_vs_" + p}
}

func yearWindow(t time.Time) window {
	p := t.Format(yearLayout)
	return window{Period: p, Label: "Δ vs " + p, Field: "delta_vs_" + p}
}

// matchKey picks the identifier used to pair rows across periods.
func matchKey(def Definition, rows []types.Record) string {
	if def.Key != "" && anyRowHas(rows, def.Key) {
		return def.Key
	}
	for _, k := range fallbackKeys {
		if anyRowHas(rows, k) {
			return k
		}
	}
	if def.Key != "" {
		return def.Key
	}
	return types.FieldName
}

// annotateDeltas stores one delta symbol per comparison window on every row
// and returns the matching columns. Rows are modified in place. Rows absent
// from a window's history read n/a.
func (e *Engine) annotateDeltas(ctx context.Context, def Definition, dataKey string, rows []types.Record, req Request) ([]outputColumn, error) {
	windows, err := comparisonWindows(req.CurrentPeriod)
	if err != nil {
		return nil, err
	}
	for i, rec := range rows {
		if !rec.HasRank() {
			return nil, fmt.Errorf("%w: row %d has no usable %q for deltas", types.ErrMissingColumn, i, types.FieldRank)
		}
	}

	key := matchKey(def, rows)
	cols := make([]outputColumn, 0, len(windows))
	for _, w := range windows {
		var hist []types.Record
		if snap, ok := req.History.Lookup(w.Period); ok {
			hist = snap.Data[dataKey]
		}
		symbols := make(map[string]string, len(rows))
		for _, rec := range e.deltas.CalculateDeltas(ctx, rows, hist, key, len(rows)) {
			if k, ok := rec.Key(key); ok {
				symbols[k] = fmt.Sprint(rec[types.FieldDeltaSymbol])
			}
		}
		for _, rec := range rows {
			sym := types.SymbolNA
			if k, ok := rec.Key(key); ok {
				if s, found := symbols[k]; found {
					sym = s
				}
			}
			rec[w.Field] = sym
		}
		cols = append(cols, outputColumn{Field: w.Field, Header: w.Label, Format: FormatDelta, Raw: true})
	}
	return cols, nil
}
