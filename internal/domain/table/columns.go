package table

import (
	"fmt"
	"strings"

	"github.com/okian/rankdelta/internal/domain/types"
)

// outputColumn is one rendered column: a source field, its header and how
// to format it.
type outputColumn struct {
	Field    string
	Header   string
	Format   Format
	Decimals int
	// Raw headers are emitted without title-casing.
	Raw bool
}

func (c outputColumn) numeric() bool {
	return c.Format == FormatNumber || c.Format == FormatDecimal
}

// columnSpec is one entry of the columns parameter: "field" or "field=alias".
type columnSpec struct {
	Name  string
	Alias string
}

// parseColumnSpec splits "name, shaves=uses" into specs. Blank entries are
// ignored.
func parseColumnSpec(raw string) []columnSpec {
	var out []columnSpec
	for _, part := range strings.Split(raw, ",") {
		name, alias, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, columnSpec{Name: name, Alias: strings.TrimSpace(alias)})
	}
	return out
}

// baseColumns lists the definition's columns that at least one row carries,
// in catalog order.
func baseColumns(def Definition, rows []types.Record) []outputColumn {
	out := make([]outputColumn, 0, len(def.Columns))
	for _, c := range def.Columns {
		if !anyRowHas(rows, c.Field) {
			continue
		}
		out = append(out, outputColumn{
			Field:    c.Field,
			Header:   c.DisplayName,
			Format:   c.Format,
			Decimals: c.Decimals,
		})
	}
	return out
}

// selectColumns applies a columns parameter. Each spec picks a column by
// source field, then by display name ignoring case. Fields outside the
// catalog are allowed when the rows carry them. Unknown names are dropped
// and reported; ending up with no column at all is an error.
func selectColumns(available []outputColumn, specs []columnSpec, rows []types.Record) ([]outputColumn, []string, error) {
	out := make([]outputColumn, 0, len(specs))
	var dropped []string
	for _, spec := range specs {
		col, ok := findColumn(available, spec.Name)
		if !ok && anyRowHas(rows, spec.Name) {
			col, ok = inferColumn(rows, spec.Name), true
		}
		if !ok {
			dropped = append(dropped, spec.Name)
			continue
		}
		if spec.Alias != "" {
			col.Header = spec.Alias
		}
		out = append(out, col)
	}
	if len(out) == 0 {
		return nil, dropped, fmt.Errorf("%w: none of the requested columns exist", types.ErrNoColumns)
	}
	return out, dropped, nil
}

func findColumn(cols []outputColumn, name string) (outputColumn, bool) {
	for _, c := range cols {
		if c.Field == name {
			return c, true
		}
	}
	for _, c := range cols {
		if strings.EqualFold(c.Header, name) || strings.EqualFold(strings.ReplaceAll(c.Field, "_", " "), name) {
			return c, true
		}
	}
	return outputColumn{}, false
}

func anyRowHas(rows []types.Record, field string) bool {
	for _, rec := range rows {
		if _, ok := rec[field]; ok {
			return true
		}
	}
	return false
}

// inferColumn describes a field the catalog does not know, guessing its
// format from the first non-nil value.
func inferColumn(rows []types.Record, field string) outputColumn {
	col := outputColumn{Field: field, Header: field, Format: FormatText}
	for _, rec := range rows {
		switch rec[field].(type) {
		case nil:
			continue
		case int, int64, int32, uint, uint64:
			col.Format = FormatNumber
		case float64, float32:
			col.Format, col.Decimals = FormatDecimal, 2
		}
		return col
	}
	return col
}
