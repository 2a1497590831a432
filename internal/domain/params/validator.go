package params

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/rankdelta/internal/domain/types"
)

// Result collects validation problems. The caller decides whether to fail.
type Result struct {
	Valid  bool
	Errors []string
}

// Err folds the collected problems into a single error, or nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", types.ErrInvalidParameters, strings.Join(r.Errors, "; "))
}

// Validator checks parameter names against a per-table whitelist of
// sortable columns plus the universal names.
type Validator struct {
	sortable map[string][]string
}

// NewValidator creates a Validator from table name -> sortable columns.
// Table names are matched in kebab-case.
func NewValidator(whitelist map[string][]string) *Validator {
	v := &Validator{sortable: make(map[string][]string, len(whitelist))}
	for table, cols := range whitelist {
		c := make([]string, len(cols))
		copy(c, cols)
		v.sortable[TableName(table)] = c
	}
	return v
}

// Tables returns the known table names, sorted.
func (v *Validator) Tables() []string {
	out := make([]string, 0, len(v.sortable))
	for t := range v.sortable {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Sortable returns the sortable columns of a table.
func (v *Validator) Sortable(table string) ([]string, bool) {
	cols, ok := v.sortable[TableName(table)]
	return cols, ok
}

// Validate checks every parameter name for the table, and the values of
// the reserved parameters.
func (v *Validator) Validate(table string, p *Params) Result {
	res := Result{Valid: true}
	cols, ok := v.Sortable(table)
	if !ok {
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf("unknown table %q; valid tables: %s",
			table, strings.Join(v.Tables(), ", ")))
		return res
	}
	allowed := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		allowed[c] = struct{}{}
	}
	for _, name := range p.Names() {
		if IsUniversal(name) {
			if msg := checkUniversal(p, name); msg != "" {
				res.Valid = false
				res.Errors = append(res.Errors, msg)
			}
			continue
		}
		if _, ok := allowed[name]; ok {
			continue
		}
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf("unknown parameter %q for table %q; valid parameters: %s",
			name, table, strings.Join(validNames(cols), ", ")))
	}
	return res
}

// checkUniversal describes what is wrong with a reserved parameter's value,
// or returns "" when it is usable.
func checkUniversal(p *Params, name string) string {
	v, _ := p.Get(name)
	switch name {
	case Rows, Ranks:
		if n, ok := v.Int(); !ok || n <= 0 {
			return fmt.Sprintf("%s must be a positive integer, got %q", name, v.String())
		}
	case Deltas, WSDB:
		if _, err := v.Bool(); err != nil {
			return fmt.Sprintf("%s must be a boolean, got %q", name, v.String())
		}
	case Columns:
		for _, part := range strings.Split(v.String(), ",") {
			col, _, _ := strings.Cut(part, "=")
			if strings.TrimSpace(col) != "" {
				return ""
			}
		}
		return "columns must name at least one column"
	}
	return ""
}

func hasUnknown(allowed []string, p *Params) bool {
	for _, name := range p.Names() {
		if IsUniversal(name) {
			continue
		}
		found := false
		for _, c := range allowed {
			if c == name {
				found = true
				break
			}
		}
		if !found {
			return true
		}
	}
	return false
}

// ValidateErr is Validate followed by Result.Err, tagging unknown tables
// with ErrUnknownTable and unknown names with ErrUnknownParameter. Bad
// values for the reserved parameters surface as ErrInvalidParameters.
func (v *Validator) ValidateErr(table string, p *Params) error {
	res := v.Validate(table, p)
	if res.Valid {
		return nil
	}
	cols, ok := v.Sortable(table)
	if !ok {
		return errors.Join(types.ErrUnknownTable, res.Err())
	}
	if hasUnknown(cols, p) {
		return errors.Join(types.ErrUnknownParameter, res.Err())
	}
	return res.Err()
}

func validNames(cols []string) []string {
	out := []string{Rows, Ranks, Deltas, Columns, WSDB}
	return append(out, cols...)
}
