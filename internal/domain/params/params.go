// Package params parses table placeholders and applies the declarative
// table parameters: validation, per-column thresholds and tie-aware size
// limits.
package params

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/rankdelta/internal/domain/types"
)

// Universal parameter names accepted by every table.
const (
	Rows    = "rows"
	Ranks   = "ranks"
	Deltas  = "deltas"
	Columns = "columns"
	WSDB    = "wsdb"
)

var universal = map[string]struct{}{
	Rows:    {},
	Ranks:   {},
	Deltas:  {},
	Columns: {},
	WSDB:    {},
}

// IsUniversal reports whether name is one of the reserved parameter names.
func IsUniversal(name string) bool {
	_, ok := universal[name]
	return ok
}

// Value is a parameter value: an integer when the text was all ASCII
// digits, otherwise a string. Signed text such as "-5" or "+5" stays a
// string.
type Value struct {
	raw   string
	num   int
	isNum bool
}

// IntValue builds an integer value.
func IntValue(n int) Value { return Value{raw: strconv.Itoa(n), num: n, isNum: true} }

// StringValue builds a string value without numeric coercion.
func StringValue(s string) Value { return Value{raw: s} }

// ParseValue coerces text to an integer when it is all ASCII digits.
func ParseValue(s string) Value {
	if !digitsOnly(s) {
		return StringValue(s)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return IntValue(n)
	}
	return StringValue(s)
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Int returns the integer value, if any.
func (v Value) Int() (int, bool) { return v.num, v.isNum }

// IsInt reports whether the value is an integer.
func (v Value) IsInt() bool { return v.isNum }

// String returns the value as written.
func (v Value) String() string { return v.raw }

// Bool interprets the value as a flag. true/yes/on/y/t/1 are true and
// false/no/off/n/f/0 are false; anything else is ErrInvalidParameters.
func (v Value) Bool() (bool, error) {
	if v.isNum {
		switch v.num {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	} else {
		switch strings.ToLower(strings.TrimSpace(v.raw)) {
		case "true", "yes", "on", "y", "t":
			return true, nil
		case "false", "no", "off", "n", "f":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: expected a boolean, got %q", types.ErrInvalidParameters, v.raw)
}

// Params is an insertion-ordered map of parameter name to value.
type Params struct {
	order  []string
	values map[string]Value
}

// NewParams creates an empty parameter set.
func NewParams() *Params {
	return &Params{values: make(map[string]Value)}
}

// Set stores a value; re-setting a name keeps its original position.
func (p *Params) Set(name string, v Value) {
	if _, ok := p.values[name]; !ok {
		p.order = append(p.order, name)
	}
	p.values[name] = v
}

// Get returns the value for name.
func (p *Params) Get(name string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Int returns an integer parameter; strings and missing names report false.
func (p *Params) Int(name string) (int, bool) {
	v, ok := p.Get(name)
	if !ok {
		return 0, false
	}
	return v.Int()
}

// Flag returns a boolean parameter, false when missing. A value that is
// not a boolean is ErrInvalidParameters.
func (p *Params) Flag(name string) (bool, error) {
	v, ok := p.Get(name)
	if !ok {
		return false, nil
	}
	b, err := v.Bool()
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}

// PositiveInt returns a limit parameter. present is false when the name is
// missing; a value that is not a positive integer is ErrInvalidParameters.
func (p *Params) PositiveInt(name string) (n int, present bool, err error) {
	v, ok := p.Get(name)
	if !ok {
		return 0, false, nil
	}
	if n, isNum := v.Int(); isNum && n > 0 {
		return n, true, nil
	}
	return 0, true, fmt.Errorf("%w: %s must be a positive integer, got %q",
		types.ErrInvalidParameters, name, v.String())
}

// Names returns parameter names in insertion order.
func (p *Params) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// String renders the parameters back into placeholder form.
func (p *Params) String() string {
	if p.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, len(p.order))
	for _, name := range p.order {
		parts = append(parts, name+":"+p.values[name].String())
	}
	return strings.Join(parts, "|")
}
