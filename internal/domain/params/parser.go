package params

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/okian/rankdelta/internal/domain/types"
)

var (
	placeholderRe = regexp.MustCompile(`^\{\{\s*tables\.([A-Za-z0-9_-]+)(?:\|([^}]*))?\s*\}\}$`)
	findRe        = regexp.MustCompile(`\{\{\s*tables\.[A-Za-z0-9_-]+(?:\|[^}]*)?\s*\}\}`)
)

// Placeholder is a parsed {{tables.<name>|k:v|...}} reference.
type Placeholder struct {
	// Name is the kebab-case table name as written.
	Name string
	// DataKey is Name with hyphens replaced by underscores.
	DataKey string
	Params  *Params
}

// Match locates one placeholder inside a larger template.
type Match struct {
	Text  string
	Start int
	End   int
}

// ParsePlaceholder parses a single placeholder. Every parameter must be
// key:value with both sides non-empty; numeric values become integers.
func ParsePlaceholder(text string) (Placeholder, error) {
	m := placeholderRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Placeholder{}, fmt.Errorf("%w: %q does not match {{tables.<name>|<param>:<value>}}", types.ErrInvalidPlaceholder, text)
	}
	ph := Placeholder{
		Name:    m[1],
		DataKey: DataKey(m[1]),
		Params:  NewParams(),
	}
	if m[2] == "" {
		if strings.Contains(text, "|") {
			return Placeholder{}, fmt.Errorf("%w: %q has an empty parameter list", types.ErrInvalidPlaceholder, text)
		}
		return ph, nil
	}
	for _, part := range strings.Split(m[2], "|") {
		key, value, ok := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok {
			return Placeholder{}, fmt.Errorf("%w: parameter %q in %q must be key:value", types.ErrInvalidPlaceholder, part, text)
		}
		if key == "" || value == "" {
			return Placeholder{}, fmt.Errorf("%w: parameter %q in %q has an empty key or value", types.ErrInvalidPlaceholder, part, text)
		}
		ph.Params.Set(key, ParseValue(value))
	}
	return ph, nil
}

// FindPlaceholders returns every table placeholder in text, in order.
func FindPlaceholders(text string) []Match {
	locs := findRe.FindAllStringIndex(text, -1)
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Match{Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}
	return out
}

// DataKey maps a kebab-case table name to its data-source key.
func DataKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// TableName maps a data-source key to its kebab-case table name.
func TableName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
