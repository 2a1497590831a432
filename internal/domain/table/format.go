package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/okian/rankdelta/internal/domain/types"
)

// DefaultAcronyms are words kept verbatim when headers are title-cased.
var DefaultAcronyms = []string{
	"DE", "AC", "OC", "SB", "SE", "GEM", "PTFE", "mm", "HHI", "SOTD", "WSDB", "ID", "USA", "UK", "EU",
}

// formatter renders cell values and headers. Not safe for concurrent use;
// the engine builds one per render.
type formatter struct {
	printer  *message.Printer
	titler   cases.Caser
	acronyms map[string]string
}

func newFormatter(acronyms map[string]string) *formatter {
	return &formatter{
		printer:  message.NewPrinter(language.English),
		titler:   cases.Title(language.English),
		acronyms: acronyms,
	}
}

// acronymSet indexes acronyms by lower-case spelling.
func acronymSet(words ...[]string) map[string]string {
	out := make(map[string]string)
	for _, list := range words {
		for _, w := range list {
			if w = strings.TrimSpace(w); w != "" {
				out[strings.ToLower(w)] = w
			}
		}
	}
	return out
}

// TitleCase title-cases s word by word. Underscores count as spaces and
// words matching an acronym, ignoring surrounding punctuation, keep the
// acronym's spelling.
func TitleCase(s string, acronyms ...string) string {
	return newFormatter(acronymSet(DefaultAcronyms, acronyms)).title(s)
}

func (f *formatter) title(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		start := strings.IndexFunc(w, isWordRune)
		if start < 0 {
			continue
		}
		end := strings.LastIndexFunc(w, isWordRune) + 1
		core := w[start:end]
		if a, ok := f.acronyms[strings.ToLower(core)]; ok {
			words[i] = w[:start] + a + w[end:]
			continue
		}
		words[i] = f.titler.String(w)
	}
	return strings.Join(words, " ")
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

// cell renders one value according to a column's format. Missing values
// render empty, except in delta columns where they read n/a.
func (f *formatter) cell(v any, present bool, col outputColumn) string {
	if !present || v == nil {
		if col.Format == FormatDelta {
			return types.SymbolNA
		}
		return ""
	}
	switch col.Format {
	case FormatNumber:
		return f.number(v)
	case FormatDecimal:
		return decimal(v, col.Decimals)
	default:
		return fmt.Sprint(v)
	}
}

func (f *formatter) number(v any) string {
	n, ok := types.ToFloat(v)
	if !ok {
		return fmt.Sprint(v)
	}
	return f.printer.Sprintf("%d", int64(math.Round(n)))
}

func decimal(v any, places int) string {
	n, ok := types.ToFloat(v)
	if !ok {
		return fmt.Sprint(v)
	}
	if places < 0 {
		places = 0
	}
	return strconv.FormatFloat(n, 'f', places, 64)
}

// TieRanks formats the rank of each row, appending "=" to ranks shared by
// more than one row. Rows without a usable rank keep their raw value.
func TieRanks(rows []types.Record) []string {
	counts := make(map[int]int, len(rows))
	for _, rec := range rows {
		if r, ok := rec.Rank(); ok {
			counts[r]++
		}
	}
	out := make([]string, len(rows))
	for i, rec := range rows {
		r, ok := rec.Rank()
		switch {
		case !ok:
			if raw, has := rec.RankValue(); has && raw != nil {
				out[i] = fmt.Sprint(raw)
			}
		case counts[r] > 1:
			out[i] = strconv.Itoa(r) + "="
		default:
			out[i] = strconv.Itoa(r)
		}
	}
	return out
}
