package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseRank converts a stored rank to an integer. Strings may carry a
// trailing tie marker ("2=") or decimal formatting ("2.0"); everything after
// '=' is dropped and the number is truncated.
func ParseRank(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case float32:
		return ParseRank(float64(n))
	case string:
		s := n
		if i := strings.IndexByte(s, '='); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return ParseRank(f)
	default:
		return 0, false
	}
}

// ToFloat coerces a numeric-looking value. Strings are trimmed and may use
// thousands separators.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case bool:
		return 0, false
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsRecords coerces decoded dynamic data (YAML/JSON lists) to records.
// Anything that is not a list fails with ErrExpectedList; list elements that
// are not mappings are skipped.
func AsRecords(v any, label string) ([]Record, error) {
	switch rows := v.(type) {
	case []Record:
		return rows, nil
	case []map[string]any:
		out := make([]Record, len(rows))
		for i, r := range rows {
			out[i] = Record(r)
		}
		return out, nil
	case []any:
		out := make([]Record, 0, len(rows))
		for _, item := range rows {
			if r, ok := asRecord(item); ok {
				out = append(out, r)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w for %s, got %T", ErrExpectedList, label, v)
	}
}

func asRecord(v any) (Record, bool) {
	switch r := v.(type) {
	case Record:
		return r, true
	case map[string]any:
		return Record(r), true
	case map[any]any:
		out := make(Record, len(r))
		for k, val := range r {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// AsMap coerces a decoded mapping. Anything else fails with ErrExpectedMap.
func AsMap(v any, label string) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case Record:
		return map[string]any(m), nil
	case CategoryData:
		out := make(map[string]any, len(m))
		for k, rows := range m {
			out[k] = rows
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w for %s, got %T", ErrExpectedMap, label, v)
	}
}

// AsCategoryData converts a decoded category map, skipping categories that
// are not lists.
func AsCategoryData(v any) (CategoryData, error) {
	m, err := AsMap(v, "data")
	if err != nil {
		return nil, err
	}
	out := make(CategoryData, len(m))
	for k, raw := range m {
		rows, err := AsRecords(raw, k)
		if err != nil {
			continue
		}
		out[k] = rows
	}
	return out, nil
}
