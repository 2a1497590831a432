// Package types contains the ranked record shapes shared by the delta,
// parameter and rendering packages.
package types

import (
	"fmt"
	"strings"
)

// Well-known record fields.
const (
	FieldRank        = "rank"
	FieldName        = "name"
	FieldDelta       = "delta"
	FieldDeltaSymbol = "delta_symbol"
	FieldDeltaText   = "delta_text"

	FieldTierChange           = "tier_change"
	FieldTierMovement         = "tier_movement"
	FieldTierStructureChanged = "tier_structure_changed"
	FieldTierRestructured     = "tier_restructured"
)

// Delta symbol vocabulary.
const (
	SymbolUnchanged = "="
	SymbolNA        = "n/a"
	SymbolUp        = "↑"
	SymbolDown      = "↓"
)

// Record is one ranked row. It always carries a key field (name, brand,
// user, ...) and usually a rank; every other field is display payload.
type Record map[string]any

// Key returns the record's identifier under keyField. Empty and missing
// values report false.
func (r Record) Key(keyField string) (string, bool) {
	v, ok := r[keyField]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// RankValue returns the raw rank value as stored.
func (r Record) RankValue() (any, bool) {
	v, ok := r[FieldRank]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Rank returns the rank as an integer, tolerating tie markers and decimal
// formatting.
func (r Record) Rank() (int, bool) {
	v, ok := r.RankValue()
	if !ok {
		return 0, false
	}
	return ParseRank(v)
}

// HasRank reports whether the rank field is present and non-nil.
func (r Record) HasRank() bool {
	_, ok := r.RankValue()
	return ok
}

// Clone returns a shallow copy so fields can be added or renamed without
// touching the caller's row.
func (r Record) Clone() Record {
	out := make(Record, len(r)+4)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CloneRecords copies every record in rows.
func CloneRecords(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// Truncate returns the first n records; n <= 0 keeps everything.
func Truncate(rows []Record, n int) []Record {
	if n <= 0 || len(rows) <= n {
		return rows
	}
	return rows[:n]
}

// CategoryData maps a category (razors, blades, users, ...) to its rows.
type CategoryData map[string][]Record

// Snapshot is one period's worth of data plus its metadata.
type Snapshot struct {
	Period string
	Meta   map[string]any
	Data   CategoryData
}

// History maps a period key ("2025-04", "2024") to its snapshot.
type History map[string]Snapshot

// Lookup returns the snapshot for a period.
func (h History) Lookup(period string) (Snapshot, bool) {
	s, ok := h[period]
	return s, ok
}

// RankChange records a key's rank in both snapshots.
type RankChange struct {
	Historical int `json:"historical"`
	Current    int `json:"current"`
}

// Movement is Historical - Current; positive means the item moved up.
func (c RankChange) Movement() int {
	return c.Historical - c.Current
}
