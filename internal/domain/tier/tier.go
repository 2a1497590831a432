// Package tier groups ranked items into tiers (items sharing a rank) and
// describes how tiers moved, split or merged between two snapshots.
package tier

import (
	"sort"

	"github.com/okian/rankdelta/internal/domain/types"
)

const defaultNameKey = types.FieldName

// Option applies a configuration option to the Identifier.
type Option func(*Identifier)

// WithNameKey sets the record field that identifies an item.
func WithNameKey(key string) Option {
	return func(i *Identifier) {
		if key != "" {
			i.nameKey = key
		}
	}
}

// Identifier performs tier analysis. It is stateless apart from the key
// field and safe to reuse.
type Identifier struct {
	nameKey string
}

// New creates an Identifier keyed on "name" unless overridden.
func New(opts ...Option) *Identifier {
	i := &Identifier{nameKey: defaultNameKey}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// NameKey returns the identifying field.
func (i *Identifier) NameKey() string { return i.nameKey }

// Comparison is the result of Compare.
type Comparison struct {
	TierChanges      map[string]types.RankChange
	StructureChanged bool
}

// Split records one historical tier whose members now sit on several ranks.
type Split struct {
	HistoricalTier  int      `json:"historical_tier"`
	HistoricalItems []string `json:"historical_items"`
	CurrentTiers    []int    `json:"current_tiers"`
}

// Merge records one current tier whose members came from several ranks.
type Merge struct {
	CurrentTier     int      `json:"current_tier"`
	CurrentItems    []string `json:"current_items"`
	HistoricalTiers []int    `json:"historical_tiers"`
}

// Restructure is the result of SplitsAndMerges.
type Restructure struct {
	Splits       []Split
	Merges       []Merge
	Restructured bool
}

// Analysis aggregates every tier view of a current/historical pair.
type Analysis struct {
	Movement         map[string]int              `json:"movement"`
	TierChanges      map[string]types.RankChange `json:"tier_changes"`
	StructureChanged bool                        `json:"structure_changed"`
	Splits           []Split                     `json:"splits"`
	Merges           []Merge                     `json:"merges"`
	Restructured     bool                        `json:"restructured"`
}

// Identify groups keys by rank. Records missing either the key or a
// parseable rank are dropped.
func (i *Identifier) Identify(records []types.Record) map[int][]string {
	tiers := make(map[int][]string)
	for _, rec := range records {
		key, rank, ok := i.keyRank(rec)
		if !ok {
			continue
		}
		tiers[rank] = append(tiers[rank], key)
	}
	return tiers
}

// Movement returns historical - current rank for every current key that
// also appears in historical. Keys without history are omitted.
func (i *Identifier) Movement(current, historical []types.Record) map[string]int {
	out := make(map[string]int)
	if len(current) == 0 || len(historical) == 0 {
		return out
	}
	hist := i.rankIndex(historical)
	for _, rec := range current {
		key, rank, ok := i.keyRank(rec)
		if !ok {
			continue
		}
		if h, found := hist[key]; found {
			out[key] = h - rank
		}
	}
	return out
}

// Compare records (historical, current) ranks for keys present in both and
// flags whether any of them changed.
func (i *Identifier) Compare(current, historical []types.Record) Comparison {
	cmp := Comparison{TierChanges: make(map[string]types.RankChange)}
	if len(current) == 0 || len(historical) == 0 {
		return cmp
	}
	hist := i.rankIndex(historical)
	for _, rec := range current {
		key, rank, ok := i.keyRank(rec)
		if !ok {
			continue
		}
		h, found := hist[key]
		if !found {
			continue
		}
		cmp.TierChanges[key] = types.RankChange{Historical: h, Current: rank}
		if h != rank {
			cmp.StructureChanged = true
		}
	}
	return cmp
}

// SplitsAndMerges detects historical tiers whose shared members now occupy
// more than one current rank (splits), and current tiers whose members came
// from more than one historical rank (merges).
func (i *Identifier) SplitsAndMerges(current, historical []types.Record) Restructure {
	res := Restructure{Splits: []Split{}, Merges: []Merge{}}
	if len(current) == 0 || len(historical) == 0 {
		return res
	}

	cur := i.rankIndex(current)
	hist := i.rankIndex(historical)
	curTiers, curOrder := i.orderedTiers(current)
	histTiers, histOrder := i.orderedTiers(historical)

	for _, rank := range histOrder {
		items := histTiers[rank]
		ranks := distinct(items, cur)
		if len(ranks) > 1 {
			res.Splits = append(res.Splits, Split{
				HistoricalTier:  rank,
				HistoricalItems: items,
				CurrentTiers:    ranks,
			})
		}
	}

	for _, rank := range curOrder {
		items := curTiers[rank]
		ranks := distinct(items, hist)
		if len(ranks) > 1 {
			res.Merges = append(res.Merges, Merge{
				CurrentTier:     rank,
				CurrentItems:    items,
				HistoricalTiers: ranks,
			})
		}
	}

	res.Restructured = len(res.Splits) > 0 || len(res.Merges) > 0
	return res
}

// Analyze returns movement, tier changes and restructuring in one value.
func (i *Identifier) Analyze(current, historical []types.Record) Analysis {
	cmp := i.Compare(current, historical)
	rs := i.SplitsAndMerges(current, historical)
	return Analysis{
		Movement:         i.Movement(current, historical),
		TierChanges:      cmp.TierChanges,
		StructureChanged: cmp.StructureChanged,
		Splits:           rs.Splits,
		Merges:           rs.Merges,
		Restructured:     rs.Restructured,
	}
}

func (i *Identifier) keyRank(rec types.Record) (string, int, bool) {
	key, ok := rec.Key(i.nameKey)
	if !ok {
		return "", 0, false
	}
	rank, ok := rec.Rank()
	if !ok {
		return "", 0, false
	}
	return key, rank, true
}

// rankIndex maps key -> rank. The first occurrence of a key wins.
func (i *Identifier) rankIndex(records []types.Record) map[string]int {
	idx := make(map[string]int, len(records))
	for _, rec := range records {
		key, rank, ok := i.keyRank(rec)
		if !ok {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = rank
		}
	}
	return idx
}

func (i *Identifier) orderedTiers(records []types.Record) (map[int][]string, []int) {
	tiers := i.Identify(records)
	order := make([]int, 0, len(tiers))
	for rank := range tiers {
		order = append(order, rank)
	}
	sort.Ints(order)
	return tiers, order
}

// distinct returns the sorted set of ranks the given keys hold in idx.
// Keys absent from idx are ignored.
func distinct(keys []string, idx map[string]int) []int {
	seen := make(map[int]struct{})
	for _, k := range keys {
		if r, ok := idx[k]; ok {
			seen[r] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Ints(out)
	return out
}
