package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rankdelta/internal/domain/types"
	"github.com/okian/rankdelta/pkg/logger"
)

// periodIndex is an immutable view of the stored period keys in period
// order (see periodLess).
// Readers load it without taking the store lock.
type periodIndex struct {
	periods []string
}

// MemoryStore is an in-memory Store. Snapshots are treated as read-only
// once stored; callers that need to modify rows must clone them.
type MemoryStore struct {
	logger logger.Logger

	mu        sync.RWMutex
	snapshots map[string]types.Snapshot

	index atomic.Pointer[periodIndex]
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		logger:    logger.Nop(),
		snapshots: make(map[string]types.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.index.Store(&periodIndex{})
	return s
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, snap types.Snapshot) error {
	period := strings.TrimSpace(snap.Period)
	if period == "" {
		return fmt.Errorf("%w: empty period key", ErrInvalidPeriod)
	}
	snap.Period = period
	if snap.Data == nil {
		snap.Data = types.CategoryData{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.snapshots[period]; exists {
		s.logger.Debug(ctx, "replacing snapshot", logger.String("period", period))
	}
	s.snapshots[period] = snap
	s.publishIndexLocked()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, period string) (types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[period]
	if !ok {
		return types.Snapshot{}, fmt.Errorf("%w: %q", ErrNotFound, period)
	}
	return snap, nil
}

// Periods implements Store.
func (s *MemoryStore) Periods(_ context.Context) []string {
	idx := s.index.Load()
	out := make([]string, len(idx.periods))
	copy(out, idx.periods)
	return out
}

// Latest implements Store.
func (s *MemoryStore) Latest(_ context.Context) (string, bool) {
	idx := s.index.Load()
	if len(idx.periods) == 0 {
		return "", false
	}
	return idx.periods[len(idx.periods)-1], true
}

// History implements Store.
func (s *MemoryStore) History(_ context.Context, periods ...string) types.History {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(periods) == 0 {
		out := make(types.History, len(s.snapshots))
		for p, snap := range s.snapshots {
			out[p] = snap
		}
		return out
	}
	out := make(types.History, len(periods))
	for _, p := range periods {
		if snap, ok := s.snapshots[p]; ok {
			out[p] = snap
		}
	}
	return out
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	return len(s.index.Load().periods)
}

// publishIndexLocked rebuilds the period index. Caller holds s.mu.
func (s *MemoryStore) publishIndexLocked() {
	periods := make([]string, 0, len(s.snapshots))
	for p := range s.snapshots {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periodLess(periods[i], periods[j]) })
	s.index.Store(&periodIndex{periods: periods})
}

// periodLess orders keys by (year, month). A YYYY key sorts after every
// YYYY-MM key of the same year, since the annual snapshot closes it. Keys in
// neither form sort first, in string order, so Latest prefers real periods.
func periodLess(a, b string) bool {
	ya, ma, oka := periodOrder(a)
	yb, mb, okb := periodOrder(b)
	switch {
	case oka && okb:
		if ya != yb {
			return ya < yb
		}
		if ma != mb {
			return ma < mb
		}
		return a < b
	case oka != okb:
		return okb
	default:
		return a < b
	}
}

func periodOrder(period string) (year, month int, ok bool) {
	if t, err := time.Parse("2006-01", period); err == nil {
		return t.Year(), int(t.Month()), true
	}
	if t, err := time.Parse("2006", period); err == nil {
		return t.Year(), 13, true
	}
	return 0, 0, false
}
