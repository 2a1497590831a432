// Package service wires the snapshot store, the delta calculators and the
// table engine into the operations the HTTP API and CLI expose.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/rankdelta/internal/adapters/loader"
	"github.com/okian/rankdelta/internal/adapters/repository"
	"github.com/okian/rankdelta/internal/domain/annual"
	"github.com/okian/rankdelta/internal/domain/delta"
	"github.com/okian/rankdelta/internal/domain/params"
	"github.com/okian/rankdelta/internal/domain/table"
	"github.com/okian/rankdelta/internal/domain/tier"
	"github.com/okian/rankdelta/internal/domain/types"
	"github.com/okian/rankdelta/pkg/logger"
	"github.com/okian/rankdelta/pkg/metrics"
)

// Service implements the API dependencies for the report renderer.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  repository.Store
	loader *loader.Loader
	engine *table.Engine
	deltas *delta.Calculator
	annual *annual.Calculator

	// Configuration
	dataDir       string
	currentPeriod string
	maxItems      int
	policy        params.Policy
	acronyms      []string
	links         table.LinkResolver
	linksFile     string
	linkCache     *table.LinkCache
	renderTimeout time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore replaces the in-memory snapshot store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDataDir sets the directory loaded on Start. Empty skips loading.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		s.dataDir = dir
	}
}

// WithCurrentPeriod sets the period used when a request names none.
func WithCurrentPeriod(period string) Option {
	return func(s *Service) {
		s.currentPeriod = period
	}
}

// WithMaxItems bounds how many rows per category get a delta.
func WithMaxItems(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

// WithPolicy sets the table limiting policy.
func WithPolicy(p params.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithAcronyms adds header acronyms.
func WithAcronyms(words ...string) Option {
	return func(s *Service) {
		s.acronyms = append(s.acronyms, words...)
	}
}

// WithLinkResolver enables wsdb:true links.
func WithLinkResolver(r table.LinkResolver) Option {
	return func(s *Service) {
		s.links = r
	}
}

// WithLinksFile loads wsdb:true links from path on Start. It is ignored
// when WithLinkResolver is also given.
func WithLinksFile(path string) Option {
	return func(s *Service) {
		s.linksFile = path
	}
}

// WithRenderTimeout bounds each render call. Zero disables the bound.
func WithRenderTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.renderTimeout = d
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxItems:      delta.DefaultMaxItems,
		policy:        params.DefaultPolicy(),
		renderTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithLogger(s.logger.Named("store")))
	}
	s.loader = loader.New(loader.WithLogger(s.logger.Named("loader")))
	s.deltas = delta.New(
		delta.WithLogger(s.logger.Named("delta")),
		delta.WithCategoryKey(s.categoryKey),
	)
	s.annual = annual.New(annual.WithLogger(s.logger.Named("annual")), annual.WithDeltaCalculator(s.deltas))

	engineOpts := []table.Option{
		table.WithLogger(s.logger.Named("table")),
		table.WithPolicy(s.policy),
		table.WithAcronyms(s.acronyms...),
		table.WithDeltaCalculator(s.deltas),
	}
	if s.links == nil && s.linksFile != "" {
		s.linkCache = table.NewLinkCache()
		s.links = s.linkCache
	}
	if s.links != nil {
		engineOpts = append(engineOpts, table.WithLinkResolver(s.links))
	}
	s.engine = table.New(engineOpts...)
	return s
}

// Start loads every snapshot in the data directory. Files that fail to
// load are logged and skipped; an unreadable directory fails Start.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting report service...", logger.String("dataDir", s.dataDir))

	if s.dataDir != "" {
		snaps, err := s.loader.LoadDir(ctx, s.dataDir)
		switch {
		case err == nil:
		case isJoined(err):
			for range err.(interface{ Unwrap() []error }).Unwrap() {
				metrics.RecordSnapshotLoadError()
			}
			s.logger.Warn(ctx, "some snapshots failed to load", logger.Error(err))
		default:
			return fmt.Errorf("load %s: %w", s.dataDir, err)
		}
		for _, snap := range snaps {
			if err := s.store.Put(ctx, snap); err != nil {
				return err
			}
		}
	}
	if s.linkCache != nil {
		links, err := s.loader.LoadLinks(ctx, s.linksFile)
		if err != nil {
			return fmt.Errorf("load links: %w", err)
		}
		for t, m := range links {
			for key, url := range m {
				s.linkCache.Put(t, key, url)
			}
		}
	}
	metrics.UpdateSnapshotCount(s.store.Count(ctx))

	s.started = true
	latest, _ := s.store.Latest(ctx)
	s.logger.Info(ctx, "report service started",
		logger.Int("snapshots", s.store.Count(ctx)),
		logger.String("latest", latest),
	)
	return nil
}

// Stop marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "report service stopped")
}

// AddSnapshot stores one snapshot.
func (s *Service) AddSnapshot(ctx context.Context, snap types.Snapshot) error {
	if err := s.store.Put(ctx, snap); err != nil {
		return err
	}
	metrics.UpdateSnapshotCount(s.store.Count(ctx))
	return nil
}

// Periods returns the stored period keys in ascending order.
func (s *Service) Periods(ctx context.Context) []string {
	return s.store.Periods(ctx)
}

// Tables returns the renderable table names.
func (s *Service) Tables() []string {
	return s.engine.Catalog().Names()
}

// ResolvePeriod picks the period a request targets: the one given, else
// the configured current period, else the latest stored one.
func (s *Service) ResolvePeriod(ctx context.Context, period string) (string, error) {
	if period != "" {
		return period, nil
	}
	if s.currentPeriod != "" {
		return s.currentPeriod, nil
	}
	if latest, ok := s.store.Latest(ctx); ok {
		return latest, nil
	}
	return "", ErrNoData
}

// RenderTable renders a single placeholder against a period.
func (s *Service) RenderTable(ctx context.Context, period, placeholder string) (string, error) {
	req, err := s.request(ctx, period)
	if err != nil {
		return "", err
	}
	req.Placeholder = placeholder

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	out, err := s.engine.Render(ctx, req)
	metrics.RecordRenderLatency(float64(time.Since(start).Microseconds()) / 1000)
	name := s.metricTable(placeholder)
	if err != nil {
		metrics.RecordRenderError(name, ErrorKind(err))
		return "", err
	}
	metrics.RecordTableRendered(name)
	return out, nil
}

// RenderTemplate renders every placeholder in text against a period.
func (s *Service) RenderTemplate(ctx context.Context, period, text string) (string, error) {
	req, err := s.request(ctx, period)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	out, err := s.engine.RenderTemplate(ctx, text, req)
	metrics.RecordRenderLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordRenderError("template", ErrorKind(err))
		return "", err
	}
	metrics.RecordTemplateRendered()
	for _, m := range params.FindPlaceholders(text) {
		metrics.RecordTableRendered(s.metricTable(m.Text))
	}
	return out, nil
}

// CategoryDeltas compares a period's categories against another period,
// by default the first comparison window (previous month or year). A
// comparison period that is not stored yields n/a deltas.
func (s *Service) CategoryDeltas(ctx context.Context, period, against string, categories []string) (map[string][]types.Record, error) {
	cur, prev, err := s.pair(ctx, period, against)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		categories = sortedCategories(cur.Data)
	}
	out := s.deltas.CalculateCategoryDeltas(ctx, categoryMap(cur.Data), categoryMap(prev.Data), categories, s.maxItems)
	recordFallbacks(out)
	return out, nil
}

// TierDeltas is CategoryDeltas with tier_change, tier_movement and the
// tier structure flags added to every row.
func (s *Service) TierDeltas(ctx context.Context, period, against string, categories []string) (map[string][]types.Record, error) {
	cur, prev, err := s.pair(ctx, period, against)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		categories = sortedCategories(cur.Data)
	}
	out := make(map[string][]types.Record, len(categories))
	for _, cat := range categories {
		rows, ok := cur.Data[cat]
		if !ok {
			continue
		}
		out[cat] = s.deltas.CalculateTierBasedDeltas(ctx, rows, prev.Data[cat], s.categoryKey(cat), s.maxItems)
	}
	return out, nil
}

// AnnualReport bundles multi-year deltas with their column layout.
type AnnualReport struct {
	Year       string                             `json:"year"`
	Compared   []string                           `json:"compared"`
	Columns    map[string]annual.ColumnDescriptor `json:"columns"`
	Categories map[string][]types.Record          `json:"categories"`
}

// AnnualDeltas compares a year against one and five years earlier. Years
// that are not stored are skipped.
func (s *Service) AnnualDeltas(ctx context.Context, year string, categories []string) (map[string][]types.Record, error) {
	out, _, err := s.annualDeltas(ctx, year, categories)
	return out, err
}

// AnnualReport is AnnualDeltas plus the compared years and the column
// descriptors a report uses for them.
func (s *Service) AnnualReport(ctx context.Context, year string, categories []string) (AnnualReport, error) {
	out, compared, err := s.annualDeltas(ctx, year, categories)
	if err != nil {
		return AnnualReport{}, err
	}
	return AnnualReport{
		Year:       year,
		Compared:   compared,
		Columns:    annual.DeltaColumnConfig(compared),
		Categories: out,
	}, nil
}

func (s *Service) annualDeltas(ctx context.Context, year string, categories []string) (map[string][]types.Record, []string, error) {
	cur, err := s.store.Get(ctx, year)
	if err != nil {
		return nil, nil, err
	}
	windows, err := table.ComparisonPeriods(year)
	if err != nil {
		return nil, nil, err
	}
	comparisons := make(map[string]any, len(windows))
	compared := make([]string, 0, len(windows))
	for p, snap := range s.store.History(ctx, windows...) {
		comparisons[p] = document(snap)
		compared = append(compared, p)
	}
	sort.Strings(compared)
	if len(comparisons) == 0 {
		s.logger.Debug(ctx, "no comparison years stored", logger.String("year", year))
	}
	out, err := s.annual.CalculateMultiYearDeltas(ctx, document(cur), comparisons, categories, s.maxItems)
	if err != nil {
		return nil, nil, err
	}
	return out, compared, nil
}

// TierAnalysis runs tier analysis per category of a period against
// another, by default the first comparison window.
func (s *Service) TierAnalysis(ctx context.Context, period, against string, categories []string) (map[string]tier.Analysis, error) {
	cur, prev, err := s.pair(ctx, period, against)
	if err != nil {
		return nil, err
	}
	return s.annual.AnnualTierAnalysis(document(cur), document(prev), categories), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.store.Count(ctx)
	stats := map[string]interface{}{
		"started":       s.started,
		"snapshots":     count,
		"periods":       s.store.Periods(ctx),
		"tables":        len(s.Tables()),
		"maxItems":      s.maxItems,
		"policyVersion": s.policy.Version,
	}
	if latest, ok := s.store.Latest(ctx); ok {
		stats["latest"] = latest
	}
	metrics.UpdateSnapshotCount(count)
	return stats
}

// request assembles the current data and comparison history for a period.
func (s *Service) request(ctx context.Context, period string) (table.Request, error) {
	period, err := s.ResolvePeriod(ctx, period)
	if err != nil {
		return table.Request{}, err
	}
	snap, err := s.store.Get(ctx, period)
	if err != nil {
		return table.Request{}, err
	}
	req := table.Request{Data: snap.Data, CurrentPeriod: period, History: types.History{}}
	if windows, err := table.ComparisonPeriods(period); err == nil {
		req.History = s.store.History(ctx, windows...)
	}
	return req, nil
}

func (s *Service) pair(ctx context.Context, period, against string) (types.Snapshot, types.Snapshot, error) {
	period, err := s.ResolvePeriod(ctx, period)
	if err != nil {
		return types.Snapshot{}, types.Snapshot{}, err
	}
	cur, err := s.store.Get(ctx, period)
	if err != nil {
		return types.Snapshot{}, types.Snapshot{}, err
	}
	if against == "" {
		windows, err := table.ComparisonPeriods(period)
		if err != nil {
			return types.Snapshot{}, types.Snapshot{}, err
		}
		against = windows[0]
	}
	prev, err := s.store.Get(ctx, against)
	if errors.Is(err, repository.ErrNotFound) {
		return cur, types.Snapshot{Period: against, Data: types.CategoryData{}}, nil
	}
	if err != nil {
		return types.Snapshot{}, types.Snapshot{}, err
	}
	return cur, prev, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.renderTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.renderTimeout)
}

// categoryKey maps a data category to its catalog key field.
func (s *Service) categoryKey(category string) string {
	if def, ok := s.engine.Catalog().Lookup(category); ok {
		return def.Key
	}
	return types.FieldName
}

// metricTable bounds the table label to catalog names.
func (s *Service) metricTable(placeholder string) string {
	ph, err := params.ParsePlaceholder(placeholder)
	if err != nil {
		return "invalid"
	}
	if _, ok := s.engine.Catalog().Lookup(ph.Name); !ok {
		return "unknown"
	}
	return params.TableName(ph.Name)
}

// ErrorKind classifies a render error for metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, types.ErrInvalidPlaceholder):
		return "invalid_placeholder"
	case errors.Is(err, types.ErrUnknownTable):
		return "unknown_table"
	case errors.Is(err, types.ErrUnknownParameter), errors.Is(err, types.ErrInvalidParameters):
		return "invalid_parameters"
	case errors.Is(err, types.ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, types.ErrNoColumns):
		return "no_columns"
	case errors.Is(err, types.ErrInvalidPeriod):
		return "invalid_period"
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, ErrNoData):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}

func document(snap types.Snapshot) map[string]any {
	return map[string]any{"data": categoryMap(snap.Data)}
}

func categoryMap(data types.CategoryData) map[string]any {
	out := make(map[string]any, len(data))
	for k, rows := range data {
		out[k] = rows
	}
	return out
}

func sortedCategories(data types.CategoryData) []string {
	out := make([]string, 0, len(data))
	for k := range data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// recordFallbacks counts categories returned without delta fields.
func recordFallbacks(out map[string][]types.Record) {
	for cat, rows := range out {
		if len(rows) == 0 {
			continue
		}
		if _, ok := rows[0][types.FieldDeltaSymbol]; !ok {
			metrics.RecordDeltaFallback(cat)
		}
	}
}

// isJoined reports whether err carries per-file failures rather than a
// single directory read failure.
func isJoined(err error) bool {
	_, ok := err.(interface{ Unwrap() []error })
	return ok
}
