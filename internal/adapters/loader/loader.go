// Package loader reads period snapshots from YAML or JSON files. A file's
// name without extension is its period key; its document has an optional
// meta mapping and a data mapping of category to ranked rows:
//
//	meta:
//	  total_shaves: 1234
//	data:
//	  razors:
//	    - {rank: 1, name: Karve CB, shaves: 120}
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/rankdelta/internal/domain/types"
	"github.com/okian/rankdelta/pkg/logger"
)

var extensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLogger sets the loader logger.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// Loader decodes snapshot files.
type Loader struct {
	logger logger.Logger
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{logger: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads one snapshot file.
func (l *Loader) LoadFile(ctx context.Context, path string) (types.Snapshot, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !extensions[ext] {
		return types.Snapshot{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: %w", ErrReadSnapshot, err)
	}
	period := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	snap, err := Decode(period, raw)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	l.logger.Debug(ctx, "loaded snapshot",
		logger.String("period", period),
		logger.Int("categories", len(snap.Data)))
	return snap, nil
}

// Decode parses a snapshot document. JSON documents are valid YAML and go
// through the same decoder.
func Decode(period string, raw []byte) (types.Snapshot, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: %w", ErrReadSnapshot, err)
	}
	top, err := types.AsMap(doc, "snapshot document")
	if err != nil {
		return types.Snapshot{}, err
	}
	rawData, ok := top["data"]
	if !ok || rawData == nil {
		return types.Snapshot{}, ErrMissingData
	}
	data, err := types.AsCategoryData(rawData)
	if err != nil {
		return types.Snapshot{}, err
	}
	snap := types.Snapshot{Period: period, Data: data, Meta: map[string]any{}}
	if rawMeta, ok := top["meta"]; ok && rawMeta != nil {
		meta, err := types.AsMap(rawMeta, "meta")
		if err != nil {
			return types.Snapshot{}, err
		}
		snap.Meta = meta
	}
	return snap, nil
}

// LoadDir reads every snapshot file directly inside dir, in name order.
// Files that fail to load are skipped and reported together in the
// returned error alongside the snapshots that did load.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]types.Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadSnapshot, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]types.Snapshot, 0, len(names))
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		snap, err := l.LoadFile(ctx, filepath.Join(dir, name))
		if err != nil {
			l.logger.Warn(ctx, "skipping snapshot", logger.String("file", name), logger.Error(err))
			errs = append(errs, err)
			continue
		}
		out = append(out, snap)
	}
	return out, errors.Join(errs...)
}
