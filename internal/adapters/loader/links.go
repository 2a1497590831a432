package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/rankdelta/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Links maps table name to key to URL.
type Links map[string]map[string]string

// LoadLinks reads a YAML or JSON links file shaped as
//
//	soap-makers:
//	  Stirling Soap Co.: https://example.org/stirling
func (l *Loader) LoadLinks(ctx context.Context, path string) (Links, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadSnapshot, path, err)
	}
	var links Links
	if err := yaml.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadSnapshot, path, err)
	}
	n := 0
	for _, m := range links {
		n += len(m)
	}
	l.logger.Debug(ctx, "loaded links", logger.String("path", path), logger.Int("links", n))
	return links, nil
}
