package table

import (
	"strings"
	"sync"

	"github.com/okian/rankdelta/internal/domain/params"
	"github.com/okian/rankdelta/internal/domain/types"
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

// markdown emits a header row, an alignment row and one row per record.
// Rank cells get tie markers computed over the final row set.
func (e *Engine) markdown(table string, cols []outputColumn, rows []types.Record, linkField string) string {
	f := newFormatter(e.acronyms)
	var ranks []string

	var b strings.Builder
	b.WriteString("|")
	for _, c := range cols {
		h := c.Header
		if !c.Raw {
			h = f.title(h)
		}
		b.WriteString(" " + cellEscaper.Replace(h) + " |")
	}
	b.WriteString("\n|")
	for _, c := range cols {
		if c.numeric() {
			b.WriteString(" ---: |")
		} else {
			b.WriteString(" --- |")
		}
	}

	for i, rec := range rows {
		b.WriteString("\n|")
		for _, c := range cols {
			var cell string
			if c.Field == types.FieldRank {
				if ranks == nil {
					ranks = TieRanks(rows)
				}
				cell = ranks[i]
			} else {
				v, ok := rec[c.Field]
				cell = f.cell(v, ok, c)
			}
			cell = cellEscaper.Replace(cell)
			if linkField != "" && c.Field == linkField && cell != "" {
				if key, ok := rec.Key(linkField); ok {
					if url, ok := e.links.Resolve(table, key); ok {
						cell = "[" + cell + "](" + url + ")"
					}
				}
			}
			b.WriteString(" " + cell + " |")
		}
	}
	return b.String()
}

// LinkCache is an in-memory LinkResolver keyed by table and key. Keys
// match case-insensitively.
type LinkCache struct {
	mu    sync.RWMutex
	links map[string]map[string]string
}

// NewLinkCache creates an empty cache.
func NewLinkCache() *LinkCache {
	return &LinkCache{links: make(map[string]map[string]string)}
}

// Put records the URL for one key of a table.
func (c *LinkCache) Put(table, key, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := params.TableName(table)
	if c.links[t] == nil {
		c.links[t] = make(map[string]string)
	}
	c.links[t][linkKey(key)] = url
}

// Resolve implements LinkResolver.
func (c *LinkCache) Resolve(table, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	url, ok := c.links[params.TableName(table)][linkKey(key)]
	return url, ok
}

// Len returns the number of cached links.
func (c *LinkCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, m := range c.links {
		n += len(m)
	}
	return n
}

func linkKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
