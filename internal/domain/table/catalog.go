package table

import (
	"sort"

	"github.com/okian/rankdelta/internal/domain/params"
)

// Format selects how a column's values are rendered.
type Format string

// Column formats.
const (
	FormatNumber  Format = "number"
	FormatDecimal Format = "decimal"
	FormatDelta   Format = "delta"
	FormatText    Format = "text"
)

// Column configures one source field.
type Column struct {
	Field       string
	DisplayName string
	Format      Format
	Decimals    int
}

// Definition describes one renderable table.
type Definition struct {
	// Name is the kebab-case placeholder name.
	Name string
	// Key is the identifier field used to match rows across periods.
	Key      string
	Columns  []Column
	Sortable []string
	// SupportsWSDB marks tables whose key cell may link out via wsdb:true.
	SupportsWSDB bool
}

// Catalog is the set of tables the engine knows how to render.
type Catalog struct {
	defs map[string]Definition
}

// NewCatalog builds a catalog. Later definitions replace earlier ones
// with the same name.
func NewCatalog(defs ...Definition) *Catalog {
	c := &Catalog{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		c.defs[params.TableName(d.Name)] = d
	}
	return c
}

// Lookup returns the definition for a table name (kebab or snake case).
func (c *Catalog) Lookup(name string) (Definition, bool) {
	d, ok := c.defs[params.TableName(name)]
	return d, ok
}

// Names returns every table name, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.defs))
	for n := range c.defs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Whitelist returns table name -> sortable columns for the validator.
func (c *Catalog) Whitelist() map[string][]string {
	out := make(map[string][]string, len(c.defs))
	for n, d := range c.defs {
		out[n] = d.Sortable
	}
	return out
}

var (
	colRank     = Column{Field: "rank", DisplayName: "rank", Format: FormatText}
	colShaves   = Column{Field: "shaves", DisplayName: "shaves", Format: FormatNumber}
	colUsers    = Column{Field: "unique_users", DisplayName: "unique users", Format: FormatNumber}
	colAvg      = Column{Field: "avg_shaves_per_user", DisplayName: "avg shaves per user", Format: FormatDecimal, Decimals: 2}
	colMedian   = Column{Field: "median_shaves_per_user", DisplayName: "median shaves per user", Format: FormatDecimal, Decimals: 1}
	usageFields = []string{"shaves", "unique_users", "avg_shaves_per_user", "median_shaves_per_user"}
)

func text(field, display string) Column {
	return Column{Field: field, DisplayName: display, Format: FormatText}
}

// usage builds the common rank/key/shaves/users layout.
func usage(name, key, display string) Definition {
	return Definition{
		Name:     name,
		Key:      key,
		Columns:  []Column{colRank, text(key, display), colShaves, colUsers, colAvg, colMedian},
		Sortable: usageFields,
	}
}

// DefaultCatalog returns the hardware, software and user tables of the
// monthly and annual reports.
func DefaultCatalog() *Catalog {
	soaps := usage("soaps", "name", "soap")
	soaps.SupportsWSDB = true
	soapMakers := usage("soap-makers", "brand", "brand")
	soapMakers.SupportsWSDB = true

	return NewCatalog(
		usage("razors", "name", "razor"),
		usage("razor-manufacturers", "brand", "manufacturer"),
		usage("razor-formats", "format", "format"),
		usage("blades", "name", "blade"),
		usage("blade-manufacturers", "brand", "manufacturer"),
		usage("brushes", "name", "brush"),
		usage("brush-handle-makers", "handle_maker", "handle maker"),
		usage("brush-knot-makers", "brand", "knot maker"),
		usage("brush-fibers", "fiber", "fiber"),
		usage("brush-knot-sizes", "knot_size_mm", "knot size (mm)"),
		usage("blackbird-plates", "plate", "plate"),
		usage("christopher-bradley-plates", "plate", "plate"),
		usage("game-changer-plates", "gap", "gap"),
		usage("super-speed-tips", "super_speed_tip", "tip"),
		usage("straight-widths", "width", "width"),
		usage("straight-grinds", "grind", "grind"),
		usage("straight-points", "point", "point"),
		soaps,
		soapMakers,
		Definition{
			Name: "brand-diversity",
			Key:  "brand",
			Columns: []Column{
				colRank,
				text("brand", "brand"),
				{Field: "unique_soaps", DisplayName: "unique soaps", Format: FormatNumber},
			},
			Sortable: []string{"unique_soaps"},
		},
		Definition{
			Name: "top-shavers",
			Key:  "user",
			Columns: []Column{
				colRank,
				text("user", "user"),
				colShaves,
				{Field: "missed_days", DisplayName: "missed days", Format: FormatNumber},
			},
			Sortable: []string{"shaves", "missed_days"},
		},
		Definition{
			Name: "highest-use-blades",
			Key:  "user",
			Columns: []Column{
				colRank,
				text("user", "user"),
				text("blade", "blade"),
				text("format", "format"),
				{Field: "uses", DisplayName: "uses", Format: FormatNumber},
			},
			Sortable: []string{"uses"},
		},
	)
}
