package annual

// Column layout defaults for multi-year delta columns.
const (
	deltaColumnAlign  = "center"
	deltaColumnFormat = "delta"
	deltaColumnWidth  = 12
)

// ColumnDescriptor describes how a report renders one delta column.
type ColumnDescriptor struct {
	Title  string `json:"title" yaml:"title"`
	Align  string `json:"align" yaml:"align"`
	Format string `json:"format" yaml:"format"`
	Width  int    `json:"width" yaml:"width"`
}

// DeltaColumnConfig returns the rank, shaves and unique-user delta columns
// for each comparison year, keyed by column name.
func DeltaColumnConfig(years []string) map[string]ColumnDescriptor {
	out := make(map[string]ColumnDescriptor, len(years)*3)
	for _, y := range years {
		out["delta_rank_"+y] = descriptor("Δ Rank vs " + y)
		out["delta_shaves_"+y] = descriptor("Δ Shaves vs " + y)
		out["delta_unique_users_"+y] = descriptor("Δ Users vs " + y)
	}
	return out
}

func descriptor(title string) ColumnDescriptor {
	return ColumnDescriptor{
		Title:  title,
		Align:  deltaColumnAlign,
		Format: deltaColumnFormat,
		Width:  deltaColumnWidth,
	}
}
