package params

import (
	"math"
	"strings"
)

// PolicyVersion identifies the default heuristics below. Bump it when the
// defaults change so rendered reports can be traced to a policy.
const PolicyVersion = "2024.1"

// DefaultOverflowRatio lets a tie at the row cutoff grow the table to
// max_rows + max_rows/2 rows before the cutoff is pulled back.
const DefaultOverflowRatio = 1.5

// DefaultLowerIsBetter lists column-name fragments whose values improve as
// they shrink.
var DefaultLowerIsBetter = []string{"missed", "days", "errors", "failures", "cost", "time"}

// Policy is the configurable table heuristic set.
type Policy struct {
	Version       string
	LowerIsBetter []string
	OverflowRatio float64
}

// DefaultPolicy returns the stock heuristics.
func DefaultPolicy() Policy {
	lib := make([]string, len(DefaultLowerIsBetter))
	copy(lib, DefaultLowerIsBetter)
	return Policy{
		Version:       PolicyVersion,
		LowerIsBetter: lib,
		OverflowRatio: DefaultOverflowRatio,
	}
}

// LowerIsBetterColumn reports whether smaller values of column are better.
func (p Policy) LowerIsBetterColumn(column string) bool {
	col := strings.ToLower(column)
	for _, kw := range p.LowerIsBetter {
		if kw != "" && strings.Contains(col, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Allowance returns how many rows a tie at the cutoff may fill.
func (p Policy) Allowance(maxRows int) int {
	ratio := p.OverflowRatio
	if ratio < 1 {
		ratio = DefaultOverflowRatio
	}
	return int(math.Floor(float64(maxRows) * ratio))
}
