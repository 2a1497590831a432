package table_test

import (
	"testing"

	"github.com/okian/rankdelta/internal/domain/table"
	"github.com/okian/rankdelta/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func rows(ranks ...any) []types.Record {
	out := make([]types.Record, len(ranks))
	for i, r := range ranks {
		out[i] = types.Record{"rank": r}
	}
	return out
}

func TestTieRanks(t *testing.T) {
	Convey("Given ranks with a tie in the middle", t, func() {
		Convey("Then tied ranks should carry a marker", func() {
			So(table.TieRanks(rows(1, 2, 2, 3)), ShouldResemble, []string{"1", "2=", "2=", "3"})
		})
	})

	Convey("Given an all-way tie", t, func() {
		Convey("Then every rank should be marked", func() {
			So(table.TieRanks(rows(1, 1, 1)), ShouldResemble, []string{"1=", "1=", "1="})
		})
	})

	Convey("Given ranks already written with markers", t, func() {
		Convey("Then markers should be recomputed over the rows given", func() {
			So(table.TieRanks(rows("2=", 3)), ShouldResemble, []string{"2", "3"})
		})
	})

	Convey("Given an unparseable rank", t, func() {
		Convey("Then its raw value should be kept", func() {
			So(table.TieRanks(rows("unranked")), ShouldResemble, []string{"unranked"})
		})
	})
}

func TestTitleCase(t *testing.T) {
	Convey("Given header text", t, func() {
		Convey("Then plain words should be title-cased", func() {
			So(table.TitleCase("avg shaves per user"), ShouldEqual, "Avg Shaves Per User")
			So(table.TitleCase("unique_users"), ShouldEqual, "Unique Users")
		})

		Convey("Then acronyms should keep their spelling", func() {
			So(table.TitleCase("knot size (mm)"), ShouldEqual, "Knot Size (mm)")
			So(table.TitleCase("de razors"), ShouldEqual, "DE Razors")
			So(table.TitleCase("gem blades"), ShouldEqual, "GEM Blades")
		})

		Convey("Then extra acronyms should be honoured", func() {
			So(table.TitleCase("rfc count", "RFC"), ShouldEqual, "RFC Count")
		})
	})
}

func TestCatalog(t *testing.T) {
	Convey("Given the default catalog", t, func() {
		c := table.DefaultCatalog()

		Convey("Then tables should resolve by kebab or snake name", func() {
			d, ok := c.Lookup("razor_manufacturers")
			So(ok, ShouldBeTrue)
			So(d.Key, ShouldEqual, "brand")
		})

		Convey("Then the whitelist should expose sortable columns", func() {
			wl := c.Whitelist()
			So(wl["razors"], ShouldContain, "shaves")
			So(wl["top-shavers"], ShouldContain, "missed_days")
		})

		Convey("Then names should be sorted", func() {
			names := c.Names()
			So(names[0], ShouldEqual, "blackbird-plates")
			So(len(names), ShouldEqual, 22)
		})
	})
}
