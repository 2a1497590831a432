package delta_test

import (
	"context"
	"testing"

	"github.com/okian/rankdelta/internal/domain/delta"
	"github.com/okian/rankdelta/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func recs(pairs ...any) []types.Record {
	out := make([]types.Record, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.Record{"name": pairs[i], "rank": pairs[i+1]})
	}
	return out
}

func byName(rows []types.Record) map[string]types.Record {
	out := make(map[string]types.Record, len(rows))
	for _, r := range rows {
		out[r["name"].(string)] = r
	}
	return out
}

func TestCalculateDeltas(t *testing.T) {
	ctx := context.Background()
	calc := delta.New()

	Convey("Given a tie-aware current and historical ranking", t, func() {
		current := recs("A", 1, "B", 2, "C", 2)
		historical := recs("A", 2, "B", 1, "C", 2)

		Convey("When calculating deltas", func() {
			got := byName(calc.CalculateDeltas(ctx, current, historical, "name", 20))

			Convey("Then improvement, decline and no change should be classified", func() {
				So(got["A"]["delta"], ShouldEqual, 1)
				So(got["A"]["delta_symbol"], ShouldEqual, "↑1")
				So(got["B"]["delta"], ShouldEqual, -1)
				So(got["B"]["delta_symbol"], ShouldEqual, "↓1")
				So(got["C"]["delta"], ShouldEqual, 0)
				So(got["C"]["delta_symbol"], ShouldEqual, "=")
				So(got["C"]["delta_text"], ShouldEqual, "=")
			})

			Convey("And the inputs should not be mutated", func() {
				_, has := current[0]["delta"]
				So(has, ShouldBeFalse)
			})
		})

		Convey("When the datasets are swapped", func() {
			forward := byName(calc.CalculateDeltas(ctx, current, historical, "name", 20))
			backward := byName(calc.CalculateDeltas(ctx, historical, current, "name", 20))

			Convey("Then every delta should be negated", func() {
				for k, r := range forward {
					So(backward[k]["delta"], ShouldEqual, -r["delta"].(int))
				}
			})
		})
	})

	Convey("Given an item absent from history", t, func() {
		got := calc.CalculateDeltas(ctx, recs("A", 1, "New", 2), recs("A", 1), "name", 20)

		Convey("Then it should get a nil delta and n/a", func() {
			So(len(got), ShouldEqual, 2)
			So(got[1]["delta"], ShouldBeNil)
			So(got[1]["delta_symbol"], ShouldEqual, "n/a")
			So(got[1]["delta_text"], ShouldEqual, "n/a")
		})
	})

	Convey("Given ranks with tie markers and decimals", t, func() {
		current := []types.Record{{"name": "A", "rank": "2="}, {"name": "B", "rank": 3.0}}
		historical := []types.Record{{"name": "A", "rank": "5.0"}, {"name": "B", "rank": "3="}}
		got := calc.CalculateDeltas(ctx, current, historical, "name", 20)

		Convey("Then they should parse to integers", func() {
			So(got[0]["delta"], ShouldEqual, 3)
			So(got[0]["delta_symbol"], ShouldEqual, "↑3")
			So(got[1]["delta_symbol"], ShouldEqual, "=")
		})
	})

	Convey("Given an unparseable historical rank", t, func() {
		got := calc.CalculateDeltas(ctx, recs("A", 1), recs("A", "first"), "name", 20)

		Convey("Then the row should degrade to n/a instead of failing", func() {
			So(got[0]["delta"], ShouldBeNil)
			So(got[0]["delta_symbol"], ShouldEqual, "n/a")
		})
	})

	Convey("Given empty history", t, func() {
		current := []types.Record{{"name": "A"}, {"name": "B", "rank": 2}}
		got := calc.CalculateDeltas(ctx, current, nil, "name", 20)

		Convey("Then every current row should be n/a", func() {
			So(len(got), ShouldEqual, 2)
			for _, r := range got {
				So(r["delta_symbol"], ShouldEqual, "n/a")
			}
		})
	})

	Convey("Given history with only malformed records", t, func() {
		got := calc.CalculateDeltas(ctx, recs("A", 1), []types.Record{{"name": "A"}, {"rank": 1}}, "name", 20)

		Convey("Then it should be treated as empty history", func() {
			So(got[0]["delta_symbol"], ShouldEqual, "n/a")
		})
	})

	Convey("Given current data without a rank on the first record", t, func() {
		got := calc.CalculateDeltas(ctx, []types.Record{{"name": "A"}, {"name": "B", "rank": 1}}, recs("A", 1), "name", 20)

		Convey("Then no deltas should be produced", func() {
			So(got, ShouldBeEmpty)
		})
	})

	Convey("Given more rows than max items", t, func() {
		current := recs("A", 1, "B", 2, "C", 3, "D", 4)
		got := calc.CalculateDeltas(ctx, current, current, "name", 2)

		Convey("Then only the first rows in input order should be kept", func() {
			So(len(got), ShouldEqual, 2)
			So(got[0]["name"], ShouldEqual, "A")
			So(got[1]["name"], ShouldEqual, "B")
		})
	})

	Convey("Given a malformed current row among valid ones", t, func() {
		current := []types.Record{{"name": "A", "rank": 1}, {"rank": 2}, {"name": "C", "rank": 3}}
		got := calc.CalculateDeltas(ctx, current, recs("A", 1, "C", 1), "name", 20)

		Convey("Then it should be skipped", func() {
			So(len(got), ShouldEqual, 2)
			So(got[1]["delta_symbol"], ShouldEqual, "↓2")
		})
	})

	Convey("Given rows keyed by brand", t, func() {
		current := []types.Record{{"brand": "Feather", "rank": 1}}
		historical := []types.Record{{"brand": "Feather", "rank": 4}}
		got := calc.CalculateDeltas(ctx, current, historical, "brand", 20)

		Convey("Then the brand field should be used for matching", func() {
			So(got[0]["delta_symbol"], ShouldEqual, "↑3")
		})
	})
}

func TestCalculateTierBasedDeltas(t *testing.T) {
	ctx := context.Background()
	calc := delta.New()

	Convey("Given a split of a historical tie", t, func() {
		current := recs("A", 1, "B", 2, "C", 3)
		historical := recs("A", 2, "B", 2, "C", 2, "D", 1)

		Convey("When calculating tier-based deltas", func() {
			got := calc.CalculateTierBasedDeltas(ctx, current, historical, "name", 20)

			Convey("Then tier fields should be attached", func() {
				So(got[0]["tier_movement"], ShouldEqual, 1)
				So(got[0]["tier_change"], ShouldResemble, types.RankChange{Historical: 2, Current: 1})
				So(got[2]["tier_movement"], ShouldEqual, -1)
				for _, r := range got {
					So(r["tier_structure_changed"], ShouldEqual, true)
					So(r["tier_restructured"], ShouldEqual, true)
				}
			})
		})
	})

	Convey("Given an item without history", t, func() {
		got := calc.CalculateTierBasedDeltas(ctx, recs("X", 1), recs("A", 1), "name", 20)

		Convey("Then tier fields should be nil", func() {
			So(got[0]["tier_change"], ShouldBeNil)
			So(got[0]["tier_movement"], ShouldBeNil)
			So(got[0]["tier_restructured"], ShouldEqual, false)
		})
	})
}

func TestCalculateCategoryDeltas(t *testing.T) {
	ctx := context.Background()
	calc := delta.New()

	Convey("Given decoded category maps", t, func() {
		current := map[string]any{
			"razors": []any{
				map[string]any{"name": "Karve", "rank": 1},
				map[string]any{"name": "Blackland", "rank": 2},
			},
			"blades": []any{
				map[string]any{"name": "Feather", "rank": 1},
			},
		}
		historical := map[string]any{
			"razors": []any{
				map[string]any{"name": "Karve", "rank": 2},
				map[string]any{"name": "Blackland", "rank": 1},
			},
			"blades": "corrupted",
		}

		Convey("When calculating per category", func() {
			got := calc.CalculateCategoryDeltas(ctx, current, historical, []string{"razors", "blades", "brushes"}, 20)

			Convey("Then valid categories should get deltas", func() {
				So(got["razors"][0]["delta_symbol"], ShouldEqual, "↑1")
			})

			Convey("And a broken category should fall back without delta fields", func() {
				So(len(got["blades"]), ShouldEqual, 1)
				_, has := got["blades"][0]["delta"]
				So(has, ShouldBeFalse)
			})

			Convey("And a category missing everywhere should be empty", func() {
				So(got["brushes"], ShouldBeEmpty)
			})
		})
	})
}

func TestSymbolAndFormatDeltaColumn(t *testing.T) {
	Convey("Given deltas of each sign", t, func() {
		up, down, zero := 3, -2, 0

		Convey("Then symbols should follow the fixed vocabulary", func() {
			So(delta.Symbol(&up), ShouldEqual, "↑3")
			So(delta.Symbol(&down), ShouldEqual, "↓2")
			So(delta.Symbol(&zero), ShouldEqual, "=")
			So(delta.Symbol(nil), ShouldEqual, "n/a")
		})
	})

	Convey("Given a mixed delta column", t, func() {
		items := []any{
			types.Record{"delta_text": "↑4"},
			map[string]any{"delta_text": "="},
			map[string]any{"delta_text": "-3"},
			map[string]any{"delta_text": "sideways"},
			map[string]any{},
			"not a row",
			map[string]any{"delta_text": 2},
		}

		Convey("When formatting", func() {
			got := delta.FormatDeltaColumn(items, "delta_text")

			Convey("Then everything should land in the vocabulary", func() {
				So(got, ShouldResemble, []string{"↑4", "=", "↓3", "n/a", "n/a", "n/a", "↑2"})
			})
		})
	})
}

func TestCategoryKey(t *testing.T) {
	ctx := context.Background()

	Convey("Given a calculator keyed per category", t, func() {
		c := delta.New(delta.WithCategoryKey(func(cat string) string {
			if cat == "soap_makers" {
				return "brand"
			}
			return ""
		}))
		current := map[string]any{
			"soap_makers": []types.Record{{"brand": "Stirling", "rank": 1}, {"brand": "B&M", "rank": 2}},
		}
		historical := map[string]any{
			"soap_makers": []types.Record{{"brand": "B&M", "rank": 1}, {"brand": "Stirling", "rank": 2}},
		}

		Convey("When category deltas are computed", func() {
			out := c.CalculateCategoryDeltas(ctx, current, historical, []string{"soap_makers"}, 0)

			Convey("Then rows should match on the category's key", func() {
				So(len(out["soap_makers"]), ShouldEqual, 2)
				So(out["soap_makers"][0][types.FieldDeltaSymbol], ShouldEqual, "↑1")
				So(out["soap_makers"][1][types.FieldDeltaSymbol], ShouldEqual, "↓1")
			})
		})

		Convey("Then unknown categories should fall back to name", func() {
			So(c.CategoryKey("razors"), ShouldEqual, types.FieldName)
			So(c.CategoryKey("soap_makers"), ShouldEqual, "brand")
		})
	})
}
