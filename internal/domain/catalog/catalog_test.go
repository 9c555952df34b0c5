package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultCatalog(t *testing.T) {
	Convey("Given the default catalog", t, func() {
		cat := Default()

		Convey("Then every metric has all five tiers", func() {
			So(cat.Len(), ShouldEqual, len(Metrics)*len(Tiers))
			for _, m := range Metrics {
				So(len(cat.ForMetric(m)), ShouldEqual, len(Tiers))
			}
		})

		Convey("Then metric and tier pairs are unique", func() {
			seen := make(map[Key]bool)
			for _, c := range cat.All() {
				So(seen[c.Key()], ShouldBeFalse)
				seen[c.Key()] = true
			}
		})

		Convey("Then entries are grouped by metric with ascending tiers and thresholds", func() {
			all := cat.All()
			groupStart := make(map[MetricType]int)
			for i, c := range all {
				if _, ok := groupStart[c.Metric]; !ok {
					groupStart[c.Metric] = i
					continue
				}
				prev := all[i-1]
				So(prev.Metric, ShouldEqual, c.Metric)
				So(prev.Tier, ShouldBeLessThan, c.Tier)
				So(prev.RequiredValue, ShouldBeLessThanOrEqualTo, c.RequiredValue)
			}
		})

		Convey("Then books read uses 5/25/50/100/250", func() {
			var values []int64
			for _, c := range cat.ForMetric(BooksRead) {
				values = append(values, c.RequiredValue)
			}
			So(values, ShouldResemble, []int64{5, 25, 50, 100, 250})
		})

		Convey("Then All returns a copy", func() {
			all := cat.All()
			all[0].RequiredValue = 9999
			So(cat.All()[0].RequiredValue, ShouldEqual, 5)
		})
	})
}

func TestCatalogLookups(t *testing.T) {
	Convey("Given a small custom catalog", t, func() {
		cat := New(
			Criterion{Metric: BooksRead, Tier: Bronze, RequiredValue: 1},
			Criterion{Metric: BooksRead, Tier: Gold, RequiredValue: 10},
			Criterion{Metric: PagesRead, Tier: Bronze, RequiredValue: 100},
		)

		Convey("When asking for the next tier", func() {
			bronze, _ := cat.Lookup(Key{Metric: BooksRead, Tier: Bronze})
			next, ok := cat.Next(bronze)

			Convey("Then the next declared higher tier is returned", func() {
				So(ok, ShouldBeTrue)
				So(next.Tier, ShouldEqual, Gold)
			})
		})

		Convey("When the criterion is the top tier", func() {
			gold, _ := cat.Lookup(Key{Metric: BooksRead, Tier: Gold})
			_, ok := cat.Next(gold)

			Convey("Then there is no next tier", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When looking up a missing key", func() {
			_, ok := cat.Lookup(Key{Metric: ReadingStreak, Tier: Bronze})

			Convey("Then nothing is found", func() {
				So(ok, ShouldBeFalse)
				So(cat.ForMetric(ReadingStreak), ShouldBeEmpty)
			})
		})
	})
}

func TestTierAndKeyParsing(t *testing.T) {
	Convey("Given tier and key text forms", t, func() {
		Convey("Then tiers are ordered and named", func() {
			So(Bronze, ShouldBeLessThan, Silver)
			So(Platinum, ShouldBeLessThan, Diamond)
			So(Gold.String(), ShouldEqual, "gold")
			So(Gold.Color(), ShouldEqual, "#FFD700")
			So(Tier(0).Valid(), ShouldBeFalse)
		})

		Convey("Then tiers parse case-insensitively", func() {
			tier, err := ParseTier(" Platinum ")
			So(err, ShouldBeNil)
			So(tier, ShouldEqual, Platinum)

			_, err = ParseTier("wood")
			So(errors.Is(err, ErrUnknownTier), ShouldBeTrue)
		})

		Convey("Then keys round-trip through text", func() {
			key, err := ParseKey("reading_streak:silver")
			So(err, ShouldBeNil)
			So(key, ShouldResemble, Key{Metric: ReadingStreak, Tier: Silver})
			So(key.String(), ShouldEqual, "reading_streak:silver")

			_, err = ParseKey("reading_streak")
			So(errors.Is(err, ErrUnknownMetric), ShouldBeTrue)
			_, err = ParseKey("likes:gold")
			So(errors.Is(err, ErrUnknownMetric), ShouldBeTrue)
		})

		Convey("Then tiers encode as names in JSON", func() {
			b, err := json.Marshal(Criterion{Metric: BooksRead, Tier: Diamond, RequiredValue: 250})
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"tier":"diamond"`)

			var c Criterion
			So(json.Unmarshal(b, &c), ShouldBeNil)
			So(c.Tier, ShouldEqual, Diamond)
		})
	})
}
