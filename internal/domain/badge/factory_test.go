package badge

import (
	"strconv"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/shelf/internal/domain/catalog"
)

func TestFactory(t *testing.T) {
	Convey("Given a factory with a fixed clock and ids", t, func() {
		cat := catalog.Default()
		at := time.Date(2024, 1, 6, 9, 30, 0, 0, time.UTC)
		n := 0
		f := NewFactory(cat,
			WithClock(func() time.Time { return at }),
			WithIDGenerator(func() string { n++; return "badge-" + strconv.Itoa(n) }),
		)
		bronze, _ := cat.Lookup(catalog.Key{Metric: catalog.BooksRead, Tier: catalog.Bronze})

		Convey("When creating a bronze books badge at seven books", func() {
			b := f.Create(bronze, 7)

			Convey("Then metadata is copied from the criterion", func() {
				So(b.ID, ShouldEqual, "badge-1")
				So(b.Metric, ShouldEqual, catalog.BooksRead)
				So(b.Tier, ShouldEqual, catalog.Bronze)
				So(b.Title, ShouldEqual, bronze.Title)
				So(b.Description, ShouldEqual, bronze.Description)
				So(b.Icon, ShouldEqual, bronze.Icon)
				So(b.TierColor, ShouldEqual, catalog.Bronze.Color())
				So(b.DateEarned, ShouldEqual, at)
				So(b.TriggerValue, ShouldEqual, 7)
			})

			Convey("Then progress is measured against silver", func() {
				So(b.ProgressToNextTier, ShouldAlmostEqual, 7.0/25.0)
			})
		})

		Convey("When creating a top tier badge", func() {
			diamond, _ := cat.Lookup(catalog.Key{Metric: catalog.BooksRead, Tier: catalog.Diamond})
			b := f.Create(diamond, 300)

			Convey("Then there is no next tier progress", func() {
				So(b.ProgressToNextTier, ShouldEqual, 0)
			})
		})

		Convey("When awarding after a bulk import", func() {
			earned := NewEarnedSet()
			badges := f.Award(NewEvaluator(cat), CounterMap{catalog.BooksRead: 60}, earned)

			Convey("Then bronze silver and gold are created and recorded", func() {
				So(badges, ShouldHaveLength, 3)
				So(badges[0].Tier, ShouldEqual, catalog.Bronze)
				So(badges[2].Tier, ShouldEqual, catalog.Gold)
				So(badges[0].ProgressToNextTier, ShouldEqual, 1)
				So(badges[2].ProgressToNextTier, ShouldAlmostEqual, 0.6)
				So(len(earned), ShouldEqual, 3)
			})

			Convey("Then awarding again creates nothing", func() {
				So(f.Award(NewEvaluator(cat), CounterMap{catalog.BooksRead: 60}, earned), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a factory with default options", t, func() {
		f := NewFactory(catalog.Default())
		c := catalog.Criterion{Metric: catalog.ReviewsWritten, Tier: catalog.Gold, RequiredValue: 25}

		Convey("Then ids are unique", func() {
			So(f.Create(c, 25).ID, ShouldNotEqual, f.Create(c, 25).ID)
		})
	})
}
