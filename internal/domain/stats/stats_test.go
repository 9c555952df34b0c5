package stats

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/model"
)

func TestTally(t *testing.T) {
	Convey("Given an empty tally", t, func() {
		var tally Tally
		at := time.Date(2024, 1, 6, 8, 0, 0, 0, time.UTC)

		Convey("When a mix of activities is applied", func() {
			for _, a := range []model.Activity{
				{Kind: model.BookAdded, BookID: "b1", Genre: "Fantasy", OccurredAt: at},
				{Kind: model.BookFinished, BookID: "b1", Pages: 300, Genre: "fantasy ", OccurredAt: at},
				{Kind: model.BookFinished, BookID: "b2", Pages: 150, Genre: "History", OccurredAt: at},
				{Kind: model.PagesRead, Pages: 45, OccurredAt: at},
				{Kind: model.PagesRead, Pages: 30, OccurredAt: at},
				{Kind: model.ReviewWritten, BookID: "b1", OccurredAt: at},
				{Kind: model.RatingGiven, BookID: "b1", Rating: 5, OccurredAt: at},
				{Kind: model.FriendConnected, OccurredAt: at},
				{Kind: model.BookAdded, BookID: "b1", OccurredAt: at},
			} {
				tally.Apply(a)
			}

			Convey("Then counters accumulate", func() {
				So(tally.BooksRead, ShouldEqual, 2)
				So(tally.PagesRead, ShouldEqual, 75)
				So(tally.ReviewsWritten, ShouldEqual, 1)
				So(tally.RatingsGiven, ShouldEqual, 1)
				So(tally.FriendsConnected, ShouldEqual, 1)
			})

			Convey("Then library and genres are distinct sets", func() {
				So(len(tally.Library), ShouldEqual, 2)
				So(tally.GenreList(), ShouldResemble, []string{"fantasy", "history"})
			})

			Convey("Then the snapshot carries the streak", func() {
				snap := tally.Snapshot(4)
				So(snap.ReadingStreak, ShouldEqual, 4)
				So(snap.LibrarySize, ShouldEqual, 2)
				So(snap.GenresExplored, ShouldEqual, 2)
			})
		})
	})
}

func TestSnapshotCounters(t *testing.T) {
	Convey("Given a snapshot", t, func() {
		snap := Snapshot{BooksRead: 5, PagesRead: 200, ReadingStreak: 1, LibrarySize: 5, GenresExplored: 1}

		Convey("Then every wired metric has a counter", func() {
			v, ok := snap.Counter(catalog.BooksRead)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 5)
			v, ok = snap.Counter(catalog.ReviewsWritten)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 0)
		})

		Convey("Then total pages is not evaluable", func() {
			_, ok := snap.Counter(catalog.TotalPages)
			So(ok, ShouldBeFalse)
			So(Evaluable(catalog.TotalPages), ShouldBeFalse)
		})

		Convey("Then the evaluator only awards bronze books read", func() {
			got := badge.NewEvaluator(catalog.Default()).Evaluate(snap, nil)
			So(got, ShouldHaveLength, 1)
			So(got[0].Key(), ShouldResemble, catalog.Key{Metric: catalog.BooksRead, Tier: catalog.Bronze})
		})

		Convey("Then total pages criteria never qualify", func() {
			maxed := Snapshot{
				BooksRead: 1 << 40, PagesRead: 1 << 40, ReadingStreak: 1 << 40, LibrarySize: 1 << 40,
				GenresExplored: 1 << 40, ReviewsWritten: 1 << 40, FriendsConnected: 1 << 40, RatingsGiven: 1 << 40,
			}
			ev := badge.NewEvaluator(catalog.Default())
			got := ev.Evaluate(maxed, nil)
			So(got, ShouldHaveLength, catalog.Default().Len()-len(catalog.Default().ForMetric(catalog.TotalPages)))
			for _, c := range got {
				So(c.Metric, ShouldNotEqual, catalog.TotalPages)
			}
			for _, p := range ev.Progress(maxed, nil) {
				So(p.Metric, ShouldNotEqual, catalog.TotalPages)
			}
		})
	})
}
