package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/shelf/internal/adapters/leaderboard"
	"github.com/okian/shelf/internal/adapters/repository"
	service "github.com/okian/shelf/internal/app"
	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/model"
	"github.com/okian/shelf/internal/domain/stats"
	"github.com/okian/shelf/internal/domain/streak"
	"github.com/okian/shelf/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func day(s string) streak.Day {
	d, err := streak.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func at(s string) time.Time {
	return day(s).Time().Add(12 * time.Hour)
}

func newStartedService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithWorkerCount(2),
		service.WithQueueSize(1000),
		service.WithClock(streak.FixedClock(day("2024-01-08"))),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

// waitForActivities polls until userID has n applied activities.
func waitForActivities(svc *service.Service, userID string, n int64) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p, err := svc.Profile(context.Background(), userID)
		if err == nil && p.Activities >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func finished(id, user, book, date string) model.Activity {
	return model.Activity{
		ID: id, UserID: user, Kind: model.BookFinished,
		BookID: book, Pages: 200, Genre: "fantasy", OccurredAt: at(date),
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx := context.Background()

		Convey("When it has not been started", func() {
			_, err := svc.RecordActivity(ctx, finished("a", "u", "b", "2024-01-01"))

			Convey("Then activities are refused", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(svc.Healthy(ctx), service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting and stopping it", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.Healthy(ctx), ShouldBeNil)

			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it reports stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a service on its default in-memory store", t, func() {
		ctx := context.Background()
		svc := newStartedService()
		_, err := svc.RecordActivity(ctx, finished("r-1", "u-restart", "b-1", "2024-01-08"))
		So(err, ShouldBeNil)
		So(waitForActivities(svc, "u-restart", 1), ShouldBeTrue)

		Convey("When it is stopped and started again", func() {
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then the fresh store and the leaderboards agree", func() {
				_, err := svc.Profile(ctx, "u-restart")
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
				_, err = svc.Rank(ctx, leaderboard.LongestStreak, "u-restart")
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
				So(svc.GetStats()["trackedUsers"], ShouldEqual, 0)

				Convey("And the same activity id is accepted again", func() {
					ack, err := svc.RecordActivity(ctx, finished("r-1", "u-restart", "b-1", "2024-01-08"))
					So(err, ShouldBeNil)
					So(ack.Duplicate, ShouldBeFalse)
				})
			})
		})
	})

	Convey("Given a service with a caller supplied store", t, func() {
		ctx := context.Background()
		store, err := repository.OpenBadger(repository.InMemoryBadgerConfig())
		So(err, ShouldBeNil)
		svc := newStartedService(service.WithStore(store))
		_, err = svc.RecordActivity(ctx, finished("s-1", "u-kept", "b-1", "2024-01-08"))
		So(err, ShouldBeNil)
		So(waitForActivities(svc, "u-kept", 1), ShouldBeTrue)

		Convey("When it is stopped", func() {
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it refuses to start on the closed store", func() {
				So(errors.Is(svc.Start(ctx), service.ErrClosed), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_RecordActivity(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStartedService()
		ctx := context.Background()
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When an invalid activity is recorded", func() {
			_, err := svc.RecordActivity(ctx, model.Activity{UserID: "u-1", Kind: "shelved"})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrInvalidActivity), ShouldBeTrue)
			})
		})

		Convey("When the same activity id is recorded twice", func() {
			first, err1 := svc.RecordActivity(ctx, finished("dup-1", "u-1", "b-1", "2024-01-08"))
			second, err2 := svc.RecordActivity(ctx, finished("dup-1", "u-1", "b-1", "2024-01-08"))

			Convey("Then the second is acknowledged as a duplicate", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)

				So(waitForActivities(svc, "u-1", 1), ShouldBeTrue)
				time.Sleep(50 * time.Millisecond)
				p, err := svc.Profile(ctx, "u-1")
				So(err, ShouldBeNil)
				So(p.Activities, ShouldEqual, 1)
				So(p.Tally.BooksRead, ShouldEqual, 1)
			})
		})

		Convey("When an activity has no id", func() {
			ack, err := svc.RecordActivity(ctx, finished("", "u-2", "b-1", "2024-01-08"))

			Convey("Then one is generated", func() {
				So(err, ShouldBeNil)
				So(ack.ActivityID, ShouldNotBeEmpty)
			})
		})

		Convey("When a profile does not exist", func() {
			_, err := svc.Profile(ctx, "nobody")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Achievements(t *testing.T) {
	Convey("Given a reader finishing five books over three consecutive days", t, func() {
		svc := newStartedService()
		ctx := context.Background()
		defer func() { _ = svc.Stop(ctx) }()

		events, cancel := svc.Subscribe("reader")
		defer cancel()

		dates := []string{"2024-01-05", "2024-01-06", "2024-01-07", "2024-01-07", "2024-01-07"}
		for i, d := range dates {
			_, err := svc.RecordActivity(ctx, finished(fmt.Sprintf("f-%d", i), "reader", fmt.Sprintf("book-%d", i), d))
			So(err, ShouldBeNil)
		}
		So(waitForActivities(svc, "reader", int64(len(dates))), ShouldBeTrue)

		Convey("Then the streak reflects consecutive days", func() {
			view, err := svc.Streak(ctx, "reader")
			So(err, ShouldBeNil)
			So(view.CurrentStreak, ShouldEqual, 3)
			So(view.LongestStreak, ShouldEqual, 3)
			So(view.Stale, ShouldBeFalse)
			So(view.EffectiveStreak, ShouldEqual, 3)
		})

		Convey("Then bronze badges are awarded once each", func() {
			badges, err := svc.Badges(ctx, "reader")
			So(err, ShouldBeNil)

			keys := map[catalog.Key]int{}
			for _, b := range badges {
				keys[b.Key()]++
			}
			So(keys[catalog.Key{Metric: catalog.BooksRead, Tier: catalog.Bronze}], ShouldEqual, 1)
			So(keys[catalog.Key{Metric: catalog.ReadingStreak, Tier: catalog.Bronze}], ShouldEqual, 1)
			So(keys[catalog.Key{Metric: catalog.GenresExplored, Tier: catalog.Bronze}], ShouldEqual, 0)
			for _, n := range keys {
				So(n, ShouldEqual, 1)
			}
		})

		Convey("Then subscribers are notified", func() {
			seen := map[catalog.Key]bool{}
			timeout := time.After(2 * time.Second)
		loop:
			for len(seen) < 2 {
				select {
				case e := <-events:
					So(e.UserID, ShouldEqual, "reader")
					seen[e.Badge.Key()] = true
				case <-timeout:
					break loop
				}
			}
			So(seen[catalog.Key{Metric: catalog.BooksRead, Tier: catalog.Bronze}], ShouldBeTrue)
			So(seen[catalog.Key{Metric: catalog.ReadingStreak, Tier: catalog.Bronze}], ShouldBeTrue)
		})

		Convey("Then progress points at silver for books read", func() {
			progress, err := svc.Progress(ctx, "reader")
			So(err, ShouldBeNil)
			for _, mp := range progress {
				if mp.Metric != catalog.BooksRead {
					continue
				}
				So(mp.Value, ShouldEqual, 5)
				So(mp.Next, ShouldNotBeNil)
				So(mp.Next.Tier, ShouldEqual, catalog.Silver)
				So(mp.Progress, ShouldAlmostEqual, 0.2)
			}
		})

		Convey("Then the leaderboards rank the reader", func() {
			entry, err := svc.Rank(ctx, leaderboard.LongestStreak, "reader")
			So(err, ShouldBeNil)
			So(entry.Rank, ShouldEqual, 1)
			So(entry.Value, ShouldEqual, 3)

			rows, err := svc.Leaderboard(ctx, leaderboard.Badges, 10)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 1)
			So(rows[0].UserID, ShouldEqual, "reader")
		})
	})
}

func TestService_StaleStreak(t *testing.T) {
	Convey("Given a reader whose last activity was days ago", t, func() {
		svc := newStartedService(service.WithClock(streak.FixedClock(day("2024-01-20"))))
		ctx := context.Background()
		defer func() { _ = svc.Stop(ctx) }()

		_, err := svc.RecordActivity(ctx, finished("s-1", "lapsed", "b", "2024-01-10"))
		So(err, ShouldBeNil)
		So(waitForActivities(svc, "lapsed", 1), ShouldBeTrue)

		Convey("Then the stored streak is kept but reads as stale", func() {
			view, err := svc.Streak(ctx, "lapsed")
			So(err, ShouldBeNil)
			So(view.CurrentStreak, ShouldEqual, 1)
			So(view.Stale, ShouldBeTrue)
			So(view.EffectiveStreak, ShouldEqual, 0)
			So(view.Today, ShouldEqual, day("2024-01-20"))
		})

		Convey("When the reader reads again", func() {
			_, err := svc.RecordActivity(ctx, model.Activity{
				ID: "s-2", UserID: "lapsed", Kind: model.PagesRead, Pages: 30, OccurredAt: at("2024-01-20"),
			})
			So(err, ShouldBeNil)
			So(waitForActivities(svc, "lapsed", 2), ShouldBeTrue)

			Convey("Then the streak restarts at one", func() {
				view, err := svc.Streak(ctx, "lapsed")
				So(err, ShouldBeNil)
				So(view.CurrentStreak, ShouldEqual, 1)
				So(view.LongestStreak, ShouldEqual, 1)
				So(view.Stale, ShouldBeFalse)
			})
		})
	})
}

func TestService_Queries(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStartedService(service.WithMaxLeaderboardLimit(5))
		ctx := context.Background()
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When evaluating a snapshot without state", func() {
			met := svc.Evaluate(stats.Snapshot{
				BooksRead: 5, PagesRead: 200, ReadingStreak: 1, LibrarySize: 5, GenresExplored: 1,
			}, nil)

			Convey("Then exactly books read bronze is met", func() {
				So(len(met), ShouldEqual, 1)
				So(met[0].Key(), ShouldResemble, catalog.Key{Metric: catalog.BooksRead, Tier: catalog.Bronze})
				So(met[0].RequiredValue, ShouldEqual, 5)
			})

			Convey("And earned keys are excluded", func() {
				met := svc.Evaluate(stats.Snapshot{BooksRead: 5}, []catalog.Key{{Metric: catalog.BooksRead, Tier: catalog.Bronze}})
				So(met, ShouldBeEmpty)
			})
		})

		Convey("When asking for the catalog", func() {
			So(len(svc.Catalog()), ShouldEqual, catalog.Default().Len())
		})

		Convey("When asking for an unknown leaderboard", func() {
			_, err := svc.Leaderboard(ctx, "fastest", 10)
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			_, err = svc.Rank(ctx, "fastest", "u")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("When asking for an unranked user", func() {
			_, err := svc.Rank(ctx, leaderboard.Badges, "ghost")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("When asking for more rows than allowed", func() {
			for i := range 8 {
				_, err := svc.RecordActivity(ctx, model.Activity{
					UserID: fmt.Sprintf("friend-%d", i), Kind: model.FriendConnected, OccurredAt: at("2024-01-08"),
				})
				So(err, ShouldBeNil)
			}
			for i := range 8 {
				So(waitForActivities(svc, fmt.Sprintf("friend-%d", i), 1), ShouldBeTrue)
			}

			rows, err := svc.Leaderboard(ctx, leaderboard.Badges, 50)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 5)
			So(svc.Leaderboards(), ShouldResemble, []string{leaderboard.Badges, leaderboard.LongestStreak})
		})
	})
}
