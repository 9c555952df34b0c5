package dedupe_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	dedupe "github.com/okian/shelf/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When recording a new id", func() {
			seen, err := d.SeenAndRecord(ctx, "activity-1")

			Convey("Then it is newly recorded", func() {
				So(err, ShouldBeNil)
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the same id arrives again", func() {
				seen, err := d.SeenAndRecord(ctx, "activity-1")

				Convey("Then it is reported as seen", func() {
					So(err, ShouldBeNil)
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And it is unrecorded", func() {
				So(d.Unrecord(ctx, "activity-1"), ShouldBeNil)

				Convey("Then it can be recorded again", func() {
					seen, _ := d.SeenAndRecord(ctx, "activity-1")
					So(seen, ShouldBeFalse)
				})
			})
		})

		Convey("When unrecording an unknown id", func() {
			Convey("Then nothing happens", func() {
				So(d.Unrecord(ctx, "missing"), ShouldBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		Convey("When more ids than the bound arrive", func() {
			for i := 1; i <= 4; i++ {
				_, _ = d.SeenAndRecord(ctx, fmt.Sprintf("a-%d", i))
			}

			Convey("Then the oldest id is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				seen, _ := d.SeenAndRecord(ctx, "a-4")
				So(seen, ShouldBeTrue)
				seen, _ = d.SeenAndRecord(ctx, "a-1")
				So(seen, ShouldBeFalse)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			_, _ = d.SeenAndRecord(ctx, fmt.Sprintf("a-%d", i))
		}
		So(d.Size(), ShouldEqual, 1000)
	})
}

func TestInMemoryDeduperConcurrency(t *testing.T) {
	Convey("Given many goroutines racing on the same ids", t, func() {
		d := dedupe.NewInMemoryDeduper()
		ctx := context.Background()
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh = make(map[string]int)
		)
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					id := fmt.Sprintf("a-%d", i)
					if seen, _ := d.SeenAndRecord(ctx, id); !seen {
						mu.Lock()
						fresh[id]++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is recorded exactly once", func() {
			So(len(fresh), ShouldEqual, 100)
			for _, n := range fresh {
				So(n, ShouldEqual, 1)
			}
		})
	})
}

func TestRedisDeduper(t *testing.T) {
	url := os.Getenv("SHELF_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SHELF_TEST_REDIS_URL not set")
	}

	Convey("Given a Redis deduper", t, func() {
		ctx := context.Background()
		d, err := dedupe.NewRedisDeduper(ctx, url,
			dedupe.WithTTL(time.Minute),
			dedupe.WithKeyPrefix("shelf:test:"+uuid.NewString()+":"),
		)
		So(err, ShouldBeNil)
		defer d.Close()

		Convey("Then ids are recorded once and can be released", func() {
			seen, err := d.SeenAndRecord(ctx, "a-1")
			So(err, ShouldBeNil)
			So(seen, ShouldBeFalse)

			seen, err = d.SeenAndRecord(ctx, "a-1")
			So(err, ShouldBeNil)
			So(seen, ShouldBeTrue)

			So(d.Unrecord(ctx, "a-1"), ShouldBeNil)
			seen, _ = d.SeenAndRecord(ctx, "a-1")
			So(seen, ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
