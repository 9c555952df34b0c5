package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	queue "github.com/okian/shelf/internal/adapters/mq/queue"
	model "github.com/okian/shelf/internal/domain/model"
)

func activity(id string) queue.Activity {
	return queue.Activity{ID: id, UserID: "u1", Kind: model.PagesRead, Pages: 10, OccurredAt: time.Now()}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a queue with capacity two", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		convey.Convey("When enqueueing within capacity", func() {
			convey.So(q.Enqueue(ctx, activity("a1")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, activity("a2")), convey.ShouldBeNil)

			convey.Convey("Then activities are delivered in order", func() {
				convey.So(q.Len(), convey.ShouldEqual, 2)
				convey.So((<-q.Dequeue()).ID, convey.ShouldEqual, "a1")
				convey.So((<-q.Dequeue()).ID, convey.ShouldEqual, "a2")
			})

			convey.Convey("Then the next enqueue reports a full queue", func() {
				err := q.Enqueue(ctx, activity("a3"))
				convey.So(errors.Is(err, queue.ErrQueueFull), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			convey.Convey("Then enqueue fails with the context error", func() {
				err := q.Enqueue(cctx, activity("a1"))
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
				convey.So(q.Len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the queue is closed", func() {
			convey.So(q.Enqueue(ctx, activity("a1")), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)

			convey.Convey("Then enqueue is rejected and buffered items drain", func() {
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(errors.Is(q.Enqueue(ctx, activity("a2")), queue.ErrClosed), convey.ShouldBeTrue)

				var drained []string
				for a := range q.Dequeue() {
					drained = append(drained, a.ID)
				}
				convey.So(drained, convey.ShouldResemble, []string{"a1"})
			})
		})
	})

	convey.Convey("Given default options", t, func() {
		q := queue.NewInMemoryQueue()
		convey.So(q.Cap(), convey.ShouldEqual, 10000)
	})
}
