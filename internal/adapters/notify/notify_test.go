package notify

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"firebase.google.com/go/v4/messaging"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/pkg/logger"
)

type stubNotifier struct {
	name string
	err  error
	mu   sync.Mutex
	got  []Event
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Notify(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, e)
	return s.err
}

type stubSender struct {
	messages []*messaging.Message
	err      error
}

func (s *stubSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	s.messages = append(s.messages, m)
	return "projects/p/messages/1", s.err
}

func sampleEvent() Event {
	return Event{UserID: "u1", Badge: badge.Badge{
		ID:           "b1",
		Metric:       catalog.ReadingStreak,
		Tier:         catalog.Silver,
		Title:        "Week Streak",
		Description:  "Reach 7 consecutive reading days",
		TierColor:    catalog.Silver.Color(),
		TriggerValue: 7,
	}}
}

func TestMulti(t *testing.T) {
	Convey("Given a multi notifier with one failing channel", t, func() {
		ok := &stubNotifier{name: "ok"}
		bad := &stubNotifier{name: "bad", err: errors.New("unreachable")}
		m := NewMulti(bad, nil, ok)

		Convey("When an event is published", func() {
			err := m.Notify(context.Background(), sampleEvent())

			Convey("Then every channel still receives it", func() {
				So(ok.got, ShouldHaveLength, 1)
				So(bad.got, ShouldHaveLength, 1)
			})

			Convey("Then the failure is reported", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "bad: unreachable")
			})
		})
	})
}

func TestLog(t *testing.T) {
	Convey("Given a log notifier", t, func() {
		var buf bytes.Buffer
		So(logger.InitWithWriter(&buf), ShouldBeNil)
		defer func() { _ = logger.Init() }()

		So(NewLog(logger.Named("notify")).Notify(context.Background(), sampleEvent()), ShouldBeNil)

		Convey("Then the badge key is logged", func() {
			So(buf.String(), ShouldContainSubstring, "badge=reading_streak:silver")
			So(buf.String(), ShouldContainSubstring, "user_id=u1")
		})
	})
}

func TestHub(t *testing.T) {
	Convey("Given a hub with two subscribers for one user", t, func() {
		h := NewHub()
		a, cancelA := h.Subscribe("u1")
		b, cancelB := h.Subscribe("u1")
		other, cancelOther := h.Subscribe("u2")
		defer cancelB()
		defer cancelOther()

		Convey("When an event for u1 is published", func() {
			So(h.Notify(context.Background(), sampleEvent()), ShouldBeNil)

			Convey("Then both u1 subscribers receive it and u2 does not", func() {
				So((<-a).Badge.ID, ShouldEqual, "b1")
				So((<-b).Badge.ID, ShouldEqual, "b1")
				So(len(other), ShouldEqual, 0)
			})
		})

		Convey("When a subscriber cancels", func() {
			cancelA()
			cancelA()

			Convey("Then its channel is closed and it is removed", func() {
				_, open := <-a
				So(open, ShouldBeFalse)
				So(h.Subscribers("u1"), ShouldEqual, 1)
			})
		})

		Convey("When a subscriber stops reading", func() {
			for i := 0; i < defaultSubscriberBuffer+5; i++ {
				So(h.Notify(context.Background(), sampleEvent()), ShouldBeNil)
			}

			Convey("Then publishing does not block", func() {
				So(len(b), ShouldEqual, defaultSubscriberBuffer)
			})
		})
	})
}

func TestFCM(t *testing.T) {
	Convey("Given an FCM notifier with a stub sender", t, func() {
		sender := &stubSender{}
		f := NewFCMWithSender(sender, "")

		Convey("When an event is published", func() {
			So(f.Notify(context.Background(), sampleEvent()), ShouldBeNil)

			Convey("Then a topic message is sent for the user", func() {
				So(sender.messages, ShouldHaveLength, 1)
				msg := sender.messages[0]
				So(msg.Topic, ShouldEqual, "shelf-user-u1")
				So(msg.Notification.Title, ShouldEqual, "Badge earned: Week Streak")
				So(msg.Data["tier"], ShouldEqual, "silver")
				So(msg.Data["triggerValue"], ShouldEqual, "7")
				So(msg.Android.Notification.Color, ShouldEqual, catalog.Silver.Color())
			})
		})

		Convey("When the sender fails", func() {
			sender.err = errors.New("quota")

			Convey("Then the error is returned", func() {
				So(f.Notify(context.Background(), sampleEvent()), ShouldNotBeNil)
			})
		})

		Convey("When no credentials are configured", func() {
			_, err := NewFCM(context.Background(), "", "")

			Convey("Then construction fails", func() {
				So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
			})
		})
	})
}
