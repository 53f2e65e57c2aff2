package queue_test

import (
	"context"
	"strconv"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/redzone/internal/adapters/mq/queue"
	"github.com/okian/redzone/internal/domain/model"
)

func event(id string) queue.Event {
	return model.NormalizedScoringEvent{
		GameID:      "g1",
		RawPlayerID: id,
		Type:        model.EventRushingTD,
	}
}

func TestQueueOrdering(t *testing.T) {
	Convey("Given an in-memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))

		Convey("When events are enqueued", func() {
			for i := 0; i < 5; i++ {
				So(q.Enqueue(ctx, event(strconv.Itoa(i))), ShouldBeTrue)
			}
			So(q.Len(ctx), ShouldEqual, 5)

			Convey("Then dequeue delivers them in enqueue order", func() {
				ch := q.Dequeue(ctx)
				for i := 0; i < 5; i++ {
					got := <-ch
					So(got.RawPlayerID, ShouldEqual, strconv.Itoa(i))
				}
				So(q.Len(ctx), ShouldEqual, 0)
			})
		})
	})
}

func TestQueueBackpressure(t *testing.T) {
	Convey("Given a queue with capacity two", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When it fills up", func() {
			So(q.Enqueue(ctx, event("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, event("b")), ShouldBeTrue)

			Convey("Then a further enqueue is refused without blocking", func() {
				So(q.Enqueue(ctx, event("c")), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})
	})
}

func TestQueueClose(t *testing.T) {
	Convey("Given a queue holding one event", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue()
		So(q.Enqueue(ctx, event("a")), ShouldBeTrue)

		Convey("When it is closed", func() {
			So(q.Close(), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)

			Convey("Then enqueue is refused but the backlog drains", func() {
				So(q.Enqueue(ctx, event("b")), ShouldBeFalse)

				ch := q.Dequeue(ctx)
				got, ok := <-ch
				So(ok, ShouldBeTrue)
				So(got.RawPlayerID, ShouldEqual, "a")

				_, ok = <-ch
				So(ok, ShouldBeFalse)
			})

			Convey("And closing twice is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
