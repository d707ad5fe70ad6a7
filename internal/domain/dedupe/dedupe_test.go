package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/classlens/classlens/internal/domain/dedupe"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a fresh tracker", t, func() {
		d := dedupe.NewTracker()
		ctx := context.Background()

		Convey("When a submission ID is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "sub-1")
			second := d.SeenAndRecord(ctx, "sub-1")

			Convey("Then only the retry is reported as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When distinct IDs are recorded", func() {
			So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "sub-2"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 2)
		})
	})
}

func TestUnrecord(t *testing.T) {
	Convey("Given a recorded submission ID", t, func() {
		d := dedupe.NewTracker()
		ctx := context.Background()
		d.SeenAndRecord(ctx, "sub-1")

		Convey("When it is unrecorded", func() {
			d.Unrecord(ctx, "sub-1")

			Convey("Then the same ID can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown ID is unrecorded", func() {
			d.Unrecord(ctx, "sub-99")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestBoundedEviction(t *testing.T) {
	Convey("Given a tracker with capacity three", t, func() {
		d := dedupe.NewTracker(dedupe.WithCapacity(3))
		ctx := context.Background()

		Convey("When four IDs are recorded", func() {
			for i := 0; i < 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
			}

			Convey("Then the oldest is evicted and a retry of it is not seen", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "sub-0"), ShouldBeFalse)
			})

			Convey("Then recent IDs are still remembered", func() {
				So(d.SeenAndRecord(ctx, "sub-3"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded tracker", t, func() {
		d := dedupe.NewTracker(dedupe.WithCapacity(0))
		ctx := context.Background()

		Convey("When many IDs are recorded", func() {
			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
			}

			Convey("Then none are evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "sub-0"), ShouldBeTrue)
			})
		})
	})
}

func TestConcurrentRecording(t *testing.T) {
	Convey("Given many goroutines racing on the same ID", t, func() {
		d := dedupe.NewTracker()
		ctx := context.Background()

		const workers = 32
		var wg sync.WaitGroup
		fresh := make(chan bool, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fresh <- !d.SeenAndRecord(ctx, "sub-race")
			}()
		}
		wg.Wait()
		close(fresh)

		Convey("Then exactly one recording wins", func() {
			wins := 0
			for f := range fresh {
				if f {
					wins++
				}
			}
			So(wins, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
