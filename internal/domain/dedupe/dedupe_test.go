package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/athletix/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new in-memory deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When a submission is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "sub-1")
			second := d.SeenAndRecord(ctx, "sub-1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a submission is unrecorded", func() {
			d.SeenAndRecord(ctx, "sub-1")
			d.Unrecord(ctx, "sub-1")
			d.Unrecord(ctx, "never-seen")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			})
		})
	})
}

func TestInMemoryDeduper_Bounded(t *testing.T) {
	Convey("Given a deduper bounded to three IDs", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"sub-1", "sub-2", "sub-3"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("When a fourth ID arrives", func() {
			So(d.SeenAndRecord(ctx, "sub-4"), ShouldBeFalse)

			Convey("Then the oldest ID is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "sub-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "sub-4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			})
		})

		Convey("When an ID is unrecorded and recorded again", func() {
			d.Unrecord(ctx, "sub-1")
			So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "sub-4"), ShouldBeFalse)

			Convey("Then eviction skips the stale slot and drops sub-2", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "sub-3"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

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

func TestInMemoryDeduper_Concurrency(t *testing.T) {
	Convey("Given concurrent submitters", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10_000))
		const workers, perWorker = 10, 100

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d-%d", w, i))
				}
			}(w)
		}
		wg.Wait()

		Convey("Then every ID is recorded exactly once", func() {
			So(d.Size(), ShouldEqual, workers*perWorker)
		})
	})
}
