package quota_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/joseph-ayodele/shot-tracker/internal/entity"
	"github.com/joseph-ayodele/shot-tracker/internal/quota"
)

func TestNextUTCMidnight(t *testing.T) {
	Convey("Given an instant mid-day UTC", t, func() {
		now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

		Convey("Then the reset is the first instant of the next day", func() {
			So(quota.NextUTCMidnight(now).Equal(
				time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
		})
	})

	Convey("Given an instant just before midnight", t, func() {
		now := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)

		Convey("Then the reset rolls into the next year", func() {
			So(quota.NextUTCMidnight(now).Equal(
				time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
		})
	})
}

func TestMemoryTracker(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tracker with a fixed clock and a limit of 3", t, func() {
		now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
		tr := quota.NewMemoryTrackerAt(func() time.Time { return now })
		id := entity.PersistentIdentity("alice")

		Convey("When using the full allowance", func() {
			var remaining []int
			for i := 0; i < 3; i++ {
				dec, err := tr.CheckAndIncrement(ctx, id, 3)
				So(err, ShouldBeNil)
				So(dec.Allowed, ShouldBeTrue)
				remaining = append(remaining, dec.Remaining)
			}

			Convey("Then remaining counts down to zero", func() {
				So(remaining, ShouldResemble, []int{2, 1, 0})
			})

			Convey("And the next request is denied with the correct reset", func() {
				dec, err := tr.CheckAndIncrement(ctx, id, 3)
				So(err, ShouldBeNil)
				So(dec.Allowed, ShouldBeFalse)
				So(dec.Remaining, ShouldEqual, 0)
				So(dec.ResetAt.Equal(quota.NextUTCMidnight(now)), ShouldBeTrue)
			})
		})

		Convey("When a different identity uses its allowance", func() {
			other := entity.EphemeralIdentity("10.0.0.1")
			dec, err := tr.CheckAndIncrement(ctx, other, 3)

			Convey("Then counters are independent per identity", func() {
				So(err, ShouldBeNil)
				So(dec.Allowed, ShouldBeTrue)
				So(dec.Remaining, ShouldEqual, 2)
			})
		})

		Convey("When the UTC day rolls over", func() {
			for i := 0; i < 3; i++ {
				_, _ = tr.CheckAndIncrement(ctx, id, 3)
			}
			now = now.Add(24 * time.Hour)
			dec, err := tr.CheckAndIncrement(ctx, id, 3)

			Convey("Then the counter has reset", func() {
				So(err, ShouldBeNil)
				So(dec.Allowed, ShouldBeTrue)
				So(dec.Remaining, ShouldEqual, 2)
			})
		})
	})

	Convey("Given 200 concurrent requests against a limit of 100", t, func() {
		tr := quota.NewMemoryTracker()
		id := entity.PersistentIdentity("burst")

		var allowed int64
		var wg sync.WaitGroup
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				dec, err := tr.CheckAndIncrement(ctx, id, 100)
				if err == nil && dec.Allowed {
					atomic.AddInt64(&allowed, 1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly the limit is admitted", func() {
			So(allowed, ShouldEqual, 100)
		})
	})
}
