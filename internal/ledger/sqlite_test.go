package ledger_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/joseph-ayodele/shot-tracker/internal/entity"
	"github.com/joseph-ayodele/shot-tracker/internal/ledger"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh sqlite ledger", t, func() {
		path := filepath.Join(t.TempDir(), "shots.db")
		store, err := ledger.OpenSQLite(ctx, path, nil)
		So(err, ShouldBeNil)
		defer store.Close()

		owner := entity.PersistentIdentity("alice")

		Convey("When listing before any append", func() {
			shots, err := store.List(ctx, owner)

			Convey("Then the result is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(shots, ShouldBeEmpty)
			})
		})

		Convey("When appending a record with gaps and units", func() {
			m := entity.ShotMetrics{
				BallSpeed:   f(150.2),
				SpinRate:    f(2800),
				SmashFactor: f(1.47),
				Units:       map[string]string{"ball_speed": "mph", "spin_rate": "rpm"},
			}
			id, err := store.Append(ctx, owner, m)
			So(err, ShouldBeNil)

			Convey("Then the record round-trips including absent fields", func() {
				shots, err := store.List(ctx, owner)
				So(err, ShouldBeNil)
				So(shots, ShouldHaveLength, 1)

				got := shots[0]
				So(got.ID, ShouldEqual, id)
				So(got.Owner, ShouldEqual, "alice")
				So(*got.Metrics.BallSpeed, ShouldEqual, 150.2)
				So(*got.Metrics.SpinRate, ShouldEqual, 2800)
				So(*got.Metrics.SmashFactor, ShouldEqual, 1.47)
				So(got.Metrics.LaunchAngle, ShouldBeNil)
				So(got.Metrics.CarryDistance, ShouldBeNil)
				So(got.Metrics.ApexHeight, ShouldBeNil)
				So(got.Metrics.Units["spin_rate"], ShouldEqual, "rpm")
			})
		})

		Convey("When appending a record with no units", func() {
			_, err := store.Append(ctx, owner, entity.ShotMetrics{BallSpeed: f(140)})
			So(err, ShouldBeNil)

			Convey("Then the units map comes back empty", func() {
				shots, err := store.List(ctx, owner)
				So(err, ShouldBeNil)
				So(shots, ShouldHaveLength, 1)
				So(shots[0].Metrics.Units, ShouldBeEmpty)
			})
		})

		Convey("When several goroutines append for the same owner", func() {
			const n = 10
			var wg sync.WaitGroup
			errs := make([]error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = store.Append(ctx, owner, entity.ShotMetrics{BallSpeed: f(float64(i))})
				}(i)
			}
			wg.Wait()

			Convey("Then every append succeeds and none is lost", func() {
				for _, err := range errs {
					So(err, ShouldBeNil)
				}
				shots, err := store.List(ctx, owner)
				So(err, ShouldBeNil)
				So(shots, ShouldHaveLength, n)
			})
		})

		Convey("When listing another owner", func() {
			_, err := store.Append(ctx, owner, entity.ShotMetrics{BallSpeed: f(140)})
			So(err, ShouldBeNil)

			shots, err := store.List(ctx, entity.PersistentIdentity("bob"))

			Convey("Then ledgers are isolated per owner", func() {
				So(err, ShouldBeNil)
				So(shots, ShouldBeEmpty)
			})
		})
	})
}
