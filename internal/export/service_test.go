package export_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/shot-tracker/internal/entity"
	"github.com/joseph-ayodele/shot-tracker/internal/export"
	"github.com/joseph-ayodele/shot-tracker/internal/ledger"
)

func f(v float64) *float64 { return &v }

func TestExportShotsXLSX(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ledger with two shots", t, func() {
		store := ledger.NewMemoryStore()
		owner := entity.PersistentIdentity("alice")

		_, err := store.Append(ctx, owner, entity.ShotMetrics{
			BallSpeed:     f(150.2),
			CarryDistance: f(245),
			Units:         map[string]string{"ball_speed": "mph", "carry_distance": "yards"},
		})
		So(err, ShouldBeNil)
		_, err = store.Append(ctx, owner, entity.ShotMetrics{LaunchAngle: f(12.5)})
		So(err, ShouldBeNil)

		svc := export.NewService(store, nil)

		Convey("When exporting the full history", func() {
			b, err := svc.ExportShotsXLSX(ctx, owner, nil, nil)

			Convey("Then the workbook holds a header row plus both shots", func() {
				So(err, ShouldBeNil)

				wb, err := excelize.OpenReader(bytes.NewReader(b))
				So(err, ShouldBeNil)
				defer wb.Close()

				rows, err := wb.GetRows("Shots")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 3)
				So(rows[0][0], ShouldEqual, "Date")
				So(rows[0][1], ShouldEqual, "Ball Speed")
				So(rows[1][1], ShouldEqual, "150.2")
				So(rows[1][8], ShouldEqual, "ball_speed=mph, carry_distance=yards")
				So(rows[2][2], ShouldEqual, "12.5")
			})
		})

		Convey("When exporting a window that excludes everything", func() {
			from := time.Now().UTC().AddDate(0, 0, 2)
			to := from.AddDate(0, 0, 1)
			b, err := svc.ExportShotsXLSX(ctx, owner, &from, &to)

			Convey("Then only the header row remains", func() {
				So(err, ShouldBeNil)

				wb, err := excelize.OpenReader(bytes.NewReader(b))
				So(err, ShouldBeNil)
				defer wb.Close()

				rows, err := wb.GetRows("Shots")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
			})
		})

		Convey("When exporting a window that includes today", func() {
			from := time.Now().UTC().AddDate(0, 0, -1)
			b, err := svc.ExportShotsXLSX(ctx, owner, &from, nil)

			Convey("Then both shots are present", func() {
				So(err, ShouldBeNil)

				wb, err := excelize.OpenReader(bytes.NewReader(b))
				So(err, ShouldBeNil)
				defer wb.Close()

				rows, err := wb.GetRows("Shots")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 3)
			})
		})
	})
}
