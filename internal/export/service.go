package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/shot-tracker/internal/entity"
	"github.com/joseph-ayodele/shot-tracker/internal/ledger"
)

// Service is a tiny façade over the ledger that produces XLSX bytes for
// shot-history exports.
type Service struct {
	store  ledger.Store
	logger *slog.Logger
}

func NewService(store ledger.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportShotsXLSX returns an XLSX workbook (as bytes) for the given owner
// and date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> the owner's full history.
func (s *Service) ExportShotsXLSX(ctx context.Context, owner entity.Identity, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	recs, err := s.store.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("query shots: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Shots"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date",
		"Ball Speed",
		"Launch Angle",
		"Spin Rate",
		"Carry Distance",
		"Club Speed",
		"Smash Factor",
		"Apex Height",
		"Units",
		"Record ID",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	rows := 0
	for _, r := range recs {
		if fromDate != nil && r.CreatedAt.Before(*fromDate) {
			continue
		}
		if toDate != nil && !r.CreatedAt.Before(toDate.Add(24*time.Hour)) {
			continue
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		writeMetric := func(col int, p *float64) {
			if p == nil {
				write(col, "")
				return
			}
			write(col, *p)
		}

		write(1, r.CreatedAt.UTC().Format("2006-01-02 15:04"))
		writeMetric(2, r.Metrics.BallSpeed)
		writeMetric(3, r.Metrics.LaunchAngle)
		writeMetric(4, r.Metrics.SpinRate)
		writeMetric(5, r.Metrics.CarryDistance)
		writeMetric(6, r.Metrics.ClubSpeed)
		writeMetric(7, r.Metrics.SmashFactor)
		writeMetric(8, r.Metrics.ApexHeight)
		write(9, formatUnits(r.Metrics.Units))
		write(10, r.ID)

		row++
		rows++
	}

	_ = f.SetColWidth(sheet, "A", "A", 18) // date
	_ = f.SetColWidth(sheet, "B", "H", 14) // metrics
	_ = f.SetColWidth(sheet, "I", "I", 36) // units
	_ = f.SetColWidth(sheet, "J", "J", 38) // record id

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"owner", owner.Key,
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func formatUnits(units map[string]string) string {
	if len(units) == 0 {
		return ""
	}
	keys := make([]string, 0, len(units))
	for k := range units {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+units[k])
	}
	return strings.Join(parts, ", ")
}
