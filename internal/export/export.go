package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"salonbook/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{"Date", "Time", "Customer", "Phone", "Services", "Status", "Notes"}

// BookingsXLSX renders bookings for [start, end] into one sheet. serviceNames
// maps service IDs to display names; unknown IDs are written as is.
func BookingsXLSX(bookings []models.Booking, start, end time.Time, serviceNames map[string]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		start.Format("02.01.2006"), end.Format("02.01.2006")))
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	sorted := append([]models.Booking(nil), bookings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].StartTime < sorted[j].StartTime
	})

	styles := map[string]int{}
	for i, b := range sorted {
		row := i + 3
		values := []any{
			b.Date,
			timeRange(b),
			b.CustomerName,
			b.CustomerPhone,
			serviceList(b.ServiceIDs, serviceNames),
			b.Status,
			b.Notes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}

		styleID, err := statusStyle(f, styles, b.Status)
		if err == nil {
			from, _ := excelize.CoordinatesToCellName(1, row)
			to, _ := excelize.CoordinatesToCellName(len(headers), row)
			_ = f.SetCellStyle(sheetName, from, to, styleID)
		}
	}

	widths := []float64{12, 14, 25, 15, 35, 12, 40}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheetName, col, col, w)
	}

	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf, nil
}

// SaveBookings writes the workbook under dir and returns its path.
func SaveBookings(dir string, bookings []models.Booking, start, end time.Time, serviceNames map[string]string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}
	buf, err := BookingsXLSX(bookings, start, end, serviceNames)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(start, end))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return path, nil
}

func FileName(start, end time.Time) string {
	return fmt.Sprintf("bookings_%s_to_%s.xlsx", start.Format(models.DateFormat), end.Format(models.DateFormat))
}

func timeRange(b models.Booking) string {
	if b.EndTime == "" {
		return b.StartTime
	}
	return b.StartTime + "-" + b.EndTime
}

func serviceList(ids []string, names map[string]string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := names[id]; ok && n != "" {
			out = append(out, n)
			continue
		}
		out = append(out, id)
	}
	return strings.Join(out, ", ")
}

// statusStyle caches one fill style per status color.
func statusStyle(f *excelize.File, cache map[string]int, status string) (int, error) {
	color := "#FFFFFF"
	switch status {
	case models.StatusConfirmed, models.StatusCompleted:
		color = "#C6EFCE"
	case models.StatusPending:
		color = "#FFEB9C"
	case models.StatusCancelled, models.StatusNoShow:
		color = "#FFC7CE"
	}
	if id, ok := cache[color]; ok {
		return id, nil
	}
	id, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
	if err != nil {
		return 0, err
	}
	cache[color] = id
	return id, nil
}
