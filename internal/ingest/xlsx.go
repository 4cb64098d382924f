// Package ingest reads complaint snapshots from spreadsheet exports.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// ErrNoSheets is returned for workbooks without worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// XLSXLoader turns the first (or named) worksheet into raw rows keyed by
// the header row.
type XLSXLoader struct {
	// Sheet selects a worksheet; empty means the first one.
	Sheet string
	// TimestampColumn holds acceptance times; date cells are converted to
	// wall-clock times in Location.
	TimestampColumn string
	Location        *time.Location
	Logger          *zap.Logger
}

// LoadFile reads the workbook at path.
func (l XLSXLoader) LoadFile(path string) ([]domain.RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return l.load(f)
}

// Load reads a workbook from r.
func (l XLSXLoader) Load(r io.Reader) ([]domain.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return l.load(f)
}

func (l XLSXLoader) load(f *excelize.File) ([]domain.RawRow, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sheet := l.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheets
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	out := make([]domain.RawRow, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		row := make(domain.RawRow, len(header))
		for i, name := range header {
			if name == "" || i >= len(cells) {
				continue
			}
			row[name] = cells[i]
		}
		if l.TimestampColumn != "" {
			if v, ok := row[l.TimestampColumn].(string); ok {
				if t, ok := l.serialTime(v); ok {
					row[l.TimestampColumn] = t
				}
			}
		}
		out = append(out, row)
	}
	logger.Debug("workbook loaded", zap.String("sheet", sheet), zap.Int("rows", len(out)))
	return out, nil
}

// serialTime converts a raw date serial such as "45413.6875". Textual
// timestamps are left for the normalizer.
func (l XLSXLoader) serialTime(v string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	loc := l.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), true
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
