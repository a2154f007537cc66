package export

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"loan_audit/internal/table"
)

// ErrNothingToWrite is returned when every sheet is empty.
var ErrNothingToWrite = errors.New("no sheet has rows")

const defaultSheet = "Sheet1"

// Excel rejects sheet names longer than this.
const maxSheetName = 31

// Workbook renders sheets into one xlsx file. Empty sheets are skipped; the
// order of the remaining sheets is kept.
func Workbook(sheets []table.Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return nil, err
	}

	written := 0
	for _, s := range sheets {
		if s.Empty() {
			log.Printf("[EXPORT][SKIP] sheet=%q empty", s.Name)
			continue
		}
		name := s.Name
		if len([]rune(name)) > maxSheetName {
			name = string([]rune(name)[:maxSheetName])
		}
		if written == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, s, dateStyle); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		written++
		log.Printf("[EXPORT][SHEET] sheet=%q rows=%d cols=%d", name, len(s.Rows), len(s.Header))
	}
	if written == 0 {
		return nil, ErrNothingToWrite
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, s table.Sheet, dateStyle int) error {
	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}

	for i, r := range s.Rows {
		row := make([]any, len(r))
		var dateCols []int
		for j, v := range r {
			row[j] = cell(v)
			if _, ok := row[j].(time.Time); ok {
				dateCols = append(dateCols, j)
			}
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, start, &row); err != nil {
			return err
		}
		for _, j := range dateCols {
			c, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellStyle(name, c, c, dateStyle); err != nil {
				return err
			}
		}
	}
	return nil
}

// cell converts a sheet value to something excelize stores natively.
func cell(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return x.InexactFloat64()
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return x.InexactFloat64()
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	default:
		return v
	}
}
