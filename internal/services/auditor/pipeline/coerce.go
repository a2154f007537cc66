package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// parseAmount coerces a cell to a decimal. Anything that does not parse is
// treated as zero; ok reports whether the cell held a usable number.
func parseAmount(s string) (d decimal.Decimal, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero, true
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return decimal.NewFromFloat(f), true
		}
		return decimal.Zero, false
	}
	return d, true
}

var compactDate = regexp.MustCompile(`^\d{8}$`)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02.01.2006",
	"02.01.2006 15:04:05",
	"02-01-2006",
}

// parseDate accepts ISO and day-first layouts, compact YYYYMMDD and Excel
// serial numbers. The result is truncated to the calendar day in UTC; nil
// means the cell was blank or unreadable.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if compactDate.MatchString(s) {
		if t, err := time.Parse("20060102", s); err == nil {
			return day(t)
		}
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return day(t)
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f < 2958466 {
		if t, err := excelize.ExcelDateToTime(f, false); err == nil {
			return day(t)
		}
	}
	return nil
}

func day(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// daysBetween returns whole days from a to b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// label canonicalises category text so that composed and decomposed
// Vietnamese spellings compare equal.
func label(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// lower folds a label for case-insensitive comparison.
func lower(s string) string {
	return cases.Lower(language.Und).String(label(s))
}

// code normalises a join key that is compared as text.
func code(s string) string {
	return strings.TrimSpace(s)
}
