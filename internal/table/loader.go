package table

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const (
	FormatXLSX = "xlsx"
	FormatXLS  = "xls"
	FormatCSV  = "csv"
)

// Loaded is a parsed input plus what was learned about its source.
type Loaded struct {
	Table  *Table
	Format string
	SHA256 string
	Bytes  int
}

// Load reads the whole stream and parses its first sheet into a Table.
// The format is taken from the path extension, then the content type; when
// neither decides it, xlsx, xls and csv are tried in that order.
func Load(ctx context.Context, name string, r io.Reader, filePath, contentType string) (Loaded, error) {
	t0 := time.Now()
	data, err := io.ReadAll(r)
	if err != nil {
		return Loaded{}, fmt.Errorf("read %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return Loaded{}, err
	}
	sum := sha256.Sum256(data)

	format := DetectFormat(filePath, contentType)
	log.Printf("[LOAD][START] table=%q path=%q content_type=%q size=%d detected_format=%s", name, filePath, contentType, len(data), format)

	order := []string{FormatXLSX, FormatXLS, FormatCSV}
	switch format {
	case FormatXLSX:
		order = []string{FormatXLSX, FormatCSV}
	case FormatXLS:
		order = []string{FormatXLS, FormatXLSX}
	case FormatCSV:
		order = []string{FormatCSV}
	}

	var t *Table
	var errs []error
	for _, f := range order {
		t, err = parse(f, data)
		if err == nil {
			format = f
			break
		}
		log.Printf("[LOAD][%s][WARN] table=%q %v", strings.ToUpper(f), name, err)
		errs = append(errs, fmt.Errorf("%s: %w", f, err))
	}
	if t == nil {
		return Loaded{}, fmt.Errorf("parse %s: %w", name, errors.Join(errs...))
	}
	t.Name = name

	log.Printf("[LOAD][DONE] table=%q fmt=%s rows=%d cols=%d duration=%s", name, format, len(t.Rows), len(t.Header), time.Since(t0))
	return Loaded{
		Table:  t,
		Format: format,
		SHA256: hex.EncodeToString(sum[:]),
		Bytes:  len(data),
	}, nil
}

func parse(format string, data []byte) (*Table, error) {
	switch format {
	case FormatXLSX:
		return parseXLSX(data)
	case FormatXLS:
		return parseXLS(data)
	case FormatCSV:
		return parseCSV(data)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func parseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	raw := excelize.Options{RawCellValue: true}
	var header []string
	var records [][]string
	for rows.Next() {
		cols, err := rows.Columns(raw)
		if err != nil {
			log.Printf("[LOAD][XLSX][WARN] read row err: %v", err)
			continue
		}
		if header == nil {
			header = cols
			continue
		}
		records = append(records, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	if header == nil {
		return nil, errors.New("xlsx first sheet is empty")
	}
	return build(header, records), nil
}

func parseXLS(data []byte) (t *Table, err error) {
	// extrame/xls panics on some malformed streams.
	defer func() {
		if rec := recover(); rec != nil {
			t, err = nil, fmt.Errorf("xls: %v", rec)
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("xls has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("xls first sheet unreadable")
	}

	var header []string
	var records [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cols := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cols = append(cols, row.Col(c))
		}
		if header == nil {
			header = cols
			continue
		}
		records = append(records, cols)
	}
	if header == nil {
		return nil, errors.New("xls first sheet is empty")
	}
	return build(header, records), nil
}

func parseCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bufio.NewReader(bytes.NewReader(data)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[LOAD][CSV][WARN] read row err: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return build(header, records), nil
}

func build(header []string, records [][]string) *Table {
	h := make([]string, 0, len(header))
	for _, k := range header {
		h = append(h, strings.TrimSpace(k))
	}
	t := &Table{Header: h}
	for _, rec := range records {
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, toMap(h, rec))
	}
	return t
}

func toMap(header []string, row []string) Row {
	m := make(Row, len(header))
	for i, key := range header {
		if key == "" {
			continue
		}
		val := ""
		if i < len(row) {
			val = row[i]
		}
		m[key] = strings.TrimSpace(val)
	}
	return m
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// DetectFormat guesses the spreadsheet format from a path or URL extension and
// then from the MIME type. It returns "" when neither is conclusive.
func DetectFormat(filePath, contentType string) string {
	p := filePath
	if u, err := url.Parse(filePath); err == nil && u != nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	switch ext {
	case FormatXLSX, FormatXLS, FormatCSV:
		return ext
	}
	med, _, _ := mime.ParseMediaType(contentType)
	switch med {
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX
	case "application/vnd.ms-excel":
		return FormatXLS
	case "text/csv", "application/csv", "text/plain":
		return FormatCSV
	}
	return ""
}
