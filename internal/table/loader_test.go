package table

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func xlsxBytes(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoadXLSX(t *testing.T) {
	data := xlsxBytes(t,
		[]any{" CIF_KH_VAY ", "DU_NO_PHAN_BO_QUY_DOI", "LOAI"},
		[]any{"C1", 1500, "Cho vay"},
		[]any{nil, nil, nil},
		[]any{"C2", 12.5, " Bao lanh "},
	)
	got, err := Load(context.Background(), "collateral", bytes.NewReader(data), "s3://bucket/in/crm4.xlsx", "")
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, got.Format)
	require.Equal(t, len(data), got.Bytes)
	require.Len(t, got.SHA256, 64)

	tbl := got.Table
	require.Equal(t, "collateral", tbl.Name)
	require.Equal(t, []string{"CIF_KH_VAY", "DU_NO_PHAN_BO_QUY_DOI", "LOAI"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	require.Equal(t, "1500", tbl.Rows[0].Get("DU_NO_PHAN_BO_QUY_DOI"))
	require.Equal(t, "12.5", tbl.Rows[1].Get("DU_NO_PHAN_BO_QUY_DOI"))
	require.Equal(t, "Bao lanh", tbl.Rows[1].Get("LOAI"))
}

func TestLoadCSVWithBOM(t *testing.T) {
	src := "\xef\xbb\xbfFORACID,NOTE\n K1 ,a\n\n\"K2\",\"b, c\"\nK3\n"
	got, err := Load(context.Background(), "cash", strings.NewReader(src), "cash.csv", "")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, got.Format)
	require.Equal(t, []string{"FORACID", "NOTE"}, got.Table.Header)
	require.Len(t, got.Table.Rows, 3)
	require.Equal(t, "K1", got.Table.Rows[0].Get("FORACID"))
	require.Equal(t, "b, c", got.Table.Rows[1].Get("NOTE"))
	require.Equal(t, "", got.Table.Rows[2].Get("NOTE"))
}

func TestLoadSniffsUnknownFormat(t *testing.T) {
	got, err := Load(context.Background(), "cash", strings.NewReader("FORACID\nK1\n"), "upload", "application/octet-stream")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, got.Format)
	require.Len(t, got.Table.Rows, 1)

	data := xlsxBytes(t, []any{"A"}, []any{"x"})
	got, err = Load(context.Background(), "any", bytes.NewReader(data), "", "")
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, got.Format)
}

func TestLoadRejectsUnreadable(t *testing.T) {
	_, err := Load(context.Background(), "collateral", strings.NewReader("not a zip"), "crm4.xls", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "collateral")
}

func TestLoadHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, "x", strings.NewReader("A\n1\n"), "x.csv", "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		path, ct, want string
	}{
		{"data/CRM4.XLSX", "", FormatXLSX},
		{"https://host/files/a.xls?sig=1", "", FormatXLS},
		{"s3://bucket/key.csv", "", FormatCSV},
		{"upload", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX},
		{"upload", "application/vnd.ms-excel", FormatXLS},
		{"upload", "text/csv; charset=utf-8", FormatCSV},
		{"upload", "application/octet-stream", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, DetectFormat(c.path, c.ct), c.path+" "+c.ct)
	}
}
