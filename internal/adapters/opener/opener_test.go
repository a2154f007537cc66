package opener

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestParseS3URL(t *testing.T) {
	bkt, key, err := parseS3URL("s3://audit/inputs/2025/crm4.xlsx")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if bkt != "audit" || key != "inputs/2025/crm4.xlsx" {
		t.Fatalf("got bucket=%q key=%q", bkt, key)
	}

	for _, bad := range []string{"s3://audit", "s3:///key", "http://audit/key"} {
		if _, _, err := parseS3URL(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestLocalOpener(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cash.csv"), []byte("FORACID\nK1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	op := NewLocalOpener(dir)
	rc, meta, err := op.Open(context.Background(), "cash.csv")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "FORACID\nK1\n" {
		t.Fatalf("unexpected content %q", b)
	}
	if meta.Source != "file" || meta.Size != int64(len(b)) || meta.Path != filepath.Join(dir, "cash.csv") {
		t.Fatalf("unexpected meta %+v", meta)
	}

	if _, _, err := op.Open(context.Background(), "missing.xlsx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := op.Open(context.Background(), "."); err == nil {
		t.Fatalf("expected error for directory")
	}
}

func TestCompoundOpenerRouting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(path, []byte("A\n1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewCompoundOpener(nil, nil, NewLocalOpener(""), "")
	for _, p := range []string{path, "file://" + path} {
		rc, meta, err := c.Open(context.Background(), p)
		if err != nil {
			t.Fatalf("open %q: %v", p, err)
		}
		rc.Close()
		if meta.Source != "file" {
			t.Fatalf("expected local source for %q, got %q", p, meta.Source)
		}
	}

	if _, _, err := c.Open(context.Background(), "s3://bucket/key.xlsx"); err == nil {
		t.Fatalf("expected error without s3 opener")
	}
	if _, _, err := c.Open(context.Background(), "https://example.com/a.xlsx"); err == nil {
		t.Fatalf("expected error without http opener")
	}
	if _, _, err := c.Open(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty path")
	}

	none := NewCompoundOpener(nil, nil, nil, "")
	if _, _, err := none.Open(context.Background(), "a.csv"); err == nil {
		t.Fatalf("expected error without any opener")
	}
}

func TestHTTPOpener(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/signed":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("Content-Disposition", `attachment; filename="CRM32.xlsx"`)
			_, _ = w.Write([]byte("data"))
		case "/boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	op := NewHTTPOpener(srv.Client())
	rc, meta, err := op.Open(context.Background(), srv.URL+"/signed")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rc.Close()
	if meta.Path != "CRM32.xlsx" {
		t.Fatalf("expected attachment name, got %q", meta.Path)
	}

	if _, _, err := op.Open(context.Background(), srv.URL+"/nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := op.Open(context.Background(), srv.URL+"/boom"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected plain status error, got %v", err)
	}
}

func TestHTTPOpenerSizeLimit(t *testing.T) {
	body := strings.Repeat("x", 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/chunked" {
			// no Content-Length: the cap has to trip while streaming
			w.(http.Flusher).Flush()
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	op := NewHTTPOpener(srv.Client())
	op.MaxSize = 16

	if _, _, err := op.Open(context.Background(), srv.URL+"/sized"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge from Content-Length, got %v", err)
	}

	rc, _, err := op.Open(context.Background(), srv.URL+"/chunked")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	if _, err := io.ReadAll(rc); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge while reading, got %v", err)
	}

	op.MaxSize = 64
	rc, _, err = op.Open(context.Background(), srv.URL+"/chunked")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	if b, err := io.ReadAll(rc); err != nil || len(b) != 64 {
		t.Fatalf("read at the limit: n=%d err=%v", len(b), err)
	}
}

type fakeS3 struct {
	info    minio.ObjectInfo
	statErr error
	gets    int
}

func (f *fakeS3) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return f.info, f.statErr
}

func (f *fakeS3) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (*minio.Object, error) {
	f.gets++
	return nil, errors.New("get not expected")
}

func TestS3OpenerChecksBeforeDownload(t *testing.T) {
	fake := &fakeS3{info: minio.ObjectInfo{Size: 100}}
	op := NewS3Opener(fake)

	if _, _, err := op.Open(context.Background(), "audit", "inputs/"); err == nil {
		t.Fatalf("expected error for a folder key")
	}

	op.MaxSize = 10
	if _, _, err := op.Open(context.Background(), "audit", "crm4.xlsx"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	fake.statErr = minio.ErrorResponse{Code: "NoSuchKey"}
	if _, _, err := op.Open(context.Background(), "audit", "crm4.xlsx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if fake.gets != 0 {
		t.Fatalf("nothing should be downloaded, got %d gets", fake.gets)
	}

	if _, _, err := NewS3Opener(nil).Open(context.Background(), "audit", "crm4.xlsx"); err == nil {
		t.Fatalf("expected error without a client")
	}
}
