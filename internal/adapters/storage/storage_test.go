package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
)

type fakePutter struct {
	bucket, key, ct string
	body            []byte
	err             error
}

func (f *fakePutter) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	f.bucket, f.key, f.ct = bucketName, objectName, opts.ContentType
	f.body, _ = io.ReadAll(reader)
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

func TestS3StoreSave(t *testing.T) {
	fp := &fakePutter{}
	st := NewS3Store(fp, "audit", "results/")
	loc, err := st.Save(context.Background(), "../KQ_KH_HANOI.xlsx", []byte("wb"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if loc != "s3://audit/results/KQ_KH_HANOI.xlsx" {
		t.Fatalf("unexpected location %q", loc)
	}
	if fp.key != "results/KQ_KH_HANOI.xlsx" || fp.ct != WorkbookContentType || !bytes.Equal(fp.body, []byte("wb")) {
		t.Fatalf("unexpected put %+v", fp)
	}

	fp.err = errors.New("denied")
	if _, err := st.Save(context.Background(), "x.xlsx", nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	st := NewLocalStore(filepath.Join(dir, "out"))

	loc, err := st.Save(context.Background(), "KQ_KH.xlsx", []byte("wb"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if loc != filepath.Join(dir, "out", "KQ_KH.xlsx") {
		t.Fatalf("unexpected location %q", loc)
	}
	b, err := os.ReadFile(loc)
	if err != nil || string(b) != "wb" {
		t.Fatalf("read back: %q %v", b, err)
	}

	explicit := filepath.Join(dir, "other", "report.xlsx")
	loc, err = st.Save(context.Background(), explicit, []byte("x"))
	if err != nil || loc != explicit {
		t.Fatalf("explicit path: %q %v", loc, err)
	}
}
