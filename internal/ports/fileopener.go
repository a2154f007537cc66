package ports

import (
	"context"
	"io"
)

type Meta struct {
	Source      string
	ContentType string
	Size        int64
	Bucket      string
	Key         string
	Path        string
}

type FileOpener interface {
	Open(ctx context.Context, filePath string) (io.ReadCloser, Meta, error)
}

// ResultStore persists a finished workbook and returns where it was written.
type ResultStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}
