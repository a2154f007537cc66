package opener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"mime"
	"os"
	"path/filepath"

	"loan_audit/internal/ports"
)

// LocalOpener reads files from disk, resolving relative paths against Root.
type LocalOpener struct{ Root string }

func NewLocalOpener(root string) *LocalOpener { return &LocalOpener{Root: root} }

func (l *LocalOpener) Open(ctx context.Context, p string) (io.ReadCloser, ports.Meta, error) {
	if err := ctx.Err(); err != nil {
		return nil, ports.Meta{}, err
	}
	full := p
	if !filepath.IsAbs(full) && l.Root != "" {
		full = filepath.Join(l.Root, full)
	}
	log.Printf("[OPENER][FILE][START] path=%q", full)
	f, err := os.Open(full)
	if err != nil {
		log.Printf("[OPENER][FILE][ERR] open: %v", err)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.Meta{}, fmt.Errorf("%w: %s", ErrNotFound, full)
		}
		return nil, ports.Meta{}, fmt.Errorf("open %s: %w", full, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ports.Meta{}, fmt.Errorf("stat %s: %w", full, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, ports.Meta{}, fmt.Errorf("%s is a directory", full)
	}
	ct := mime.TypeByExtension(filepath.Ext(full))
	log.Printf("[OPENER][FILE][OK] content_type=%q size=%d", ct, st.Size())
	return f, ports.Meta{
		Source:      "file",
		ContentType: ct,
		Size:        st.Size(),
		Path:        full,
	}, nil
}
