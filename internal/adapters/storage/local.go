package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// LocalStore writes results into Dir. A name that is already a path is kept
// as given.
type LocalStore struct{ Dir string }

func NewLocalStore(dir string) *LocalStore { return &LocalStore{Dir: dir} }

func (l *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := name
	if !filepath.IsAbs(p) && filepath.Base(p) == p && l.Dir != "" {
		p = filepath.Join(l.Dir, p)
	}
	if dir := filepath.Dir(p); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		log.Printf("[STORE][FILE][ERR] write: %v", err)
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	log.Printf("[STORE][FILE][OK] path=%q size=%d", p, len(data))
	return p, nil
}
