package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"loan_audit/internal/table"
)

// Upload accepts multipart/form-data with a `file` field and stores the ledger
// export in S3 under uploads/. The returned path can be passed to /audit.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		h.JSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "use POST"})
		return
	}
	if h.S3 == nil || h.S3.Client == nil {
		h.JSON(w, http.StatusServiceUnavailable, map[string]any{"error": "s3 not initialized"})
		return
	}

	if err := r.ParseMultipartForm(128 << 20); err != nil {
		h.Logger.Printf("[UPLOAD][ERR] parse multipart: %v", err)
		h.JSON(w, http.StatusBadRequest, map[string]any{"error": "bad multipart: " + err.Error()})
		return
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		h.Logger.Printf("[UPLOAD][ERR] missing file: %v", err)
		h.JSON(w, http.StatusBadRequest, map[string]any{"error": "file is required"})
		return
	}
	defer f.Close()

	fname := path.Base(fh.Filename)
	if table.DetectFormat(fname, fh.Header.Get("Content-Type")) == "" {
		h.JSON(w, http.StatusBadRequest, map[string]any{"error": "expected an .xlsx, .xls or .csv file"})
		return
	}

	prefix := "uploads"
	if slot := strings.TrimSpace(r.FormValue("slot")); slot != "" {
		prefix = path.Join(prefix, path.Base(slot))
	}
	key := fmt.Sprintf("%s/%d-%s", prefix, time.Now().UnixNano(), fname)

	size := fh.Size
	if size <= 0 {
		size = -1
	}

	info, err := h.S3.Client.PutObject(r.Context(), h.S3.Bucket, key, f, size, minio.PutObjectOptions{ContentType: fh.Header.Get("Content-Type")})
	if err != nil {
		h.Logger.Printf("[UPLOAD][ERR] s3 put: %v", err)
		h.JSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to store file: " + err.Error()})
		return
	}
	h.Logger.Printf("[UPLOAD][OK] bucket=%q key=%q size=%d", h.S3.Bucket, key, info.Size)

	w.Header().Set("Access-Control-Allow-Origin", "*")
	h.JSON(w, http.StatusCreated, map[string]any{
		"path": fmt.Sprintf("s3://%s/%s", h.S3.Bucket, key),
		"size": info.Size,
	})
}
