package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"loan_audit/internal/adapters/opener"
	"loan_audit/internal/services/auditor"
	"loan_audit/internal/services/auditor/pipeline"
)

type lookupRequest struct {
	Kind     string `json:"kind"`
	FilePath string `json:"file_path"`
}

// ImportLookup replaces one stored code mapping with the content of file_path.
func (h *Handlers) ImportLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
		return
	}
	if h.Lookups == nil {
		h.JSON(w, http.StatusServiceUnavailable, map[string]string{"error": "lookup store not configured"})
		return
	}

	var req lookupRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.JSON(w, http.StatusBadRequest, map[string]string{"error": "bad JSON: " + err.Error()})
		return
	}
	req.Kind = strings.TrimSpace(req.Kind)
	req.FilePath = strings.TrimSpace(req.FilePath)
	if req.FilePath == "" {
		h.JSON(w, http.StatusBadRequest, map[string]string{"error": "file_path is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	n, err := h.Service.ImportLookup(ctx, h.Lookups, req.Kind, req.FilePath)
	switch {
	case err == nil:
	case errors.Is(err, auditor.ErrUnknownLookup), errors.Is(err, pipeline.ErrMissingColumn):
		h.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, opener.ErrNotFound):
		h.JSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	default:
		h.Logger.Printf("[LOOKUP][ERR] kind=%s path=%q: %v", req.Kind, req.FilePath, err)
		h.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.JSON(w, http.StatusOK, map[string]any{"kind": req.Kind, "rows": n})
}
