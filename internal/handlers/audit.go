package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"loan_audit/internal/repository/runs"
	"loan_audit/internal/services/auditor"
	"loan_audit/internal/transport/auth"
)

type auditRequest struct {
	Branch         string         `json:"branch"`
	AuditedRegion  string         `json:"audited_region"`
	AssessmentDate string         `json:"assessment_date,omitempty"`
	Inputs         auditor.Inputs `json:"inputs"`
	OutputName     string         `json:"output_name,omitempty"`
	TimeoutMin     int            `json:"timeout_minutes,omitempty"`
}

// StartAudit validates the request, records a queued run and executes it in the
// background.
func (h *Handlers) StartAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
		return
	}

	var req auditRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		h.Logger.Printf("[AUDIT][REQ][ERR] bad JSON: %v", err)
		h.JSON(w, http.StatusBadRequest, map[string]string{"error": "bad JSON: " + err.Error()})
		return
	}

	var date time.Time
	if s := strings.TrimSpace(req.AssessmentDate); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.JSON(w, http.StatusBadRequest, map[string]string{"error": "assessment_date must be YYYY-MM-DD"})
			return
		}
		date = d
	}

	runReq := auditor.Request{
		RunID:          uuid.NewString(),
		Branch:         strings.ToUpper(strings.TrimSpace(req.Branch)),
		AuditedRegion:  strings.TrimSpace(req.AuditedRegion),
		AssessmentDate: date,
		Inputs:         req.Inputs,
		OutputName:     req.OutputName,
	}
	if err := runReq.Validate(); err != nil {
		h.Logger.Printf("[AUDIT][REQ][ERR] %v", err)
		h.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	effective := date
	if effective.IsZero() {
		effective = h.Audit.AssessmentDate
	}
	rec := runs.Run{
		ID:            runReq.RunID,
		Status:        runs.StatusQueued,
		Branch:        runReq.Branch,
		AuditedRegion: runReq.AuditedRegion,
		Inputs:        runReq.Inputs.Paths(),
	}
	if owner, err := auth.GetOwner(r.Context()); err == nil {
		rec.RequestedBy = owner
	}
	if !effective.IsZero() {
		rec.AssessmentDate = effective.Format("2006-01-02")
	}
	if _, err := h.Runs.Insert(r.Context(), rec); err != nil {
		h.Logger.Printf("[AUDIT][REQ][ERR] db insert: %v", err)
		h.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	timeout := h.Audit.Timeout
	if req.TimeoutMin > 0 {
		timeout = time.Duration(req.TimeoutMin) * time.Minute
	}
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}

	h.bg.Add(1)
	go func() {
		defer h.bg.Done()
		start := time.Now()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		res, err := h.Service.Run(ctx, runReq)
		if err != nil {
			h.Logger.Printf("[AUDIT][ERR][BG] run_id=%s branch=%q err=%v took=%s",
				runReq.RunID, runReq.Branch, err, time.Since(start))
			return
		}
		h.Logger.Printf("[AUDIT][OK][BG] run_id=%s branch=%q customers=%d warnings=%d output=%q took=%s",
			runReq.RunID, runReq.Branch, res.Customers, len(res.Warnings), res.Output, time.Since(start))
	}()

	h.JSON(w, http.StatusAccepted, map[string]any{
		"status": "started",
		"run_id": runReq.RunID,
		"branch": runReq.Branch,
	})
}

// AuditStatus returns one run record with its journal.
func (h *Handlers) AuditStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use GET"})
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		h.JSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	run, err := h.Runs.Find(r.Context(), id)
	if err != nil {
		h.JSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	items, err := h.Runs.Items(r.Context(), id)
	if err != nil {
		h.Logger.Printf("[AUDIT][STATUS][WARN] run_id=%s items: %v", id, err)
	}
	h.JSON(w, http.StatusOK, map[string]any{"run": run, "items": items})
}

// AuditRuns lists recent runs, optionally for one branch.
func (h *Handlers) AuditRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use GET"})
		return
	}
	q := r.URL.Query()
	limit := parseInt(q.Get("limit"), 50)
	skip := parseInt(q.Get("skip"), 0)
	branch := strings.ToUpper(strings.TrimSpace(q.Get("branch")))

	list, total, err := h.Runs.List(r.Context(), branch, limit, skip)
	if err != nil {
		h.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"runs": list, "total": total})
}

func parseInt(s string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n
}
