package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"loan_audit/internal/adapters/opener"
	"loan_audit/internal/adapters/storage"
	"loan_audit/internal/config"
	"loan_audit/internal/config/connections/mongo"
	"loan_audit/internal/config/connections/postgres"
	"loan_audit/internal/config/connections/s3"
	"loan_audit/internal/ports"
	"loan_audit/internal/repository/lookups"
	"loan_audit/internal/repository/runs"
	"loan_audit/internal/repository/tokens"
	"loan_audit/internal/services/auditor"
	"loan_audit/internal/services/auditor/pipeline"
	"loan_audit/internal/transport/auth"
)

// RunStore keeps the run records the HTTP layer reads and creates.
type RunStore interface {
	Insert(ctx context.Context, rec runs.Run) (string, error)
	Find(ctx context.Context, id string) (runs.Run, error)
	Items(ctx context.Context, id string) ([]runs.Item, error)
	List(ctx context.Context, branch string, limit, skip int64) ([]runs.Run, int64, error)
}

type Handlers struct {
	Postgres *postgres.Postgres
	Mongo    *mongo.Mongo
	S3       *s3.S3
	HTTP     *http.Client

	Audit   config.Audit
	Service *auditor.Service
	Runs    RunStore
	Lookups ports.LookupWriter
	// Tokens is nil when the API runs without authentication.
	Tokens auth.TokenRepo

	Logger *log.Logger

	bg sync.WaitGroup
}

func New(pg *postgres.Postgres, mg *mongo.Mongo, s3c *s3.S3, audit config.Audit, rules pipeline.Rules) *Handlers {
	httpClient := &http.Client{}

	httpOp := opener.NewHTTPOpener(httpClient)
	httpOp.MaxSize = audit.MaxInputBytes
	s3Op := opener.NewS3Opener(s3c.Client)
	s3Op.MaxSize = audit.MaxInputBytes
	compound := opener.NewCompoundOpener(httpOp, s3Op, nil, s3c.Bucket)
	store := storage.NewS3Store(s3c.Client, s3c.Bucket, audit.ResultsPrefix)
	lk := lookups.NewRepo(pg)

	svc := auditor.NewService(compound, store, lk, runs.NewRecorder(mg), rules)
	svc.AssessmentDate = audit.AssessmentDate

	h := &Handlers{
		Postgres: pg,
		Mongo:    mg,
		S3:       s3c,
		HTTP:     httpClient,
		Audit:    audit,
		Service:  svc,
		Runs:     runs.NewStore(mg),
		Lookups:  lk,
		Logger:   log.Default(),
	}
	if audit.RequireAuth {
		h.Tokens = tokens.NewRepo(pg)
	}
	return h
}

// Wait blocks until every background run has returned.
func (h *Handlers) Wait() { h.bg.Wait() }

func (h *Handlers) JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

var _ RunStore = (*runs.Store)(nil)
