package handlers

import (
	"context"
	"net/http"
	"time"
)

type healthResp struct {
	OK       bool              `json:"ok"`
	Services map[string]string `json:"services"`
	Errors   []string          `json:"errors,omitempty"`
}

// Health pings every backing service: postgres holds the lookup tables,
// mongo the run journal and s3 the inputs and results.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp := healthResp{Services: map[string]string{}}
	mark := func(name string, err string) {
		if err == "" {
			resp.Services[name] = "ok"
			return
		}
		resp.Services[name] = "down"
		resp.Errors = append(resp.Errors, name+": "+err)
	}

	switch {
	case h.Postgres == nil || h.Postgres.Pool == nil:
		mark("postgres", "not initialized")
	default:
		if err := h.Postgres.Pool.Ping(ctx); err != nil {
			mark("postgres", "ping failed: "+err.Error())
		} else {
			mark("postgres", "")
		}
	}

	switch {
	case h.Mongo == nil || h.Mongo.Client == nil:
		mark("mongo", "not initialized")
	default:
		if err := h.Mongo.Client.Ping(ctx, nil); err != nil {
			mark("mongo", "ping failed: "+err.Error())
		} else {
			mark("mongo", "")
		}
	}

	switch {
	case h.S3 == nil || h.S3.Client == nil:
		mark("s3", "not initialized")
	default:
		ok, err := h.S3.Client.BucketExists(ctx, h.S3.Bucket)
		switch {
		case err != nil:
			mark("s3", "bucket check failed: "+err.Error())
		case !ok:
			mark("s3", `bucket "`+h.S3.Bucket+`" not found`)
		default:
			mark("s3", "")
		}
	}

	resp.OK = len(resp.Errors) == 0
	code := http.StatusOK
	if !resp.OK {
		code = http.StatusServiceUnavailable
	}
	h.JSON(w, code, resp)
}
