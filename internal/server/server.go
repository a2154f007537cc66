package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"loan_audit/internal/handlers"
	"loan_audit/internal/repository/tokens"
	"loan_audit/internal/transport/auth"
)

type Server struct {
	httpServer *http.Server
	h          *handlers.Handlers
}

func NewServer(port string, h *handlers.Handlers) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      Routes(h),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		h: h,
	}
}

// Routes registers the API. Mutating endpoints require a token with the
// matching ability when h.Tokens is set.
func Routes(h *handlers.Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	if h == nil {
		return mux
	}

	guard := func(ability string, fn http.HandlerFunc) http.Handler {
		if h.Tokens == nil {
			return fn
		}
		return auth.Require(h.Tokens, ability)(fn)
	}

	mux.HandleFunc("/health", h.Health)
	mux.Handle("/upload", guard(tokens.AbilityUpload, h.Upload))
	mux.Handle("/audit", guard(tokens.AbilityAudit, h.StartAudit))
	mux.HandleFunc("/audit/status", h.AuditStatus)
	mux.HandleFunc("/audit/runs", h.AuditRuns)
	mux.Handle("/lookups", guard(tokens.AbilityLookups, h.ImportLookup))
	return mux
}

// Run serves until ctx is cancelled, then shuts down and waits for the
// audits still running in the background.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.httpServer.Shutdown(shCtx)
		if s.h != nil {
			log.Printf("[SERVER][STOP] waiting for background audits")
			s.h.Wait()
		}
		return err
	case err := <-errCh:
		return err
	}
}
