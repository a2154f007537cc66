package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"loan_audit/internal/repository/tokens"
)

type ctxKey string

const OwnerKey ctxKey = "tokenOwner"

type TokenRepo interface {
	FindByPlain(ctx context.Context, plain string) (*tokens.Token, error)
}

func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); t != "" {
			return t
		}
	}
	return r.URL.Query().Get("token")
}

// Require rejects requests whose bearer token is unknown, expired or lacks
// ability. The token owner is stored in the request context.
func Require(repo TokenRepo, ability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflight
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			plain := bearer(r)
			if plain == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			tok, err := repo.FindByPlain(r.Context(), plain)
			if err != nil || tok == nil {
				if err != nil && !errors.Is(err, tokens.ErrTokenNotFound) {
					log.Printf("[AUTH][ERR] token lookup: %v", err)
				}
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if tok.ExpiresAt != nil && tok.ExpiresAt.Before(time.Now()) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}
			if !tok.Can(ability) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), OwnerKey, tok.Owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetOwner(ctx context.Context) (string, error) {
	v, ok := ctx.Value(OwnerKey).(string)
	if !ok || v == "" {
		return "", errors.New("token owner not found in context")
	}
	return v, nil
}
