package tokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"loan_audit/internal/config/connections/postgres"
)

const Table = "api_tokens"

// Abilities granted to tokens. "*" grants every ability.
const (
	AbilityAll     = "*"
	AbilityAudit   = "audit:run"
	AbilityLookups = "lookups:write"
	AbilityUpload  = "upload"
)

var ErrTokenNotFound = errors.New("token not found")

type Token struct {
	ID        int64
	Hash      string
	Owner     string
	Abilities []string
	ExpiresAt *time.Time
}

// Can reports whether the token grants ability.
func (t *Token) Can(ability string) bool {
	for _, a := range t.Abilities {
		if a == AbilityAll || a == ability {
			return true
		}
	}
	return false
}

type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct {
	db Querier
}

func NewRepo(pg *postgres.Postgres) *Repo {
	if pg == nil || pg.Pool == nil {
		return &Repo{}
	}
	return &Repo{db: pg.Pool}
}

func NewRepoWith(db Querier) *Repo { return &Repo{db: db} }

// splitToken accepts "<id>|<secret>" as well as a bare secret.
func splitToken(plain string) (id *int64, secret string) {
	if idx := strings.Index(plain, "|"); idx > 0 {
		if n, err := strconv.ParseInt(plain[:idx], 10, 64); err == nil {
			return &n, plain[idx+1:]
		}
	}
	return nil, plain
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func parseAbilities(raw string) []string {
	var out []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// FindByPlain resolves a bearer token to its stored record. Only sha256 hashes
// are stored; expired tokens are not returned.
func (r *Repo) FindByPlain(ctx context.Context, plain string) (*Token, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil, errors.New("empty token")
	}
	if r.db == nil {
		return nil, errors.New("tokens: postgres not initialized")
	}

	id, secret := splitToken(plain)
	hash := hashSecret(secret)

	var (
		t         Token
		abilities string
		row       pgx.Row
	)
	if id != nil {
		row = r.db.QueryRow(ctx, `
            SELECT id, token_hash, owner, abilities, expires_at
            FROM `+Table+`
            WHERE id = $1 AND token_hash = $2
              AND (expires_at IS NULL OR expires_at > $3)
        `, *id, hash, time.Now())
	} else {
		row = r.db.QueryRow(ctx, `
            SELECT id, token_hash, owner, abilities, expires_at
            FROM `+Table+`
            WHERE token_hash = $1
              AND (expires_at IS NULL OR expires_at > $2)
            ORDER BY id DESC
            LIMIT 1
        `, hash, time.Now())
	}

	if err := row.Scan(&t.ID, &t.Hash, &t.Owner, &abilities, &t.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		log.Printf("[TOKEN][ERR] lookup: %v", err)
		return nil, err
	}
	t.Abilities = parseAbilities(abilities)
	return &t, nil
}
