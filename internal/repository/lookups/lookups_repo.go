package lookups

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"loan_audit/internal/config/connections/postgres"
	"loan_audit/internal/ports"
)

const (
	CollateralTypesTable = "collateral_type_codes"
	PurposeGroupsTable   = "purpose_group_codes"
)

// Querier is the subset of pgxpool.Pool the repo needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type cached struct {
	rows []ports.CodeMapping
	at   time.Time
}

// Repo reads the code maps maintained in Postgres. Results are cached for TTL.
type Repo struct {
	db  Querier
	TTL time.Duration

	mu    sync.Mutex
	cache map[string]cached
}

func NewRepo(pg *postgres.Postgres) *Repo {
	var db Querier
	if pg != nil && pg.Pool != nil {
		db = pg.Pool
	}
	return NewRepoWith(db)
}

func NewRepoWith(db Querier) *Repo {
	return &Repo{
		db:    db,
		TTL:   10 * time.Minute,
		cache: make(map[string]cached),
	}
}

func (r *Repo) CollateralTypes(ctx context.Context) ([]ports.CodeMapping, error) {
	return r.load(ctx, CollateralTypesTable)
}

func (r *Repo) PurposeGroups(ctx context.Context) ([]ports.CodeMapping, error) {
	return r.load(ctx, PurposeGroupsTable)
}

func (r *Repo) load(ctx context.Context, table string) ([]ports.CodeMapping, error) {
	if r.db == nil {
		return nil, fmt.Errorf("postgres not initialized")
	}
	r.mu.Lock()
	if c, ok := r.cache[table]; ok && time.Since(c.at) < r.TTL {
		r.mu.Unlock()
		return c.rows, nil
	}
	r.mu.Unlock()

	rows, err := r.db.Query(ctx, `SELECT code, value FROM `+table+` ORDER BY id`)
	if err != nil {
		log.Printf("[LOOKUP][ERR] table=%s query: %v", table, err)
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []ports.CodeMapping
	for rows.Next() {
		var m ports.CodeMapping
		if err := rows.Scan(&m.Code, &m.Value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		m.Code = strings.TrimSpace(m.Code)
		m.Value = strings.TrimSpace(m.Value)
		if m.Code == "" {
			continue
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}

	r.mu.Lock()
	r.cache[table] = cached{rows: out, at: time.Now()}
	r.mu.Unlock()
	log.Printf("[LOOKUP][OK] table=%s rows=%d", table, len(out))
	return out, nil
}

func tableFor(kind string) (string, bool) {
	switch kind {
	case ports.LookupCollateralTypes:
		return CollateralTypesTable, true
	case ports.LookupPurposeGroups:
		return PurposeGroupsTable, true
	}
	return "", false
}

// Replace swaps the whole content of one lookup in a single transaction.
func (r *Repo) Replace(ctx context.Context, kind string, rows []ports.CodeMapping) (int, error) {
	table, ok := tableFor(kind)
	if !ok {
		return 0, fmt.Errorf("unknown lookup %q", kind)
	}
	if r.db == nil {
		return 0, fmt.Errorf("postgres not initialized")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}

	batch := &pgx.Batch{}
	for _, m := range dedupe(rows) {
		batch.Queue(`INSERT INTO `+table+` (code, value) VALUES ($1, $2)`, m.Code, m.Value)
	}
	n := batch.Len()
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("insert %s row %d: %w", table, i+1, err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	r.mu.Lock()
	delete(r.cache, table)
	r.mu.Unlock()
	log.Printf("[LOOKUP][REPLACE] table=%s rows=%d", table, n)
	return n, nil
}

// dedupe trims codes and keeps the first mapping of each code.
func dedupe(rows []ports.CodeMapping) []ports.CodeMapping {
	seen := make(map[string]bool, len(rows))
	out := make([]ports.CodeMapping, 0, len(rows))
	for _, m := range rows {
		m.Code = strings.TrimSpace(m.Code)
		m.Value = strings.TrimSpace(m.Value)
		if m.Code == "" || m.Value == "" || seen[m.Code] {
			continue
		}
		seen[m.Code] = true
		out = append(out, m)
	}
	return out
}

var (
	_ ports.LookupSource = (*Repo)(nil)
	_ ports.LookupWriter = (*Repo)(nil)
)
