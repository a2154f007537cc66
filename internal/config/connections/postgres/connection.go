package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ConnectionInfo struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	// MaxConns caps the pool; zero keeps the pgx default.
	MaxConns int32
}

type Postgres struct {
	Pool *pgxpool.Pool
}

var quote = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func (info ConnectionInfo) DSN() string {
	sslmode := info.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password='%s' dbname=%s sslmode=%s application_name=loan_audit",
		info.Host, info.Port, info.User, quote.Replace(info.Password), info.DB, sslmode,
	)
}

func NewConnection(ctx context.Context, info ConnectionInfo) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(info.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	if info.MaxConns > 0 {
		cfg.MaxConns = info.MaxConns
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}
