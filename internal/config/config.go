package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"loan_audit/internal/config/connections/mongo"
	"loan_audit/internal/config/connections/postgres"
	"loan_audit/internal/config/connections/s3"
)

// Audit holds the settings of the audit itself, independent of any backend.
type Audit struct {
	AssessmentDate time.Time
	RulesFile      string
	ResultsPrefix  string
	Timeout        time.Duration
	// MaxInputBytes caps every downloaded input file; zero disables the cap.
	MaxInputBytes int64
	// RequireAuth guards the mutating endpoints with api_tokens bearer tokens.
	RequireAuth bool
}

type Config struct {
	Port     string
	Audit    Audit
	S3       *s3.S3
	Mongo    *mongo.Mongo
	Postgres *postgres.Postgres
}

// LoadAudit reads the audit settings from the environment (and .env).
func LoadAudit() (Audit, error) {
	_ = godotenv.Load()

	a := Audit{
		RulesFile:     os.Getenv("AUDIT_RULES_FILE"),
		ResultsPrefix: getenv("AUDIT_RESULTS_PREFIX", "results/"),
		Timeout:       15 * time.Minute,
		RequireAuth:   getenv("AUDIT_REQUIRE_AUTH", "false") == "true",
		MaxInputBytes: int64(getenvInt("AUDIT_MAX_INPUT_MB", 200)) << 20,
	}

	raw := getenv("AUDIT_ASSESSMENT_DATE", "2025-03-31")
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return a, fmt.Errorf("AUDIT_ASSESSMENT_DATE %q: %w", raw, err)
	}
	a.AssessmentDate = d

	if v := os.Getenv("AUDIT_TIMEOUT_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return a, fmt.Errorf("AUDIT_TIMEOUT_MINUTES %q: must be a positive integer", v)
		}
		a.Timeout = time.Duration(n) * time.Minute
	}
	return a, nil
}

func Init(ctx context.Context) *Config {
	audit, err := LoadAudit()
	if err != nil {
		log.Fatal("Audit config error:", err)
	}
	port := getenv("SERVER_PORT", "8070")

	s3c, err := s3.NewConnection(s3.ConnectionInfo{
		Endpoint:  getenv("AWS_ENDPOINT", "localhost:9000"),
		AccessKey: getenv("AWS_ACCESS_KEY_ID", "minioadmin"),
		SecretKey: getenv("AWS_SECRET_ACCESS_KEY", "minioadmin"),
		Region:    getenv("AWS_DEFAULT_REGION", "us-east-1"),
		Bucket:    getenv("AWS_BUCKET", "loan-audit"),
		UseSSL:    getenv("AWS_USE_SSL", "false") == "true",
	})
	if err != nil {
		log.Fatal("S3 connect error:", err)
	}

	mg, err := mongo.NewConnection(ctx, mongo.ConnectionInfo{
		Scheme:     getenv("MONGO_SCHEME", "mongodb"),
		User:       getenv("MONGO_USER", "root"),
		Password:   getenv("MONGO_PASSWORD", "secret"),
		Host:       getenv("MONGO_HOST", "127.0.0.1"),
		Port:       getenv("MONGO_PORT", "27017"),
		DB:         getenv("MONGO_DB", "loan_audit"),
		AuthSource: getenv("MONGO_AUTH_SOURCE", "admin"),
		AppName:    "loan_audit",
	})
	if err != nil {
		log.Fatal("Mongo connect error:", err)
	}

	pg, err := postgres.NewConnection(ctx, postgres.ConnectionInfo{
		Host:     getenv("PG_HOST", "127.0.0.1"),
		Port:     getenv("PG_PORT", "5432"),
		User:     getenv("PG_USER", "root"),
		Password: getenv("PG_PASSWORD", "secret"),
		DB:       getenv("PG_DB", "loan_audit"),
		SSLMode:  getenv("PG_SSLMODE", "disable"),
		MaxConns: int32(getenvInt("PG_MAX_CONNS", 8)),
	})
	if err != nil {
		log.Fatal("Postgres connect error:", err)
	}

	return &Config{
		Port:     port,
		Audit:    audit,
		S3:       s3c,
		Mongo:    mg,
		Postgres: pg,
	}
}

func (c *Config) CheckConnections(ctx context.Context) error {
	var errs []error

	if c.Postgres == nil || c.Postgres.Pool == nil {
		errs = append(errs, errors.New("postgres not initialized"))
	} else if err := c.Postgres.Pool.Ping(ctx); err != nil {
		errs = append(errs, fmt.Errorf("postgres ping failed: %w", err))
	}

	if c.Mongo == nil || c.Mongo.Client == nil {
		errs = append(errs, errors.New("mongo not initialized"))
	} else if err := c.Mongo.Client.Ping(ctx, nil); err != nil {
		errs = append(errs, fmt.Errorf("mongo ping failed: %w", err))
	}

	if c.S3 == nil || c.S3.Client == nil {
		errs = append(errs, errors.New("s3 not initialized"))
	} else if err := c.S3.EnsureBucket(ctx); err != nil {
		errs = append(errs, fmt.Errorf("s3 bucket %q: %w", c.S3.Bucket, err))
	}

	if len(errs) == 0 {
		return nil
	}

	return errors.Join(errs...)
}

func (c *Config) Close(ctx context.Context) {
	if c.Mongo != nil {
		if err := c.Mongo.Close(ctx); err != nil {
			log.Printf("[CONFIG][MONGO][ERR] close: %v", err)
		}
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
}

func getenvInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
