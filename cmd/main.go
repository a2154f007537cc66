package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loan_audit/internal/config"
	"loan_audit/internal/handlers"
	"loan_audit/internal/repository/lookups"
	"loan_audit/internal/repository/runs"
	"loan_audit/internal/repository/tokens"
	"loan_audit/internal/server"
	"loan_audit/internal/services/auditor/pipeline"
)

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := config.Init(setupCtx)
	defer func() {
		closeCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		cfg.Close(closeCtx)
	}()
	fmt.Println("✅ All connections successfully established!")

	if err := cfg.CheckConnections(setupCtx); err != nil {
		log.Fatalf("❌ Connection check failed: %v", err)
	}
	fmt.Println("🟢 All connections OK")

	if err := lookups.EnsureSchema(setupCtx, cfg.Postgres.Pool); err != nil {
		log.Fatalf("❌ Lookup schema: %v", err)
	}
	if cfg.Audit.RequireAuth {
		if err := tokens.EnsureSchema(setupCtx, cfg.Postgres.Pool); err != nil {
			log.Fatalf("❌ Token schema: %v", err)
		}
	}
	if err := runs.EnsureIndexes(setupCtx, cfg.Mongo); err != nil {
		log.Printf("[MAIN][WARN] run indexes: %v", err)
	}

	rules, err := pipeline.LoadRules(cfg.Audit.RulesFile)
	if err != nil {
		log.Fatalf("❌ Rules: %v", err)
	}

	h := handlers.New(cfg.Postgres, cfg.Mongo, cfg.S3, cfg.Audit, rules)
	srv := server.NewServer(cfg.Port, h)

	if err := srv.Run(runCtx); err != nil {
		log.Fatal(err)
	}
}
