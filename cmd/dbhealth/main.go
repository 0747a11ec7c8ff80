package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/klinikops/sgk-docflow/internal/common"
	repo "github.com/klinikops/sgk-docflow/internal/repository"
)

func main() {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Printf("ERROR: invalid configuration: %v", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := repo.Open(ctx, cfg.Store.Path, nil)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: closing store: %v", err)
		}
	}()

	if err := repo.HealthCheck(ctx, db, 1*time.Second); err != nil {
		log.Fatalf("store health: FAIL (%v)", err)
	}
	log.Println("store health: OK")

	var patients, documents, quarantined int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM patients").Scan(&patients); err != nil {
		log.Fatalf("counting patients: %v", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&documents); err != nil {
		log.Fatalf("counting documents: %v", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE patient_id IS NULL").Scan(&quarantined); err != nil {
		log.Fatalf("counting quarantined documents: %v", err)
	}

	log.Printf("patients: %d", patients)
	log.Printf("documents: %d (quarantined: %d)", documents, quarantined)
}
