package main

import (
	"context"
	"log"
	"time"

	"frontdesk/internal/config"
	"frontdesk/internal/database"
	"frontdesk/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := repository.MigrateCheckoutAttempts(db); err != nil {
		log.Fatalf("migrate checkout attempts: %v", err)
	}

	repo := repository.NewCheckoutAttemptRepository(db)
	ctx := context.Background()
	now := time.Now()

	expired, err := repo.ExpireStalePending(ctx, 0, now.Add(-cfg.Checkout.PendingStaleAfter), now)
	if err != nil {
		log.Fatalf("expire stale checkout_attempts failed: %v", err)
	}

	cutoff := now.Add(-cfg.Checkout.AttemptRetention)
	n, err := repo.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		log.Fatalf("cleanup checkout_attempts failed: %v", err)
	}

	// Unknown-outcome attempts are kept; they still guard against double submits.
	log.Printf("attempt cleanup completed: checkout_attempts=%d stale_pending_marked_unknown=%d cutoff=%s", n, expired, cutoff.Format(time.RFC3339))
}
