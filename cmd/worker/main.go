package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asistencia/internal/attendance"
	"asistencia/internal/config"
	"asistencia/internal/queue"
	"asistencia/internal/store"
)

// Worker finalizes employee removals. The API moves a deactivated employee
// into the deletion queue and publishes a baja message; this process marks
// the queue entry processed once downstream cleanup is done.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "asistencia:bajas")
	}

	repo := attendance.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for bajas...")
	for msg := range messages {
		if msg.Type != "baja" {
			continue
		}

		id := string(msg.Body)
		log.Printf("processing baja %s", id)

		if err := repo.MarkDeletionProcessed(ctx, id); err != nil {
			log.Printf("finalize baja %s failed: %v", id, err)
			continue
		}
		log.Printf("baja %s finalized", id)

		time.Sleep(10 * time.Millisecond) // Small delay between processing
	}

	log.Println("worker stopped")
}
