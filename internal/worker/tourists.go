package worker

import (
	"context"
	"log"
	"time"

	"tourguard/internal/config"
	"tourguard/internal/service/tourist"
)

// StartTouristWorkers starts the workers that persist roster changes to
// Redis and expire stale tourists
func StartTouristWorkers(svc *tourist.Service) {
	redisTicker := time.NewTicker(config.TouristRedisInterval)
	go func() {
		for range redisTicker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := svc.SaveDirtyTouristsToRedis(ctx); err != nil {
				log.Printf("Error saving tourists to Redis: %v", err)
			}
			cancel()
		}
	}()

	staleTicker := time.NewTicker(config.TouristStaleInterval)
	go func() {
		for range staleTicker.C {
			if marked := svc.MarkStale(); marked > 0 {
				log.Printf("Marked %d tourists inactive", marked)
			}
		}
	}()

	log.Println("Tourist workers started")
}
