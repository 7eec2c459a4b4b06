// Command seed populates the catalog database and the registry store with
// starter and demo data.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"gamerate/internal/config"
	"gamerate/internal/database"
	"gamerate/internal/repository"
	"gamerate/internal/seed"
	"gamerate/internal/store"
)

func main() {
	numUsers := flag.Int("users", 0, "number of demo users to register")
	reviewsPerUser := flag.Int("reviews", 2, "reviews per demo user")
	skipSamples := flag.Bool("skip-samples", false, "skip the starter reviews")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	count, err := seed.Catalog(ctx, repository.NewCatalogRepository(db))
	if err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	log.Printf("✓ catalog ready (%d games)", count)

	var kv store.Store
	if client := store.ConnectRedis(cfg.RedisURL); client != nil {
		kv = store.NewRedisStore(client, "gamerate")
	} else {
		log.Println("Redis unavailable; seeding the in-memory store is a no-op after exit")
		kv = store.NewMemoryStore()
	}

	if !*skipSamples {
		if err := seed.SampleReviews(ctx, kv); err != nil {
			log.Fatalf("Failed to seed sample reviews: %v", err)
		}
		log.Println("✓ starter reviews in place")
	}

	if *numUsers > 0 {
		if err := seed.Demo(ctx, kv, *numUsers, *reviewsPerUser); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	log.Println("Seeding complete")
}
