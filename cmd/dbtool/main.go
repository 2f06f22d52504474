package main

import (
	"database/sql"
	"intermodal-route-service/internal/adapters/repositories"
	"intermodal-route-service/internal/config"
	"intermodal-route-service/internal/platform/db"
	"log"
	"os"
)

// dbtool prepares a Postgres database: schema plus the waypoint table seeded
// from the JSON place files.
func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initAndSeed(conn, cfg.PortsPath, cfg.NodesPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(conn *sql.DB, seedPaths ...string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(conn); err != nil {
		return err
	}
	log.Println("Schema ready.")

	log.Println("Seeding waypoints...")
	for _, path := range seedPaths {
		if _, err := os.Stat(path); err != nil {
			log.Printf("seed file missing, skipping: path=%s", path)
			continue
		}
		n, err := repositories.SeedWaypointsFromJSON(conn, repositories.Postgres, path)
		if err != nil {
			return err
		}
		log.Printf("seeded waypoints: path=%s rows=%d", path, n)
	}
	log.Println("Seeding complete.")

	return nil
}
