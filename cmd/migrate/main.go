package main

import (
	"log"

	"memory-beads-be/internal/config"
	"memory-beads-be/internal/model"
	"memory-beads-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Running AutoMigrate for journals...")
	if err := database.Migrate(db, &model.Journal{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// jsonb containment lookups on imported ids stay fast as queues grow.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_journals_queue_gin ON journals USING GIN (queue jsonb_path_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_journals_updated_at ON journals (updated_at DESC);`,
	}
	for _, sql := range indexes {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
