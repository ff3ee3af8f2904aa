package main

import (
	"flag"
	"fmt"
	"log"

	"coo-bot/internal/config"
	"coo-bot/internal/models"
	"coo-bot/internal/storage"

	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	action := flag.String("action", "migrate", "Action to perform (migrate, reset, status)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := storage.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	db := storage.GetDB()
	if db == nil {
		log.Fatalf("Failed to get database connection")
	}

	switch *action {
	case "migrate":
		if err := migrateDatabase(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration completed successfully")
	case "reset":
		if err := resetDatabase(db); err != nil {
			log.Fatalf("Reset failed: %v", err)
		}
		log.Println("Database reset completed successfully")
	case "status":
		if err := checkStatus(db); err != nil {
			log.Fatalf("Status check failed: %v", err)
		}
	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}

func migrateDatabase(db *gorm.DB) error {
	fmt.Println("Migrating database...")

	if err := db.AutoMigrate(&models.ReminderDefinition{}); err != nil {
		return fmt.Errorf("failed to migrate ReminderDefinition model: %w", err)
	}
	if err := db.AutoMigrate(&models.ConversationTurn{}); err != nil {
		return fmt.Errorf("failed to migrate ConversationTurn model: %w", err)
	}

	return nil
}

// resetDatabase drops tables and recreates them
func resetDatabase(db *gorm.DB) error {
	fmt.Println("Resetting database...")

	fmt.Print("WARNING: This will delete all data! Are you sure? (y/N): ")
	var confirmation string
	fmt.Scanln(&confirmation)

	if confirmation != "y" && confirmation != "Y" {
		return fmt.Errorf("operation cancelled by user")
	}

	if err := db.Migrator().DropTable(&models.ConversationTurn{}); err != nil {
		return fmt.Errorf("failed to drop ConversationTurn table: %w", err)
	}
	if err := db.Migrator().DropTable(&models.ReminderDefinition{}); err != nil {
		return fmt.Errorf("failed to drop ReminderDefinition table: %w", err)
	}

	return migrateDatabase(db)
}

// checkStatus reports which tables exist and how many rows they hold
func checkStatus(db *gorm.DB) error {
	fmt.Println("Checking database status...")

	tables := []struct {
		name  string
		model interface{}
	}{
		{"ReminderDefinition", &models.ReminderDefinition{}},
		{"ConversationTurn", &models.ConversationTurn{}},
	}

	for _, table := range tables {
		if db.Migrator().HasTable(table.model) {
			fmt.Printf("✅ %s table exists\n", table.name)

			var count int64
			db.Model(table.model).Count(&count)
			fmt.Printf("   - Contains %d records\n", count)
		} else {
			fmt.Printf("❌ %s table does not exist\n", table.name)
		}
	}

	return nil
}
