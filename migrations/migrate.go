package main

import (
	"context"
	"log"
	"os"

	"housetrades/src/config"
	"housetrades/src/database"
	aws_handler "housetrades/src/utils/aws"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		log.Fatalf("Error loading config for environment: %v", err)
	}

	if err := aws_handler.ResolveDatabasePassword(context.Background(), cfg); err != nil {
		log.Fatalf("Error resolving database password: %v", err)
	}

	sqlDB, err := database.OpenSQL(database.DSN(cfg.Databases.SQL))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := database.Migrate(sqlDB, "./migrations"); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Println("Database migration completed successfully")
}
