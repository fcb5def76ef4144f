package main

import (
	"fmt"
	"log"

	"order_manager/internal/config"
	"order_manager/internal/database"
	"order_manager/internal/migrations"
)

func main() {
	fmt.Println("Initializing database...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Recreate schema and seed default users, customers and products
	if err := migrations.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Println("Database initialized.")
}
