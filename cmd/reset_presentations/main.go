package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"realtime-board/internal/config"
	"realtime-board/internal/database"
	"realtime-board/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.FromEnv("")

	// Connect to database
	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Println("Database connected. Clearing stored presentations...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cleared, err := service.NewBoardService(db).ClearPresentations(ctx)
	if err != nil {
		log.Fatalf("Failed to reset presentations: %v", err)
	}

	log.Printf("Presentation state cleared on %d boards.", cleared)
}
