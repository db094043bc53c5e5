package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"go-react-todo/backend/internal/database"
	"go-react-todo/backend/internal/routes"
)

func main() {
	// .env はローカル開発用。Docker等で環境変数が直接渡される場合は無くてもよい
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	db := database.InitDB()
	defer db.Close()

	if err := database.EnsureSchema(db); err != nil {
		log.Fatalf("Fatal: Failed to ensure database schema: %v", err)
	}

	r := routes.SetupRouter(db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
