package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/joho/godotenv"

	"github.com/mlefevre/amicale-client/internal/database"
	"github.com/mlefevre/amicale-client/internal/server"
	"github.com/mlefevre/amicale-client/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	appLog := logger.FromEnv()

	// Postgres when configured, in-memory fallback otherwise so the
	// binary runs standalone for local client development.
	var store server.Store
	if os.Getenv("DB_HOST") != "" {
		db, err := database.InitDB()
		if err != nil {
			appLog.Fatalf("Failed to initialize database: %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			appLog.Fatalf("Failed to get database instance: %v", err)
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)

		store = database.NewGormStore(db)
		appLog.Info("Using postgres store")
	} else {
		store = server.NewMemStore()
		appLog.Warn("DB_HOST not set, using in-memory store")
	}

	srv := server.New(store, appLog)

	// Session auth rides on cookies, so CORS must allow credentials
	// and the CSRF header.
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	config.AllowCredentials = true
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-CSRFToken"}

	router := srv.Router(cors.New(config))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := router.Run(":" + port); err != nil {
		appLog.Fatalf("Failed to start server: %v", err)
	}
}
