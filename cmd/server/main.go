package main

import (
	"log"
	"os"

	"sociafy/internal/entity"
	"sociafy/internal/server"
	"sociafy/pkg/database"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	redisClient := connectRedis()

	srv := server.NewServer(db, redisClient)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := srv.Run(":" + port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Post{},
		&entity.Comment{},
		&entity.Attachment{},
		&entity.Reaction{},
		&entity.FriendRequest{},
		&entity.Friendship{},
		&entity.BlockedUser{},
		&entity.Conversation{},
		&entity.Message{},
		&entity.Notification{},
	)
}

// connectRedis returns nil when REDIS_URL is unset. The app degrades
// gracefully: no rate limiting, no summary caches, no live delivery.
func connectRedis() *redis.Client {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		log.Println("REDIS_URL not set, running without redis")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}

	return redis.NewClient(opts)
}
