package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	logger    *zap.SugaredLogger
	jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)
)

func main() {
	initLogger()
	defer logger.Sync() //nolint:errcheck

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded, using process environment")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Support a lightweight migrate command: `./ccportal migrate`
	// It runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		logger.Info("migration and seeding completed")
		return
	}

	initDB()
	initNotifier()

	r := gin.Default()
	setupRoutes(r)
	r.Static("/uploads", uploadBaseDir())

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

func initLogger() {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	logger = l.Sugar()
}
