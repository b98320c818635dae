package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"ccportal/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	username := flag.String("username", "", "username for the new account")
	password := flag.String("password", "password123", "initial password")
	email := flag.String("email", "", "email address")
	role := flag.String("role", models.RoleDO, "ADMIN, SR_REGISTRAR or DO")
	flag.Parse()
	if *username == "" {
		fmt.Println("usage: go run ./cmd/create_user -username <name> [-password ...] [-email ...] [-role ...]")
		os.Exit(2)
	}
	if !models.ValidRole(*role) {
		log.Fatalf("unknown role %q", *role)
	}

	_ = godotenv.Load()
	db := openDB()

	var existing models.User
	if err := db.Where("username = ?", *username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", *username, existing.ID)
		os.Exit(0)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{Username: *username, Email: *email, PasswordHash: hash, Role: *role}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d role=%s\n", user.Username, user.ID, user.Role)
}

func openDB() *gorm.DB {
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	var db *gorm.DB
	var err error
	switch strings.ToLower(os.Getenv("DB_DRIVER")) {
	case "sqlite":
		if dsn == "" {
			dsn = "data/portal.db"
		}
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	case "", "postgres":
		if dsn == "" {
			log.Fatal("DB_DSN not set in environment")
		}
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	default:
		log.Fatalf("unknown DB_DRIVER %q", os.Getenv("DB_DRIVER"))
	}
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	return db
}
