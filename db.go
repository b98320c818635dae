package main

import (
	"os"
	"path/filepath"
	"strings"

	"ccportal/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "postgres"
	}
	dsn := os.Getenv("DB_DSN")

	var dial gorm.Dialector
	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = filepath.Join("data", "portal.db")
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				logger.Fatalf("failed to create database dir %s: %v", dir, err)
			}
		}
		dial = sqlite.Open(dsn)
	case "postgres":
		if dsn == "" {
			logger.Fatal("DB_DSN is not set. Provide a Postgres DSN or set DB_DRIVER=sqlite.")
		}
		dial = postgres.Open(dsn)
	default:
		logger.Fatalf("unsupported DB_DRIVER %q (want postgres or sqlite)", driver)
	}

	var err error
	db, err = gorm.Open(dial, &gorm.Config{})
	if err != nil {
		logger.Fatalf("failed to connect %s database: %v", driver, err)
	}

	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := strings.ToLower(os.Getenv("DB_AUTO_MIGRATE")); v == "false" || v == "0" || v == "no" {
		shouldMigrate = false
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		for _, m := range []any{
			&models.User{},
			&models.Status{},
			&models.Category{},
			&models.Company{},
			&models.ComplaintType{},
			&models.Complaint{},
			&models.Attachment{},
			&models.ComplaintLog{},
			&models.IOM{},
			&models.IOMAttachment{},
			&models.Disposal{},
		} {
			if err := db.AutoMigrate(m); err != nil {
				logger.Warnf("migration warning (%T): %v", m, err)
			}
		}
	}
	seedDB()
}

func seedDB() {
	// Fixed status enumeration: seeded once, never mutated afterwards.
	var cnt int64
	db.Model(&models.Status{}).Count(&cnt)
	if cnt == 0 {
		statuses := []models.Status{
			{ID: models.StatusPending, Name: "Pending"},
			{ID: models.StatusInProgress, Name: "In Progress"},
			{ID: models.StatusClosed, Name: "Closed"},
		}
		if err := db.Create(&statuses).Error; err != nil {
			logger.Warnf("failed to seed statuses: %v", err)
		}
	}

	// Bootstrap admin so a fresh install is usable.
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	var count int64
	db.Model(&models.User{}).Where("username = ?", username).Count(&count)
	if count == 0 {
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			password = "admin123"
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			logger.Warnf("failed to hash bootstrap admin password: %v", err)
			return
		}
		admin := models.User{
			Username:     username,
			Email:        os.Getenv("ADMIN_EMAIL"),
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		}
		if err := db.Create(&admin).Error; err != nil {
			logger.Warnf("failed to seed admin user: %v", err)
		} else {
			logger.Infof("seeded admin user %q", username)
		}
	}

	ensureUploadBase()
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0o755); err != nil {
		logger.Warnf("failed to create upload base dir %s: %v", base, err)
	}
}

// uploadBaseDir returns the base directory for stored uploads (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
