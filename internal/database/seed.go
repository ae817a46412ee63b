package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"alcoholdb/internal/catalog/schema"
)

// SeedCore inserts the core catalogue category if it is missing. Every
// deployment needs it, so it runs regardless of environment.
func SeedCore(db *sql.DB) error {
	core := schema.CoreCategory()
	props, err := json.Marshal(core.Properties)
	if err != nil {
		return fmt.Errorf("seed encode core properties: %w", err)
	}
	required, err := json.Marshal(core.Required)
	if err != nil {
		return fmt.Errorf("seed encode core required: %w", err)
	}

	res, err := db.Exec(`
		INSERT INTO categories (id, title, properties, required)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (title) DO NOTHING
	`, uuid.New(), core.Title, props, required)
	if err != nil {
		return fmt.Errorf("seed core category: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("core category seeded")
	}
	return nil
}

// Seed populates the database with initial development data.
// It creates a default admin user if none exists.
func Seed(db *sql.DB, adminEmail, adminPassword string) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
	`, adminEmail, string(hash), "Admin", "admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user", "email", adminEmail)
	return nil
}
