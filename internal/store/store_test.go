// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"alcoholdb/internal/database"
	"alcoholdb/internal/models"
)

// schemaOnce migrates and seeds the shared test database once per package
// run. goose keeps its base FS in a global, so it is reset afterwards.
var (
	schemaOnce sync.Once
	schemaErr  error
)

// testDB connects to the Postgres named by the POSTGRES_* variables
// (defaults match docker-compose.yml) or skips the test.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "postgres://" + env("POSTGRES_USER", "alcoholdb") + ":" + env("POSTGRES_PASSWORD", "changeme") +
		"@" + env("POSTGRES_HOST", "localhost") + ":" + env("POSTGRES_PORT", "5432") +
		"/" + env("POSTGRES_DB", "alcoholdb") + "?sslmode=disable"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := database.Connect(ctx, dsn, database.Pool{MaxOpen: 8, MaxIdle: 2})
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaOnce.Do(func() {
		if schemaErr = database.Migrate(db); schemaErr == nil {
			schemaErr = database.SeedCore(db)
		}
		goose.SetBaseFS(nil)
	})
	if schemaErr != nil {
		t.Fatalf("prepare schema: %v", schemaErr)
	}
	return db
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// cleanUsers deletes users by email; reviews, lists and follows cascade.
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		if _, err := db.Exec("DELETE FROM users WHERE email = $1", email); err != nil {
			t.Logf("clean user %s: %v", email, err)
		}
	}
}

// cleanAlcohols deletes items by id.
func cleanAlcohols(t *testing.T, db *sql.DB, ids ...uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		if _, err := db.Exec("DELETE FROM alcohols WHERE id = $1", id); err != nil {
			t.Logf("clean alcohol %s: %v", id, err)
		}
	}
}

// testUser creates a throwaway user that is removed when the test ends.
func testUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()
	cleanUsers(t, db, email)
	t.Cleanup(func() { cleanUsers(t, db, email) })
	u, err := NewUserStore(db).Create(context.Background(), email, "testpass123", "Tester", models.RoleUser)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return u
}
