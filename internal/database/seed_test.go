package database

import (
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed creates data only when tables are empty. We call it twice to
	// verify idempotency without clearing the database, since other test
	// packages may be running concurrently against it.
	for i := 0; i < 2; i++ {
		if err := SeedCore(db); err != nil {
			t.Fatalf("SeedCore #%d: %v", i+1, err)
		}
		if err := Seed(db, "admin@alcoholdb.local", "admin"); err != nil {
			t.Fatalf("Seed #%d: %v", i+1, err)
		}
	}

	var users int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&users); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users < 1 {
		t.Errorf("expected at least 1 user, got %d", users)
	}

	var cores int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories WHERE title = 'core'").Scan(&cores); err != nil {
		t.Fatalf("count core categories: %v", err)
	}
	if cores != 1 {
		t.Errorf("expected exactly 1 core category, got %d", cores)
	}
}
