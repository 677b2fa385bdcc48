package db

import (
	"database/sql"
	"log"
	"os"
	"testing"
)

// TestDatabaseEnv names the connection string used by database tests.
// Tests that need PostgreSQL are skipped when it is unset.
const TestDatabaseEnv = "TEST_DATABASE"

// SetupTestDB opens the test database and applies migrations
func SetupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	connStr := os.Getenv(TestDatabaseEnv)
	if connStr == "" {
		t.Skipf("%s not set, skipping PostgreSQL test", TestDatabaseEnv)
	}

	database, err := Open(connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := Migrate(database); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return database
}

// CleanupTestDB cleans up test data
func CleanupTestDB(t testing.TB, database *sql.DB) {
	tables := []string{"trades", "positions", "users"}
	for _, table := range tables {
		if _, err := database.Exec("DELETE FROM " + table); err != nil {
			log.Printf("Warning: Failed to cleanup table %s: %v", table, err)
		}
	}
}
