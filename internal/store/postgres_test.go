package store

import (
	"os"
	"testing"

	"github.com/letzgrade/letzgrade/internal/platform"
)

// TestPostgresStore runs the shared store tests against a real database.
// Set LETZGRADE_TEST_DATABASE_URL to a disposable database to enable it.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("LETZGRADE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LETZGRADE_TEST_DATABASE_URL not set")
	}

	db, err := platform.OpenDB(url)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := platform.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	testStore(t, func(t *testing.T) Store {
		if _, err := db.Exec(`TRUNCATE programs, semesters, courses, grades, reports, exams CASCADE`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return NewPostgres(db)
	})
}

func TestNewPostgres(t *testing.T) {
	// NewPostgres only stores the reference.
	s := NewPostgres(nil)
	if s == nil {
		t.Fatal("NewPostgres returned nil")
	}
	var _ Store = s
	var _ Store = NewMemory()
}
