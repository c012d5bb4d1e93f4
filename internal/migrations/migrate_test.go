package migrations

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Simplici0/costcalc/internal/db"
)

func TestUpCreatesTablesAndIsRepeatable(t *testing.T) {
	database, err := db.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	for i := 0; i < 2; i++ {
		if err := Up(database, zerolog.Nop()); err != nil {
			t.Fatalf("run migrations (iteration=%d): %v", i, err)
		}
	}

	for _, table := range []string{"users", "clinic_profile"} {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}

	version, err := Version(database)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected schema version 2, got %d", version)
	}
}

func TestUpLogsThroughZerolog(t *testing.T) {
	database, err := db.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	var buf bytes.Buffer
	if err := Up(database, zerolog.New(&buf)); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("expected migration progress in the zerolog stream")
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "{") || !strings.Contains(line, `"component":"migrations"`) {
			t.Fatalf("migration output is not structured: %q", line)
		}
	}
	if !strings.Contains(buf.String(), "00001_users.sql") {
		t.Fatalf("expected applied migration names in log, got %s", buf.String())
	}
}
