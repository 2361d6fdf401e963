package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerrad567/modi-core/internal/infrastructure/database"
)

func TestEmbeddedMigrationsApply(t *testing.T) {
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "modi.db"), WALMode: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	applied, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) == 0 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d", len(applied), len(pending))
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO modules (uuid, bus_id, kind, first_seen, last_seen) VALUES (?, ?, ?, ?, ?)`,
		"u", 70000, "led", "t", "t",
	); err == nil {
		t.Error("bus_id outside uint16 should violate the schema")
	}

	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
}
