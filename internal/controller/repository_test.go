package controller

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the controllers table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE controllers (
			entity_id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL UNIQUE,
			target TEXT NOT NULL DEFAULT 'home',
			last_update INTEGER NOT NULL DEFAULT 0,
			default_multiplier REAL NOT NULL DEFAULT 2.0,
			overrides TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func persistedController(entityID, groupID string) *Controller {
	now := time.Now().UTC().Truncate(time.Second)
	mult := 2.5
	return &Controller{
		EntityID:          entityID,
		GroupID:           groupID,
		Target:            "home",
		LastUpdate:        120,
		DefaultMultiplier: 2.0,
		Overrides: map[string]Override{
			"iron-plate": {Multiplier: &mult},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestControllerRepositoryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	c := persistedController("unit-1", "g1")
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d controllers, want 1", len(list))
	}

	got := list[0]
	if got.EntityID != "unit-1" || got.GroupID != "g1" || got.LastUpdate != 120 {
		t.Errorf("got %+v", got)
	}
	ov, ok := got.Overrides["iron-plate"]
	if !ok || ov.Multiplier == nil || *ov.Multiplier != 2.5 {
		t.Errorf("overrides column mangled: %+v", got.Overrides)
	}
}

func TestControllerRepositoryCreateDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, persistedController("unit-1", "g1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, persistedController("unit-1", "g2")); !errors.Is(err, ErrControllerExists) {
		t.Errorf("err = %v, want ErrControllerExists", err)
	}
}

func TestControllerRepositoryUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	c := persistedController("unit-1", "g1")
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	c.Target = "outpost"
	c.LastUpdate = 180
	max := int64(5000)
	c.Overrides["iron-plate"] = Override{MaxQuantity: &max}
	if err := repo.Update(ctx, c); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	list, _ := repo.List(ctx)
	got := list[0]
	if got.Target != "outpost" || got.LastUpdate != 180 {
		t.Errorf("got %+v", got)
	}
	if ov := got.Overrides["iron-plate"]; ov.MaxQuantity == nil || *ov.MaxQuantity != 5000 {
		t.Errorf("override not persisted: %+v", ov)
	}
}

func TestControllerRepositoryUpdateMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	err := repo.Update(context.Background(), persistedController("ghost", "g1"))
	if !errors.Is(err, ErrControllerNotFound) {
		t.Errorf("err = %v, want ErrControllerNotFound", err)
	}
}

func TestControllerRepositoryDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, persistedController("unit-1", "g1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Delete(ctx, "unit-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	list, _ := repo.List(ctx)
	if len(list) != 0 {
		t.Errorf("got %d controllers, want 0", len(list))
	}
	// Idempotent second delete
	if err := repo.Delete(ctx, "unit-1"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
}
