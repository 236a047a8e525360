package controller

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines persistence operations for controller records.
type Repository interface {
	// Create inserts a new controller record.
	Create(ctx context.Context, c *Controller) error
	// List retrieves all controller records.
	List(ctx context.Context) ([]Controller, error)
	// Update modifies an existing controller record.
	Update(ctx context.Context, c *Controller) error
	// Delete removes a controller record by entity ID.
	Delete(ctx context.Context, entityID string) error
}

// ErrControllerExists is returned when inserting a record whose entity
// ID is already registered.
var ErrControllerExists = errors.New("controller: already exists")

// SQLiteRepository implements Repository using SQLite.
// Overrides are stored as a JSON column.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed controller repository.
//
// Security: Uses parameterised SQL queries to prevent injection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new controller record.
func (r *SQLiteRepository) Create(ctx context.Context, c *Controller) error {
	if c == nil {
		return fmt.Errorf("controller is required")
	}

	overrides, err := marshalOverrides(c.Overrides)
	if err != nil {
		return err
	}

	query := `INSERT INTO controllers (
			entity_id, group_id, target, last_update, default_multiplier, overrides, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		c.EntityID,
		c.GroupID,
		c.Target,
		c.LastUpdate,
		c.DefaultMultiplier,
		overrides,
		c.CreatedAt.UTC().Format(time.RFC3339),
		c.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrControllerExists
		}
		return fmt.Errorf("inserting controller: %w", err)
	}

	return nil
}

// List retrieves all controller records.
func (r *SQLiteRepository) List(ctx context.Context) ([]Controller, error) {
	query := `SELECT entity_id, group_id, target, last_update, default_multiplier, overrides, created_at, updated_at
		FROM controllers ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying controllers: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var controllers []Controller
	for rows.Next() {
		var (
			c         Controller
			overrides string
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&c.EntityID, &c.GroupID, &c.Target, &c.LastUpdate, &c.DefaultMultiplier, &overrides, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning controller: %w", err)
		}

		if err := json.Unmarshal([]byte(overrides), &c.Overrides); err != nil {
			return nil, fmt.Errorf("parsing overrides column: %w", err)
		}
		if c.Overrides == nil {
			c.Overrides = make(map[string]Override)
		}
		if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}

		controllers = append(controllers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating controllers: %w", err)
	}

	return controllers, nil
}

// Update modifies an existing controller record.
// Returns ErrControllerNotFound if the record does not exist.
func (r *SQLiteRepository) Update(ctx context.Context, c *Controller) error {
	if c == nil {
		return fmt.Errorf("controller is required")
	}

	overrides, err := marshalOverrides(c.Overrides)
	if err != nil {
		return err
	}

	query := `UPDATE controllers
		SET group_id = ?, target = ?, last_update = ?, default_multiplier = ?, overrides = ?, updated_at = ?
		WHERE entity_id = ?`

	res, err := r.db.ExecContext(ctx, query,
		c.GroupID,
		c.Target,
		c.LastUpdate,
		c.DefaultMultiplier,
		overrides,
		c.UpdatedAt.UTC().Format(time.RFC3339),
		c.EntityID,
	)
	if err != nil {
		return fmt.Errorf("updating controller: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrControllerNotFound
	}

	return nil
}

// Delete removes a controller record. Deleting a missing row is not an
// error; unregistration is idempotent.
func (r *SQLiteRepository) Delete(ctx context.Context, entityID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM controllers WHERE entity_id = ?`, entityID)
	if err != nil {
		return fmt.Errorf("deleting controller: %w", err)
	}
	return nil
}

// marshalOverrides serialises the override map to JSON.
func marshalOverrides(overrides map[string]Override) (string, error) {
	if overrides == nil {
		overrides = make(map[string]Override)
	}
	b, err := json.Marshal(overrides)
	if err != nil {
		return "", fmt.Errorf("marshalling overrides: %w", err)
	}
	return string(b), nil
}
