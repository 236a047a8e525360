package logistics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines persistence operations for supply groups.
type Repository interface {
	// Create inserts a new group.
	Create(ctx context.Context, group *Group) error
	// GetByID retrieves a group by ID.
	GetByID(ctx context.Context, id string) (*Group, error)
	// List retrieves all groups.
	List(ctx context.Context) ([]Group, error)
	// Update modifies an existing group.
	Update(ctx context.Context, group *Group) error
	// Delete removes a group by ID.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
// Request entries and entry order are stored as JSON columns; the
// schema lives in the migrations directory.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed group repository.
//
// Security: Uses parameterised SQL queries to prevent injection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ErrGroupExists is returned when inserting a group whose ID is taken.
var ErrGroupExists = errors.New("logistics: group already exists")

// Create inserts a new group.
func (r *SQLiteRepository) Create(ctx context.Context, group *Group) error {
	if group == nil {
		return fmt.Errorf("group is required")
	}

	requests, order, err := marshalRequests(group)
	if err != nil {
		return err
	}

	query := `INSERT INTO supply_groups (
			id, owner_id, name, requests, entry_order, locked, default_multiplier, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		group.ID,
		group.OwnerID,
		group.Name,
		requests,
		order,
		boolToInt(group.Locked),
		group.DefaultMultiplier,
		group.CreatedAt.UTC().Format(time.RFC3339),
		group.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrGroupExists
		}
		return fmt.Errorf("inserting group: %w", err)
	}

	return nil
}

// GetByID retrieves a group by ID.
// Returns ErrGroupNotFound if the group does not exist.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Group, error) {
	query := `SELECT id, owner_id, name, requests, entry_order, locked, default_multiplier, created_at, updated_at
		FROM supply_groups WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	group, err := scanGroupRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("querying group: %w", err)
	}
	return group, nil
}

// List retrieves all groups ordered by creation time.
func (r *SQLiteRepository) List(ctx context.Context) ([]Group, error) {
	query := `SELECT id, owner_id, name, requests, entry_order, locked, default_multiplier, created_at, updated_at
		FROM supply_groups ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var groups []Group
	for rows.Next() {
		group, scanErr := scanGroupRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning group: %w", scanErr)
		}
		groups = append(groups, *group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}

	return groups, nil
}

// Update modifies an existing group.
// Returns ErrGroupNotFound if the group does not exist.
func (r *SQLiteRepository) Update(ctx context.Context, group *Group) error {
	if group == nil {
		return fmt.Errorf("group is required")
	}

	requests, order, err := marshalRequests(group)
	if err != nil {
		return err
	}

	query := `UPDATE supply_groups
		SET owner_id = ?, name = ?, requests = ?, entry_order = ?, locked = ?, default_multiplier = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		group.OwnerID,
		group.Name,
		requests,
		order,
		boolToInt(group.Locked),
		group.DefaultMultiplier,
		group.UpdatedAt.UTC().Format(time.RFC3339),
		group.ID,
	)
	if err != nil {
		return fmt.Errorf("updating group: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrGroupNotFound
	}

	return nil
}

// Delete removes a group by ID. Deleting a missing row is not an error;
// the store treats deletion as idempotent.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM supply_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanGroupRow scans one group row including its JSON columns.
func scanGroupRow(row rowScanner) (*Group, error) {
	var (
		g         Group
		requests  string
		order     string
		locked    int
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &requests, &order, &locked, &g.DefaultMultiplier, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(requests), &g.Requests); err != nil {
		return nil, fmt.Errorf("parsing requests column: %w", err)
	}
	if g.Requests == nil {
		g.Requests = make(map[string]*RequestEntry)
	}
	if err := json.Unmarshal([]byte(order), &g.EntryOrder); err != nil {
		return nil, fmt.Errorf("parsing entry_order column: %w", err)
	}

	g.Locked = locked != 0

	var err error
	if g.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if g.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &g, nil
}

// marshalRequests serialises the requests map and entry order to JSON.
func marshalRequests(group *Group) (requests string, order string, err error) {
	reqMap := group.Requests
	if reqMap == nil {
		reqMap = make(map[string]*RequestEntry)
	}
	reqBytes, err := json.Marshal(reqMap)
	if err != nil {
		return "", "", fmt.Errorf("marshalling requests: %w", err)
	}

	entryOrder := group.EntryOrder
	if entryOrder == nil {
		entryOrder = []string{}
	}
	orderBytes, err := json.Marshal(entryOrder)
	if err != nil {
		return "", "", fmt.Errorf("marshalling entry order: %w", err)
	}

	return string(reqBytes), string(orderBytes), nil
}

// boolToInt converts a bool to SQLite's integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueConstraintError checks whether err is a SQLite unique
// constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
