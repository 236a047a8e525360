package logistics

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Store.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store provides supply group management with write-through persistence.
// It wraps a Repository and keeps all groups in memory for fast lookups.
//
// The in-memory map is populated on startup via Load() and kept in sync
// by every mutating operation.
//
// All public methods are thread-safe. A single mutex guards the whole
// store; registry operations are short, so there is no value in
// per-group locking.
type Store struct {
	repo   Repository
	groups map[string]*Group

	// seq is the monotonic counter used for group ID generation.
	// Owner ID plus a process-unique counter keeps IDs collision-free
	// even when several groups are created within one tick.
	seq uint64

	mu     sync.Mutex
	logger Logger
}

// NewStore creates a new supply group store.
// The repository is used for persistence; the store adds the in-memory map.
func NewStore(repo Repository) *Store {
	return &Store{
		repo:   repo,
		groups: make(map[string]*Group),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Load reads all groups from the repository into memory.
// This should be called once on application startup. It also seeds the
// ID counter past the highest persisted sequence number so restarted
// processes never reissue an existing ID.
func (s *Store) Load(ctx context.Context) error {
	groups, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading groups: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups = make(map[string]*Group, len(groups))
	for i := range groups {
		g := groups[i]
		if g.Requests == nil {
			g.Requests = make(map[string]*RequestEntry)
		}
		s.groups[g.ID] = g.DeepCopy()

		if seq, ok := parseIDSequence(g.ID); ok && seq > s.seq {
			s.seq = seq
		}
	}

	s.logger.Info("group store loaded", "count", len(groups))
	return nil
}

// CreateGroup creates a new supply group for the given owner.
//
// The group starts with no request entries, unlocked, and the default
// buffer multiplier. Returns ErrInvalidOwner when the owner identifier
// is empty.
func (s *Store) CreateGroup(ctx context.Context, ownerID, name string) (*Group, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidOwner
	}
	if strings.TrimSpace(name) == "" {
		name = "Unnamed group"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := time.Now().UTC()
	group := &Group{
		ID:                fmt.Sprintf("%s-g%d", ownerID, s.seq),
		Name:              name,
		OwnerID:           ownerID,
		Requests:          make(map[string]*RequestEntry),
		DefaultMultiplier: DefaultBufferMultiplier,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("persisting group: %w", err)
	}

	s.groups[group.ID] = group
	s.logger.Info("group created", "id", group.ID, "owner", ownerID, "name", name)
	return group.DeepCopy(), nil
}

// DeleteGroup removes a group. Deleting an unknown group is a no-op;
// the operation is idempotent by design.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}

	delete(s.groups, id)
	s.logger.Info("group deleted", "id", id)
	return nil
}

// GetGroup retrieves a group by ID.
// Returns ErrGroupNotFound if the group does not exist.
// The returned group is a deep copy; callers can safely modify it.
func (s *Store) GetGroup(id string) (*Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return g.DeepCopy(), nil
}

// ListGroupsForOwner retrieves all groups belonging to the given owner.
// The returned groups are deep copies; order is unspecified.
func (s *Store) ListGroupsForOwner(ownerID string) []Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	var groups []Group
	for _, g := range s.groups {
		if g.OwnerID == ownerID {
			groups = append(groups, *g.DeepCopy())
		}
	}
	return groups
}

// ListGroups retrieves all groups as deep copies.
func (s *Store) ListGroups() []Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make([]Group, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, *g.DeepCopy())
	}
	return groups
}

// SetEntryEnabled flips the enabled flag on one request entry.
// Returns ErrGroupNotFound or ErrEntryNotFound when the target is absent.
func (s *Store) SetEntryEnabled(ctx context.Context, groupID, entry string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	e, ok := g.Requests[entry]
	if !ok {
		return ErrEntryNotFound
	}

	e.Enabled = enabled
	g.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, g); err != nil {
		return fmt.Errorf("persisting group: %w", err)
	}

	s.logger.Debug("entry enablement changed", "group", groupID, "entry", entry, "enabled", enabled)
	return nil
}

// IsEntryEnabled reports whether the named entry is enabled.
// Entries default to enabled; only an explicit disable turns them off.
func (s *Store) IsEntryEnabled(groupID, entry string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return false, ErrGroupNotFound
	}
	e, ok := g.Requests[entry]
	if !ok {
		return false, ErrEntryNotFound
	}
	return e.Enabled, nil
}

// UpdateMultipliers recomputes maximums for the given entries as
// floor(min * multiplier). Entries not present in the group are silently
// skipped; tuning a half-stale multiplier map is not an error. The
// operation works while the group is locked so operators can adjust
// buffers without releasing the controlling unit.
//
// Returns ErrGroupNotFound for an unknown group and ErrInvalidMultiplier
// if any supplied multiplier is not positive.
func (s *Store) UpdateMultipliers(ctx context.Context, groupID string, multipliers map[string]float64) error {
	for entry, m := range multipliers {
		if m <= 0 {
			return fmt.Errorf("%w: %q: %v", ErrInvalidMultiplier, entry, m)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}

	changed := false
	for entry, m := range multipliers {
		e, ok := g.Requests[entry]
		if !ok {
			continue
		}
		e.Max = int64(math.Floor(float64(e.Min) * m))
		changed = true
	}

	if !changed {
		return nil
	}

	g.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, g); err != nil {
		return fmt.Errorf("persisting group: %w", err)
	}

	s.logger.Debug("group multipliers updated", "group", groupID, "entries", len(multipliers))
	return nil
}

// ApplyRequests replaces a group's request entries with a freshly
// translated set. The caller (the cycle engine) is responsible for
// carrying enablement flags forward before replacement.
func (s *Store) ApplyRequests(ctx context.Context, groupID string, requests map[string]*RequestEntry, order []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}

	if requests == nil {
		requests = make(map[string]*RequestEntry)
	}
	g.Requests = requests
	g.EntryOrder = order
	g.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, g); err != nil {
		return fmt.Errorf("persisting group: %w", err)
	}
	return nil
}

// SetLocked sets a group's locked flag. Only the controller registry
// should call this; the flag mirrors the ownership index.
func (s *Store) SetLocked(ctx context.Context, groupID string, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	if g.Locked == locked {
		return nil
	}

	g.Locked = locked
	g.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, g); err != nil {
		return fmt.Errorf("persisting group: %w", err)
	}
	return nil
}

// GroupCount returns the number of groups currently in memory.
func (s *Store) GroupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.groups)
}

// parseIDSequence extracts the numeric sequence from a generated group
// ID of the form "<owner>-g<seq>". Returns false for foreign IDs.
func parseIDSequence(id string) (uint64, bool) {
	idx := strings.LastIndex(id, "-g")
	if idx < 0 {
		return 0, false
	}
	seq, err := strconv.ParseUint(id[idx+2:], 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}
