package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/stockflow-core/internal/logistics"
)

// Logger defines the logging interface used by the Registry.
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

// GroupStore is the interface the registry needs from the logistics
// package: group existence checks and lock flag maintenance.
type GroupStore interface {
	GetGroup(id string) (*logistics.Group, error)
	ListGroups() []logistics.Group
	SetLocked(ctx context.Context, groupID string, locked bool) error
}

// EntityLiveness answers whether a controller's backing entity is still
// valid. The registry asks on every decision that depends on liveness;
// it never caches the answer.
type EntityLiveness interface {
	Alive(entityID string) bool
}

// Registry owns controller records and the group ownership index.
//
// The ownership index (group ID to entity ID) is the single source of
// truth for the one-controller-per-group invariant. Group lock flags
// mirror the index and are repaired on load if the two disagree.
//
// All public methods are thread-safe.
type Registry struct {
	repo     Repository
	groups   GroupStore
	liveness EntityLiveness

	controllers map[string]*Controller
	owners      map[string]string // group ID -> entity ID

	mu     sync.Mutex
	logger Logger
}

// NewRegistry creates a new controller registry.
func NewRegistry(repo Repository, groups GroupStore, liveness EntityLiveness) *Registry {
	return &Registry{
		repo:        repo,
		groups:      groups,
		liveness:    liveness,
		controllers: make(map[string]*Controller),
		owners:      make(map[string]string),
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load reads all controller records from the repository, rebuilds the
// ownership index, and repairs lock flags.
//
// Repair rules, applied in order:
//   - a record whose group no longer exists is dropped
//   - a second record claiming an already-indexed group is dropped
//     (corrupt data; first loaded record wins)
//   - every owned group gets Locked = true, every other group Locked = false
func (r *Registry) Load(ctx context.Context) error {
	records, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading controllers: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.controllers = make(map[string]*Controller, len(records))
	r.owners = make(map[string]string, len(records))

	for i := range records {
		c := records[i]

		if _, err := r.groups.GetGroup(c.GroupID); err != nil {
			r.logger.Warn("dropping controller with missing group",
				"entity", c.EntityID, "group", c.GroupID)
			if delErr := r.repo.Delete(ctx, c.EntityID); delErr != nil {
				return fmt.Errorf("dropping orphaned controller: %w", delErr)
			}
			continue
		}

		if prior, taken := r.owners[c.GroupID]; taken {
			r.logger.Warn("dropping duplicate claim on group",
				"entity", c.EntityID, "group", c.GroupID, "kept", prior)
			if delErr := r.repo.Delete(ctx, c.EntityID); delErr != nil {
				return fmt.Errorf("dropping duplicate controller: %w", delErr)
			}
			continue
		}

		r.controllers[c.EntityID] = c.DeepCopy()
		r.owners[c.GroupID] = c.EntityID
	}

	// Reconcile lock flags against the rebuilt index.
	for _, g := range r.groups.ListGroups() {
		_, owned := r.owners[g.ID]
		if g.Locked != owned {
			if err := r.groups.SetLocked(ctx, g.ID, owned); err != nil {
				return fmt.Errorf("repairing lock flag for %s: %w", g.ID, err)
			}
			r.logger.Warn("repaired group lock flag", "group", g.ID, "locked", owned)
		}
	}

	r.logger.Info("controller registry loaded", "controllers", len(r.controllers))
	return nil
}

// Register binds an entity to a group as its sole controller.
//
// Preconditions: the group must exist. If the group is owned by a
// different controller whose entity is still alive, registration fails
// with ErrAlreadyControlled. A dead prior owner is silently evicted
// first (self-healing takeover). Registering the same entity on the
// same group again just updates the target.
//
// On success the controller record is created with the default buffer
// multiplier, no overrides, and LastUpdate zero; the ownership index
// and the group's locked flag are set.
func (r *Registry) Register(ctx context.Context, entityID, groupID, target string) error {
	if entityID == "" {
		return fmt.Errorf("%w: empty entity id", ErrControllerNotFound)
	}
	if target == "" {
		target = DefaultTarget
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.groups.GetGroup(groupID); err != nil {
		return err
	}

	if ownerID, taken := r.owners[groupID]; taken && ownerID != entityID {
		owner, exists := r.controllers[ownerID]
		if exists && r.liveness.Alive(owner.EntityID) {
			return fmt.Errorf("%w: group %s owned by %s", ErrAlreadyControlled, groupID, ownerID)
		}
		// Stale record: the prior owner's entity is gone. Evict and proceed.
		if err := r.unregisterLocked(ctx, ownerID); err != nil {
			return fmt.Errorf("evicting stale owner: %w", err)
		}
		r.logger.Info("evicted stale controller during takeover",
			"stale", ownerID, "group", groupID, "new", entityID)
	}

	if existing, ok := r.controllers[entityID]; ok {
		if existing.GroupID == groupID {
			existing.Target = target
			existing.UpdatedAt = time.Now().UTC()
			if err := r.repo.Update(ctx, existing); err != nil {
				return fmt.Errorf("persisting controller: %w", err)
			}
			return nil
		}
		// Re-registration on a different group releases the old one.
		if err := r.unregisterLocked(ctx, entityID); err != nil {
			return fmt.Errorf("releasing previous group: %w", err)
		}
	}

	now := time.Now().UTC()
	c := &Controller{
		EntityID:          entityID,
		GroupID:           groupID,
		Target:            target,
		DefaultMultiplier: logistics.DefaultBufferMultiplier,
		Overrides:         make(map[string]Override),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := r.repo.Create(ctx, c); err != nil {
		return fmt.Errorf("persisting controller: %w", err)
	}

	r.controllers[entityID] = c
	r.owners[groupID] = entityID

	if err := r.groups.SetLocked(ctx, groupID, true); err != nil {
		return fmt.Errorf("locking group: %w", err)
	}

	r.logger.Info("controller registered", "entity", entityID, "group", groupID, "target", target)
	return nil
}

// Unregister removes a controller record, clears the ownership index
// entry for its group, and unlocks the group. Returns false without
// error when the entity is unknown; a second call is a safe no-op.
func (r *Registry) Unregister(ctx context.Context, entityID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.controllers[entityID]; !ok {
		return false, nil
	}
	if err := r.unregisterLocked(ctx, entityID); err != nil {
		return false, err
	}
	r.logger.Info("controller unregistered", "entity", entityID)
	return true, nil
}

// unregisterLocked removes a controller while holding the mutex.
func (r *Registry) unregisterLocked(ctx context.Context, entityID string) error {
	c, ok := r.controllers[entityID]
	if !ok {
		return nil
	}

	if err := r.repo.Delete(ctx, entityID); err != nil {
		return fmt.Errorf("deleting controller: %w", err)
	}

	delete(r.controllers, entityID)
	if r.owners[c.GroupID] == entityID {
		delete(r.owners, c.GroupID)
		// The group may already be gone; unlocking a deleted group is fine.
		if err := r.groups.SetLocked(ctx, c.GroupID, false); err != nil && !isGroupMissing(err) {
			return fmt.Errorf("unlocking group: %w", err)
		}
	}
	return nil
}

// GetController retrieves a controller by entity ID.
// The returned controller is a deep copy; callers can safely modify it.
func (r *Registry) GetController(entityID string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[entityID]
	if !ok {
		return nil, ErrControllerNotFound
	}
	return c.DeepCopy(), nil
}

// Controllers returns deep copies of all registered controllers.
// The cycle engine sweeps this list every signal interval.
func (r *Registry) Controllers() []Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Controller, 0, len(r.controllers))
	for _, c := range r.controllers {
		out = append(out, *c.DeepCopy())
	}
	return out
}

// OwnerOf returns the entity currently owning a group, if any.
func (r *Registry) OwnerOf(groupID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entityID, ok := r.owners[groupID]
	return entityID, ok
}

// IsGroupLocked reports whether the group is owned by a controller the
// registry still holds a record for.
func (r *Registry) IsGroupLocked(groupID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entityID, ok := r.owners[groupID]
	if !ok {
		return false
	}
	_, exists := r.controllers[entityID]
	return exists
}

// SetDefaultMultiplier changes a controller's default buffer multiplier.
// Fails with ErrInvalidMultiplier when the value is not positive.
func (r *Registry) SetDefaultMultiplier(ctx context.Context, entityID string, value float64) error {
	if value <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidMultiplier, value)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[entityID]
	if !ok {
		return ErrControllerNotFound
	}

	c.DefaultMultiplier = value
	c.UpdatedAt = time.Now().UTC()
	if err := r.repo.Update(ctx, c); err != nil {
		return fmt.Errorf("persisting controller: %w", err)
	}

	r.logger.Debug("controller multiplier changed", "entity", entityID, "multiplier", value)
	return nil
}

// SetOverride sets or replaces the per-item override for a controller.
//
// Override contents are validated here, at the entry point, so the
// translator can trust whatever is stored: a present multiplier must be
// positive and a present fixed maximum must not be negative.
func (r *Registry) SetOverride(ctx context.Context, entityID, item string, ov Override) error {
	if ov.Multiplier != nil && *ov.Multiplier <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidMultiplier, *ov.Multiplier)
	}
	if ov.MaxQuantity != nil && *ov.MaxQuantity < 0 {
		return fmt.Errorf("%w: negative max %d", ErrInvalidOverride, *ov.MaxQuantity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[entityID]
	if !ok {
		return ErrControllerNotFound
	}

	if c.Overrides == nil {
		c.Overrides = make(map[string]Override)
	}
	c.Overrides[item] = ov
	c.UpdatedAt = time.Now().UTC()

	if err := r.repo.Update(ctx, c); err != nil {
		return fmt.Errorf("persisting controller: %w", err)
	}

	r.logger.Debug("override set", "entity", entityID, "item", item)
	return nil
}

// RemoveOverride clears the per-item override, reverting the item to
// the controller default. Clearing an absent override is a no-op.
func (r *Registry) RemoveOverride(ctx context.Context, entityID, item string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[entityID]
	if !ok {
		return ErrControllerNotFound
	}
	if _, present := c.Overrides[item]; !present {
		return nil
	}

	delete(c.Overrides, item)
	c.UpdatedAt = time.Now().UTC()

	if err := r.repo.Update(ctx, c); err != nil {
		return fmt.Errorf("persisting controller: %w", err)
	}

	r.logger.Debug("override removed", "entity", entityID, "item", item)
	return nil
}

// GetOverrides returns a deep copy of a controller's override map.
func (r *Registry) GetOverrides(entityID string) (map[string]Override, error) {
	c, err := r.GetController(entityID)
	if err != nil {
		return nil, err
	}
	return c.Overrides, nil
}

// TouchLastUpdate records the tick of the most recent translation cycle
// for a controller. Persistence is best-effort: the value is advisory
// and re-derived every cycle, so a write failure is logged, not fatal.
func (r *Registry) TouchLastUpdate(ctx context.Context, entityID string, tick int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[entityID]
	if !ok {
		return
	}
	c.LastUpdate = tick
	if err := r.repo.Update(ctx, c); err != nil {
		r.logger.Warn("failed to persist last update", "entity", entityID, "error", err)
	}
}

// ControllerCount returns the number of registered controllers.
func (r *Registry) ControllerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// isGroupMissing reports whether err indicates the group is gone.
func isGroupMissing(err error) bool {
	return errors.Is(err, logistics.ErrGroupNotFound)
}
