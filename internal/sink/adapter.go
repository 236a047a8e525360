package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/stockflow-core/internal/logistics"
)

// Logger defines the logging interface used by the Adapter.
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

// Adapter pushes a group's current requests to the downstream sink.
//
// Sync is a full replacement: existing downstream requests for the
// owner are removed, then every enabled entry is registered fresh.
// Failure to locate a sink for the owner is reported to the caller (it
// usually means the owning platform is gone); a completely absent
// integration is success by definition.
type Adapter struct {
	locator Locator
	logger  Logger
}

// NewAdapter creates a sync adapter over the given locator. A nil
// locator means no integration is configured; every Sync succeeds as a
// no-op.
func NewAdapter(locator Locator) *Adapter {
	return &Adapter{
		locator: locator,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the adapter.
func (a *Adapter) SetLogger(logger Logger) {
	a.logger = logger
}

// Sync replaces the downstream request set for the group's owner with
// the group's current enabled entries.
//
// Returns ErrSinkNotFound when no sink serves the owner. Capability
// skew (a sink rejecting the min+max call) is handled internally by
// retrying with the minimum-only form and is never surfaced.
func (a *Adapter) Sync(ctx context.Context, group *logistics.Group) error {
	if a.locator == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s, err := a.locator.Locate(group.OwnerID)
	if err != nil {
		if errors.Is(err, ErrSinkNotFound) {
			return err
		}
		return fmt.Errorf("locating sink for %s: %w", group.OwnerID, err)
	}

	existing, err := s.Requests(group.OwnerID)
	if err != nil {
		return fmt.Errorf("enumerating requests for %s: %w", group.OwnerID, err)
	}
	for entry := range existing {
		if err := s.RemoveRequest(group.OwnerID, entry); err != nil {
			return fmt.Errorf("removing request %s/%s: %w", group.OwnerID, entry, err)
		}
	}

	for _, name := range group.EntryOrder {
		entry, ok := group.Requests[name]
		if !ok || !entry.Enabled {
			continue
		}

		// A maximum below the minimum is meaningless downstream; fall
		// back to the minimum.
		maximum := entry.Max
		if maximum < entry.Min {
			maximum = entry.Min
		}

		if err := s.RegisterRequest(group.OwnerID, name, entry.Min, maximum); err != nil {
			if !errors.Is(err, ErrUnsupported) {
				return fmt.Errorf("registering request %s/%s: %w", group.OwnerID, name, err)
			}
			// Older sink: retry with the minimum-only form.
			if err := s.RegisterRequestMin(group.OwnerID, name, entry.Min); err != nil {
				return fmt.Errorf("registering request (min-only) %s/%s: %w", group.OwnerID, name, err)
			}
			a.logger.Debug("sink lacks min+max registration, used min-only",
				"owner", group.OwnerID, "entry", name)
		}
	}

	a.logger.Debug("group synced", "group", group.ID, "owner", group.OwnerID,
		"entries", len(group.EntryOrder))
	return nil
}
