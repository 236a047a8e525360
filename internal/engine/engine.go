package engine

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/stockflow-core/internal/controller"
	"github.com/nerrad567/stockflow-core/internal/logistics"
	"github.com/nerrad567/stockflow-core/internal/signal"
	"github.com/nerrad567/stockflow-core/internal/sink"
)

const (
	// DefaultSignalInterval is the tick spacing between signal cycles.
	DefaultSignalInterval int64 = 60

	// DefaultCleanupInterval is the tick spacing between cleanup sweeps.
	DefaultCleanupInterval int64 = 18000

	// DefaultTickRate is the wall-clock length of one tick for the
	// internal Run loop, matching the 60 ticks per second game clock so
	// signal cycles land about once a second and cleanup sweeps about
	// every five minutes.
	DefaultTickRate = time.Second / 60
)

// Logger defines the logging interface used by the Engine.
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

// GroupStore is the interface the engine needs from the logistics store.
type GroupStore interface {
	GetGroup(id string) (*logistics.Group, error)
	ListGroups() []logistics.Group
	ApplyRequests(ctx context.Context, groupID string, requests map[string]*logistics.RequestEntry, order []string) error
	DeleteGroup(ctx context.Context, id string) error
	GroupCount() int
}

// Registry is the interface the engine needs from the controller registry.
type Registry interface {
	Controllers() []controller.Controller
	Unregister(ctx context.Context, entityID string) (bool, error)
	OwnerOf(groupID string) (string, bool)
	TouchLastUpdate(ctx context.Context, entityID string, tick int64)
	ControllerCount() int
}

// SignalSource provides aggregated signal readings per controller entity.
type SignalSource interface {
	Read(entityID string) ([]signal.Reading, error)
	Forget(entityID string)
}

// Liveness answers whether entities and owning platforms still exist.
//
// Ready reports whether the backing snapshot is trustworthy yet. A
// presence tracker fed by retained broker messages starts empty, and
// acting on "everything absent" before the snapshot arrives would wipe
// perfectly healthy state. The engine never removes anything while
// Ready is false.
type Liveness interface {
	Alive(entityID string) bool
	Exists(ownerID string) bool
	Ready() bool
}

// Syncer pushes a group's requests to the downstream sink.
type Syncer interface {
	Sync(ctx context.Context, group *logistics.Group) error
}

// Broadcaster is the interface for pushing engine events to UI clients.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Telemetry records per-cycle measurements to a time-series backend.
type Telemetry interface {
	RecordCycle(tick int64, processed, failures int, duration time.Duration)
}

// Config tunes the engine's cadence.
type Config struct {
	// SignalInterval is how many ticks apart signal cycles run.
	SignalInterval int64

	// CleanupInterval is how many ticks apart cleanup sweeps run.
	CleanupInterval int64

	// TickRate is the wall-clock length of one tick for the internal
	// Run loop. Ignored when the host calls OnTick directly.
	TickRate time.Duration
}

func (c Config) withDefaults() Config {
	if c.SignalInterval <= 0 {
		c.SignalInterval = DefaultSignalInterval
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	return c
}

// Engine orchestrates the signal and cleanup cycles.
//
// Thread Safety: OnTick and the hooks are intended to be called from a
// single driver goroutine (the host's tick callback or Run). The
// collaborators behind the interfaces do their own locking.
type Engine struct {
	groups    GroupStore
	registry  Registry
	signals   SignalSource
	adapter   Syncer
	liveness  Liveness
	cfg       Config
	metrics   *Metrics
	hub       Broadcaster
	telemetry Telemetry
	logger    Logger
}

// NewEngine creates a cycle engine over the given collaborators.
//
// hub and telemetry may be nil; metrics may be nil, in which case an
// unregistered metric set is used.
func NewEngine(groups GroupStore, registry Registry, signals SignalSource, adapter Syncer, liveness Liveness, cfg Config, metrics *Metrics, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Engine{
		groups:   groups,
		registry: registry,
		signals:  signals,
		adapter:  adapter,
		liveness: liveness,
		cfg:      cfg.withDefaults(),
		metrics:  metrics,
		logger:   logger,
	}
}

// SetBroadcaster attaches an event hub for engine broadcasts.
func (e *Engine) SetBroadcaster(hub Broadcaster) {
	e.hub = hub
}

// SetTelemetry attaches a time-series recorder for cycle measurements.
func (e *Engine) SetTelemetry(t Telemetry) {
	e.telemetry = t
}

// OnInit runs one consistency sweep so the engine starts from a state
// where every controller's entity and every group's owner still exist.
// The sweep is a no-op until liveness reports Ready, so hosts should
// warm their presence source before calling this.
func (e *Engine) OnInit(ctx context.Context) {
	e.cleanupSweep(ctx)
	e.logger.Info("engine initialised",
		"controllers", e.registry.ControllerCount(),
		"groups", e.groups.GroupCount(),
		"signal_interval", e.cfg.SignalInterval,
		"cleanup_interval", e.cfg.CleanupInterval,
	)
}

// OnEntityBuilt is the host hook for a newly created controller entity.
// Nothing is tracked until the entity registers against a group.
func (e *Engine) OnEntityBuilt(entityID string) {
	e.logger.Debug("controller entity built", "entity_id", entityID)
}

// OnEntityRemoved unregisters the removed entity's controller
// immediately instead of waiting for the next cleanup sweep.
func (e *Engine) OnEntityRemoved(ctx context.Context, entityID string) {
	removed, err := e.registry.Unregister(ctx, entityID)
	if err != nil {
		e.logger.Warn("unregister on entity removal failed",
			"entity_id", entityID, "error", err)
		return
	}
	e.signals.Forget(entityID)
	if removed {
		e.broadcast("controller.unregistered", map[string]any{
			"entity_id": entityID,
			"reason":    "entity_removed",
		})
	}
}

// OnTick advances the engine by one tick. Signal cycles and cleanup
// sweeps fire on their configured intervals; other ticks are free.
func (e *Engine) OnTick(ctx context.Context, tick int64) {
	if tick%e.cfg.CleanupInterval == 0 {
		e.cleanupSweep(ctx)
	}
	if tick%e.cfg.SignalInterval == 0 {
		e.signalCycle(ctx, tick)
	}
}

// Run drives OnTick from an internal ticker until ctx is cancelled.
// Hosts that own the tick cadence call OnTick directly instead.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.TickRate)
	defer ticker.Stop()

	e.logger.Info("engine run loop started", "tick_rate", e.cfg.TickRate.String())

	var tick int64
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine run loop stopped")
			return
		case <-ticker.C:
			tick++
			e.OnTick(ctx, tick)
		}
	}
}

// signalCycle sweeps every controller: read signals, translate, apply,
// sync. Controllers on dead entities are collected and unregistered
// after the sweep.
func (e *Engine) signalCycle(ctx context.Context, tick int64) {
	started := time.Now()
	controllers := e.registry.Controllers()

	var dead []string
	processed := 0
	failures := 0
	livenessReady := e.liveness.Ready()

	for i := range controllers {
		c := &controllers[i]

		if !e.liveness.Alive(c.EntityID) {
			// Before the snapshot settles, absent means unknown; hold
			// the controller instead of unregistering it.
			if livenessReady {
				dead = append(dead, c.EntityID)
			}
			continue
		}

		if err := e.processController(ctx, c, tick); err != nil {
			failures++
			e.logger.Warn("controller cycle failed",
				"entity_id", c.EntityID, "group_id", c.GroupID, "error", err)
			continue
		}
		processed++
	}

	for _, entityID := range dead {
		e.dropController(ctx, entityID, "entity_dead")
	}

	duration := time.Since(started)
	e.metrics.CyclesTotal.Inc()
	e.metrics.ControllersProcessed.Add(float64(processed))
	e.metrics.CycleDuration.Observe(duration.Seconds())
	e.metrics.ControllersActive.Set(float64(e.registry.ControllerCount()))
	e.metrics.GroupsActive.Set(float64(e.groups.GroupCount()))

	if e.telemetry != nil {
		e.telemetry.RecordCycle(tick, processed, failures, duration)
	}

	e.logger.Debug("signal cycle complete",
		"tick", tick,
		"processed", processed,
		"failed", failures,
		"removed", len(dead),
		"duration_ms", duration.Milliseconds(),
	)
}

// processController runs the translate-apply-sync pipeline for one
// controller. Any error leaves the group's previous requests standing.
func (e *Engine) processController(ctx context.Context, c *controller.Controller, tick int64) error {
	readings, err := e.signals.Read(c.EntityID)
	if err != nil {
		e.metrics.TranslationFailures.Inc()
		return err
	}

	group, err := e.groups.GetGroup(c.GroupID)
	if err != nil {
		if errors.Is(err, logistics.ErrGroupNotFound) {
			// Group vanished under the controller; drop the controller
			// rather than failing every cycle.
			e.dropController(ctx, c.EntityID, "group_deleted")
			return nil
		}
		e.metrics.TranslationFailures.Inc()
		return err
	}

	requests, order := controller.Translate(c, readings, group.Requests)
	if err := e.groups.ApplyRequests(ctx, c.GroupID, requests, order); err != nil {
		e.metrics.TranslationFailures.Inc()
		return err
	}
	e.registry.TouchLastUpdate(ctx, c.EntityID, tick)

	synced, err := e.groups.GetGroup(c.GroupID)
	if err != nil {
		e.metrics.TranslationFailures.Inc()
		return err
	}

	if err := e.adapter.Sync(ctx, synced); err != nil {
		e.metrics.SinkFailures.Inc()
		if errors.Is(err, sink.ErrSinkNotFound) {
			// Owner platform likely gone; the cleanup sweep reclaims it.
			e.logger.Debug("no sink for group owner",
				"group_id", synced.ID, "owner_id", synced.OwnerID)
			return nil
		}
		e.logger.Warn("sink sync failed",
			"group_id", synced.ID, "owner_id", synced.OwnerID, "error", err)
		return nil
	}
	e.metrics.SinkPushes.Inc()

	e.broadcast("group.synced", map[string]any{
		"group_id":  synced.ID,
		"owner_id":  synced.OwnerID,
		"entity_id": c.EntityID,
		"entries":   len(synced.EntryOrder),
		"tick":      tick,
	})
	return nil
}

// cleanupSweep reconciles the registry and store against liveness:
// controllers with dead entities are unregistered and groups whose
// owning platform is gone are deleted. Skipped entirely while the
// liveness snapshot is still warming, so a restart never mistakes
// not-yet-reported for gone.
func (e *Engine) cleanupSweep(ctx context.Context) {
	if !e.liveness.Ready() {
		e.logger.Debug("cleanup sweep skipped, liveness snapshot not settled")
		return
	}

	removedControllers := 0
	for _, c := range e.registry.Controllers() {
		if e.liveness.Alive(c.EntityID) {
			continue
		}
		e.dropController(ctx, c.EntityID, "entity_dead")
		removedControllers++
	}

	removedGroups := 0
	for _, g := range e.groups.ListGroups() {
		if e.liveness.Exists(g.OwnerID) {
			continue
		}
		if owner, ok := e.registry.OwnerOf(g.ID); ok {
			e.dropController(ctx, owner, "owner_gone")
		}
		if err := e.groups.DeleteGroup(ctx, g.ID); err != nil {
			e.logger.Warn("cleanup group delete failed",
				"group_id", g.ID, "owner_id", g.OwnerID, "error", err)
			continue
		}
		removedGroups++
	}

	if removedControllers > 0 || removedGroups > 0 {
		e.logger.Info("cleanup sweep reclaimed state",
			"controllers_removed", removedControllers,
			"groups_removed", removedGroups,
		)
	}
}

// dropController unregisters an entity's controller, forgets its signal
// cache, and broadcasts the removal. Errors are logged, never returned.
func (e *Engine) dropController(ctx context.Context, entityID, reason string) {
	removed, err := e.registry.Unregister(ctx, entityID)
	if err != nil {
		e.logger.Warn("unregister failed",
			"entity_id", entityID, "reason", reason, "error", err)
		return
	}
	e.signals.Forget(entityID)
	if removed {
		e.logger.Info("controller dropped", "entity_id", entityID, "reason", reason)
		e.broadcast("controller.unregistered", map[string]any{
			"entity_id": entityID,
			"reason":    reason,
		})
	}
}

func (e *Engine) broadcast(channel string, payload any) {
	if e.hub != nil {
		e.hub.Broadcast(channel, payload)
	}
}
