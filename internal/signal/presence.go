package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// settlePoll is how often WaitSettled re-checks for quiet on the
// presence topic while waiting for the retained snapshot to finish.
const settlePoll = 25 * time.Millisecond

// Presence tracks which entities and platforms are currently alive,
// derived from retained status messages on the broker. Entities publish
// an online status with a Last Will that flips it to offline, so a
// crashed unit is reported dead without any polling.
//
// Expected topic shape: <prefix>/presence/<kind>/<id> with kind
// "entity" or "platform". Payload: {"status":"online"} or
// {"status":"offline"}.
//
// A fresh tracker is not Ready: the broker replays the retained
// snapshot asynchronously after subscribe, so until WaitSettled has
// run, an empty map means "unknown", not "everything is dead".
//
// Thread Safety: all methods are safe for concurrent use.
type Presence struct {
	mu        sync.RWMutex
	entities  map[string]bool
	platforms map[string]bool
	lastEvent time.Time
	ready     bool
}

// NewPresence creates an empty presence tracker.
func NewPresence() *Presence {
	return &Presence{
		entities:  make(map[string]bool),
		platforms: make(map[string]bool),
	}
}

// statusPayload is the wire format of a presence message.
type statusPayload struct {
	Status string `json:"status"`
}

// HandleStatus ingests one presence message. Wire it into the MQTT
// client's subscription for the presence wildcard topic.
func (p *Presence) HandleStatus(topic string, payload []byte) error {
	kind, id, err := splitPresenceTopic(topic)
	if err != nil {
		return err
	}

	var msg statusPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("parsing presence payload on %q: %w", topic, err)
	}
	online := msg.Status == "online"

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastEvent = time.Now()

	switch kind {
	case "entity":
		if online {
			p.entities[id] = true
		} else {
			delete(p.entities, id)
		}
	case "platform":
		if online {
			p.platforms[id] = true
		} else {
			delete(p.platforms, id)
		}
	default:
		return fmt.Errorf("unknown presence kind %q on %q", kind, topic)
	}
	return nil
}

// Alive reports whether the entity currently has an online status.
func (p *Presence) Alive(entityID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entities[entityID]
}

// Exists reports whether the owning platform currently has an online status.
func (p *Presence) Exists(ownerID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.platforms[ownerID]
}

// Ready reports whether the retained snapshot has settled. Callers
// that act on absence, like the engine's cleanup sweep, must not trust
// Alive or Exists before this returns true.
func (p *Presence) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// Counts returns how many entities and platforms are currently online.
func (p *Presence) Counts() (entities, platforms int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entities), len(p.platforms)
}

// WaitSettled blocks until no presence message has arrived for the
// quiesce window, then marks the tracker Ready. The limit bounds the
// total wait so a chattering topic cannot stall startup forever. A
// cancelled ctx ends the wait without marking the tracker ready, since
// an interrupted warm-up is not a settled snapshot. Call it after
// subscribing to the presence wildcard so the retained snapshot is
// replayed first.
func (p *Presence) WaitSettled(ctx context.Context, quiesce, limit time.Duration) {
	start := time.Now()
	deadline := start.Add(limit)

	for {
		p.mu.RLock()
		last := p.lastEvent
		p.mu.RUnlock()
		if last.IsZero() {
			last = start
		}

		now := time.Now()
		if now.Sub(last) >= quiesce || now.After(deadline) {
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(settlePoll):
		}
	}

	p.markReady()
}

func (p *Presence) markReady() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = true
}

// splitPresenceTopic extracts kind and id from a presence topic.
// Shape: <prefix>/presence/<kind>/<id>
func splitPresenceTopic(topic string) (kind, id string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[len(parts)-3] != "presence" {
		return "", "", fmt.Errorf("unexpected presence topic %q", topic)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
