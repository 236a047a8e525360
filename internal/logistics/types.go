package logistics

import (
	"encoding/json"
	"time"
)

// DefaultBufferMultiplier is the buffer multiplier assigned to newly
// created groups and controllers when no explicit value is configured.
const DefaultBufferMultiplier = 2.0

// RequestEntry holds the desired quantities for one named item.
//
// Min is the authoritative value derived from signal readings. Max is
// derived from Min and the effective buffer multiplier unless a fixed
// override pins it. Enabled defaults to true and survives signal
// refreshes; a disabled entry is kept in the group but skipped when
// requests are pushed to the downstream sink.
type RequestEntry struct {
	Min     int64 `json:"min"`
	Max     int64 `json:"max"`
	Enabled bool  `json:"enabled"`
}

// UnmarshalJSON defaults Enabled to true when the field is absent, so
// rows written by other tooling do not come back silently disabled.
func (e *RequestEntry) UnmarshalJSON(data []byte) error {
	type plain RequestEntry
	entry := plain{Enabled: true}
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	*e = RequestEntry(entry)
	return nil
}

// Group is a named collection of request entries owned by one platform.
//
// Requests maps item name to its entry; EntryOrder preserves the order
// in which items first appeared so listings are stable across cycles.
type Group struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`

	Requests   map[string]*RequestEntry `json:"requests"`
	EntryOrder []string                 `json:"entry_order"`

	// Locked is true exactly while a controller owns this group.
	Locked bool `json:"locked"`

	// DefaultMultiplier is the group-level buffer multiplier applied by
	// UpdateMultipliers when no per-call value is given. Always > 0.
	DefaultMultiplier float64 `json:"default_multiplier"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates a complete independent copy of the Group.
// Map and slice fields are cloned so modifications to the copy do not
// affect the original. This is essential for store isolation.
func (g *Group) DeepCopy() *Group {
	if g == nil {
		return nil
	}

	cpy := *g

	if g.Requests != nil {
		cpy.Requests = make(map[string]*RequestEntry, len(g.Requests))
		for name, entry := range g.Requests {
			e := *entry
			cpy.Requests[name] = &e
		}
	}

	if g.EntryOrder != nil {
		cpy.EntryOrder = make([]string, len(g.EntryOrder))
		copy(cpy.EntryOrder, g.EntryOrder)
	}

	return &cpy
}

// Entry returns the request entry for the named item, or nil if absent.
func (g *Group) Entry(name string) *RequestEntry {
	if g.Requests == nil {
		return nil
	}
	return g.Requests[name]
}
