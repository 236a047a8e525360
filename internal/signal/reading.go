package signal

// Reading is one raw signal sample: an item name and its reported count.
type Reading struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Source supplies aggregated readings for one controller entity.
//
// Implementations must be safe for concurrent use; the cycle engine
// reads every registered controller's signals each sweep.
type Source interface {
	// Read returns the current aggregated readings for the entity.
	// A missing entity yields an empty slice, not an error.
	Read(entityID string) ([]Reading, error)
}

// Aggregate sums raw counts per item name across all channels.
//
// The result preserves the order in which names first appear across the
// channel slices, so downstream request listings stay stable between
// cycles. Non-positive counts are kept here; the translator is the
// single place that drops them.
func Aggregate(channels ...[]Reading) []Reading {
	totals := make(map[string]int64)
	var order []string

	for _, channel := range channels {
		for _, r := range channel {
			if _, seen := totals[r.Name]; !seen {
				order = append(order, r.Name)
			}
			totals[r.Name] += r.Count
		}
	}

	out := make([]Reading, 0, len(order))
	for _, name := range order {
		out = append(out, Reading{Name: name, Count: totals[name]})
	}
	return out
}

// StaticSource is a Source backed by a fixed map, for tests and for
// hosts that push readings directly instead of via the broker.
type StaticSource map[string][]Reading

// Read returns the configured readings for the entity.
func (s StaticSource) Read(entityID string) ([]Reading, error) {
	return s[entityID], nil
}
