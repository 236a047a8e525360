package controller

import (
	"math"

	"github.com/nerrad567/stockflow-core/internal/logistics"
	"github.com/nerrad567/stockflow-core/internal/signal"
)

// Translate converts aggregated signal readings into a fresh request
// set for the controller's group.
//
// Per reading with a positive count:
//  1. effective multiplier = override multiplier if present, else the
//     controller default
//  2. max = floor(count * multiplier)
//  3. a fixed MaxQuantity override replaces the derived max outright
//  4. min = count
//
// Readings with count <= 0 are dropped entirely rather than emitted as
// zero-quantity entries. Entries absent from the reading set do not
// survive; only currently-signalled items appear in the result.
//
// Enablement is merged from prev by item name: a flag set between
// cycles must not be lost just because the request set is rebuilt.
// Items with no previous entry start enabled.
//
// Translate is a pure function; it never mutates the controller, the
// readings, or prev.
func Translate(c *Controller, readings []signal.Reading, prev map[string]*logistics.RequestEntry) (map[string]*logistics.RequestEntry, []string) {
	requests := make(map[string]*logistics.RequestEntry, len(readings))
	order := make([]string, 0, len(readings))

	for _, r := range readings {
		if r.Count <= 0 {
			continue
		}
		if _, dup := requests[r.Name]; dup {
			// Aggregation upstream already sums duplicates; a repeat
			// here means the caller skipped it. Last reading wins.
			order = removeName(order, r.Name)
		}

		maximum := int64(math.Floor(float64(r.Count) * c.EffectiveMultiplier(r.Name)))
		if ov, ok := c.Overrides[r.Name]; ok && ov.MaxQuantity != nil {
			maximum = *ov.MaxQuantity
		}

		enabled := true
		if prevEntry, ok := prev[r.Name]; ok {
			enabled = prevEntry.Enabled
		}

		requests[r.Name] = &logistics.RequestEntry{
			Min:     r.Count,
			Max:     maximum,
			Enabled: enabled,
		}
		order = append(order, r.Name)
	}

	return requests, order
}

// removeName deletes the first occurrence of name from order.
func removeName(order []string, name string) []string {
	for i, n := range order {
		if n == name {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
