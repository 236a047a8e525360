package controller

import "time"

// DefaultTarget is the sentinel destination label assigned to new
// controllers until an operator points them somewhere specific.
const DefaultTarget = "home"

// Override customises translation for one item on one controller.
// Both fields are optional; nil means "use the default".
type Override struct {
	// Multiplier replaces the controller's default buffer multiplier
	// for this item. Must be > 0 when present.
	Multiplier *float64 `json:"multiplier,omitempty"`

	// MaxQuantity pins the item's maximum outright, independent of any
	// multiplier. Must be >= 0 when present.
	MaxQuantity *int64 `json:"max_quantity,omitempty"`
}

// Controller is the registration record tying one external entity to
// the supply group it drives.
//
// The controller holds its group by identifier, never by embedding, so
// group deletion does not require walking controllers. The backing
// entity is likewise held as an identifier whose liveness is rechecked
// every cycle, never cached.
type Controller struct {
	// EntityID identifies the live external entity backing this
	// controller. Doubles as the registry key.
	EntityID string `json:"entity_id"`

	// GroupID is the single group this controller owns.
	GroupID string `json:"group_id"`

	// Target is a free-form destination label for downstream consumers.
	Target string `json:"target"`

	// LastUpdate is the tick of the most recent translation cycle.
	LastUpdate int64 `json:"last_update"`

	// DefaultMultiplier is the buffer multiplier applied when an item
	// has no multiplier override. Always > 0.
	DefaultMultiplier float64 `json:"default_multiplier"`

	// Overrides maps item name to its per-controller customisation.
	// The controller exclusively owns this map.
	Overrides map[string]Override `json:"overrides"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates a complete independent copy of the Controller.
func (c *Controller) DeepCopy() *Controller {
	if c == nil {
		return nil
	}

	cpy := *c

	if c.Overrides != nil {
		cpy.Overrides = make(map[string]Override, len(c.Overrides))
		for name, ov := range c.Overrides {
			o := ov
			if ov.Multiplier != nil {
				m := *ov.Multiplier
				o.Multiplier = &m
			}
			if ov.MaxQuantity != nil {
				q := *ov.MaxQuantity
				o.MaxQuantity = &q
			}
			cpy.Overrides[name] = o
		}
	}

	return &cpy
}

// EffectiveMultiplier resolves the buffer multiplier for an item:
// override multiplier if present, otherwise the controller default.
func (c *Controller) EffectiveMultiplier(item string) float64 {
	if ov, ok := c.Overrides[item]; ok && ov.Multiplier != nil {
		return *ov.Multiplier
	}
	return c.DefaultMultiplier
}
