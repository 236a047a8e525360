package controller

import "errors"

// Domain errors for the controller package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, controller.ErrAlreadyControlled) {
//	    // group is owned by another live controller
//	}
var (
	// ErrControllerNotFound is returned when an entity ID has no
	// registration record.
	ErrControllerNotFound = errors.New("controller: not found")

	// ErrAlreadyControlled is returned when registering against a group
	// that is owned by a different, still-live controller.
	ErrAlreadyControlled = errors.New("controller: group already controlled")

	// ErrInvalidMultiplier is returned for non-positive buffer multipliers.
	ErrInvalidMultiplier = errors.New("controller: invalid multiplier")

	// ErrInvalidOverride is returned when an override carries a
	// negative fixed maximum.
	ErrInvalidOverride = errors.New("controller: invalid override")
)
