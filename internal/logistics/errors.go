package logistics

import "errors"

// Domain errors for the logistics package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, logistics.ErrGroupNotFound) {
//	    // handle not found case
//	}
var (
	// ErrGroupNotFound is returned when a group ID does not exist.
	ErrGroupNotFound = errors.New("logistics: group not found")

	// ErrEntryNotFound is returned when a request entry name does not
	// exist in the addressed group.
	ErrEntryNotFound = errors.New("logistics: entry not found")

	// ErrInvalidOwner is returned when a group is created with an empty
	// or malformed owner identifier.
	ErrInvalidOwner = errors.New("logistics: invalid owner")

	// ErrInvalidMultiplier is returned for non-positive buffer multipliers.
	ErrInvalidMultiplier = errors.New("logistics: invalid multiplier")
)
