package sink

import "errors"

// Domain errors for the sink package.
var (
	// ErrSinkNotFound is returned by a Locator when no sink serves the
	// owner, typically because the owning platform is gone.
	ErrSinkNotFound = errors.New("sink: not found for owner")

	// ErrUnsupported is returned by older sink implementations that do
	// not accept the combined min+max registration call. The adapter
	// falls back to the minimum-only form and never surfaces this.
	ErrUnsupported = errors.New("sink: operation not supported")
)

// Sink is the downstream consumer of computed requests.
//
// Implementations may support only the minimum-only registration form;
// such implementations return ErrUnsupported from RegisterRequest and
// the adapter retries via RegisterRequestMin.
type Sink interface {
	// Requests enumerates the entry names currently registered for the owner.
	Requests(owner string) (map[string]struct{}, error)

	// RemoveRequest removes one registered entry for the owner.
	RemoveRequest(owner, entry string) error

	// RegisterRequest registers an entry with minimum and maximum quantities.
	RegisterRequest(owner, entry string, minimum, maximum int64) error

	// RegisterRequestMin registers an entry with only a minimum quantity.
	RegisterRequestMin(owner, entry string, minimum int64) error
}

// Locator resolves the sink serving a given owner. Returns
// ErrSinkNotFound when the owner cannot be served.
type Locator interface {
	Locate(owner string) (Sink, error)
}

// Noop is a Sink and Locator that does nothing. It is the default
// integration when no downstream system is configured.
type Noop struct{}

// Locate always resolves to the noop sink itself.
func (n Noop) Locate(string) (Sink, error) { return n, nil }

func (Noop) Requests(string) (map[string]struct{}, error) { return nil, nil }

func (Noop) RemoveRequest(string, string) error { return nil }

func (Noop) RegisterRequest(string, string, int64, int64) error { return nil }

func (Noop) RegisterRequestMin(string, string, int64) error { return nil }
