package ports

import "context"

// UnitSource lists the acquisition files currently visible to the engine.
//
// Implementations watch a directory the echosounder writes into. Listings
// are sorted by identifier; insertions between listings are expected, and
// disappearances must be tolerated by the caller.
type UnitSource interface {
	// List returns the sorted identifiers of all currently-present units.
	List(ctx context.Context) ([]string, error)

	// Resolve maps a unit identifier from List to the path handed to the
	// decoder.
	Resolve(id string) string

	// Wait blocks until new units may be present: either the polling
	// interval elapsed or the underlying watcher signalled a change.
	// Returns ctx.Err() when the context is cancelled.
	Wait(ctx context.Context) error

	// Close releases watcher resources.
	Close() error
}
