package evidence

import "context"

// Storage is the durable persistence contract for evidence records. Manager
// keeps its own in-memory indexes regardless of which Storage is attached
// (they drive ByType/BySource/ByTimestamp and must stay fast); Storage is
// the write-through backing store used for durability and retention pruning.
type Storage interface {
	// Store persists a single record. Implementations must treat a
	// duplicate ID as a no-op overwrite, since Manager has already
	// rejected duplicates before calling Store.
	Store(ctx context.Context, record *Record) error

	// Get retrieves a record by ID.
	Get(ctx context.Context, id string) (*Record, error)

	// All returns every stored record, used to rebuild Manager's
	// in-memory indexes on startup.
	All(ctx context.Context) ([]*Record, error)

	// Delete removes a record by ID. A missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the backend.
	Close() error
}
