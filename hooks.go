package chunkcache

// Operation names passed to Hooks.
const (
	OpWrite  = "write"
	OpLookup = "lookup"
)

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
type Hooks interface {
	// The lock for hash was not acquired within LockWait. op ∈ {OpWrite, OpLookup}.
	LockTimeout(op, hash string)

	// A backend call outside chunk writing failed (fetch, pre-write delete),
	// or a lookup panicked.
	BackendError(op, hash string, err error)

	// A write stopped part way; the entry was deleted (or OrphanedEntry follows).
	WriteAborted(hash string, err error)

	// Deleting a partial entry after WriteAborted failed. Readers may see
	// the partial entry until it is rewritten.
	OrphanedEntry(hash string, err error)

	// A stored entry could not be decoded; it was dropped and reported as a miss.
	DecodeFailed(hash string, err error)

	// Setting or refreshing the TTL failed. The entry itself is intact.
	ExpiryFailed(hash string, err error)

	// A write completed.
	Written(hash string, records, chunks int)

	// A lookup completed without error.
	Lookup(hash string, hit bool, records int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) LockTimeout(string, string)         {}
func (NopHooks) BackendError(string, string, error) {}
func (NopHooks) WriteAborted(string, error)         {}
func (NopHooks) OrphanedEntry(string, error)        {}
func (NopHooks) DecodeFailed(string, error)         {}
func (NopHooks) ExpiryFailed(string, error)         {}
func (NopHooks) Written(string, int, int)           {}
func (NopHooks) Lookup(string, bool, int)           {}
