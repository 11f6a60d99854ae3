// Package store provides whole-blob key-value persistence for the AetherGrid
// core. Each subsystem owns one key (telemetry window, work-order list) and
// reads/replaces its blob as a unit; there is no partial-field persistence.
// Readers must tolerate absent or malformed blobs by falling back to a
// freshly generated seed.
package store

// Store is the persistence boundary injected into the domain services.
// Implementations: FileStore (production), MemoryStore (tests).
type Store interface {
	// Load returns the blob stored under key, or found=false if none exists.
	// A malformed blob is still returned as-is: interpreting it is the
	// caller's job, and callers fall back to seed data on decode failure.
	Load(key string) (blob []byte, found bool, err error)

	// Save replaces the blob under key atomically.
	Save(key string, blob []byte) error

	// Close releases resources and flushes any pending writes.
	Close() error
}
