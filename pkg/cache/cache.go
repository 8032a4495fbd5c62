// Package cache provides a TTL cache for discovered market metadata, so a
// restart inside a window does not hammer the Gamma API.
package cache

import "time"

// Cache stores discovery results keyed by market slug.
type Cache interface {
	// Get retrieves a value. The second return reports whether it was
	// present.
	Get(key string) (interface{}, bool)

	// Set stores a value with a TTL.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value.
	Delete(key string)

	// Clear removes all values.
	Clear()

	// Close releases resources.
	Close()
}
