// Package dedupe filters redelivered events by event id.
package dedupe

import "context"

// Deduper remembers event ids for a TTL (redis, in-memory, bloom prefiltered).
type Deduper interface {
	// Seen marks id and reports whether it was already marked.
	Seen(ctx context.Context, id string) (alreadySeen bool, err error)
	Health(ctx context.Context) error
}
