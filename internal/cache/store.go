// Package cache is the invalidate-on-write query layer. Entries are
// keyed by (resource kind, discriminant); mutations never touch cached
// entities, they only drop the keys whose data could now be stale.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is the cache backend. Values cross the boundary as JSON so a
// memory store and a redis store behave identically.
type Store interface {
	// Get decodes the entry at key into out and reports whether it
	// existed.
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix drops every key starting with prefix. Used when the
	// discriminant of the stale keys is not known at the mutation site.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Cache keys, one per resource collection. Discriminated collections
// append their discriminant after a colon.
const (
	KeyEvents                  = "events"
	KeyEventCarpoolTrips       = "event-carpool-trips"
	KeyUserCarpoolTrips        = "user-carpool-trips"
	KeyReceivedCarpoolRequests = "received-carpool-requests"
	KeySentCarpoolRequests     = "sent-carpool-requests"
	KeyRequestPayments         = "request-payments"
	KeyEventHostings           = "event-hostings"
	KeyUserHostings            = "user-hostings"
	KeyReceivedHostingRequests = "received-hosting-requests"
	KeySentHostingRequests     = "sent-hosting-requests"
)

// Key joins a resource kind with its discriminant.
func Key(kind string, discriminant uint) string {
	return fmt.Sprintf("%s:%d", kind, discriminant)
}
