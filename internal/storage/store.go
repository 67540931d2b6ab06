package storage

import (
	"context"
	"errors"
)

// Collections shared by the storefront and the admin dashboard.
const (
	CollectionOrders       = "orders"
	CollectionUserOrders   = "userOrders"
	CollectionUsers        = "users"
	CollectionSessionLocal = "session.local" // survives restarts
	CollectionSessionTab   = "session.tab"   // this tab only
)

// KeyAll holds a whole record list under a single key.
const KeyAll = "all"

var ErrNotFound = errors.New("storage: key not found")

// Store is a key-value store of JSON records grouped by collection.
// Remove on a missing key is not an error.
type Store interface {
	Get(ctx context.Context, collection, key string) ([]byte, error)
	Set(ctx context.Context, collection, key string, value []byte) error
	Remove(ctx context.Context, collection, key string) error
}
