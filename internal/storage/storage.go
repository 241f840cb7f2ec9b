package storage

import "context"

// URLResolver turns a stored avatar object key into a fetchable URL.
// Absolute URLs never reach a resolver; callers pass object keys only.
type URLResolver interface {
	ResolveURL(ctx context.Context, key string) (string, error)
}
