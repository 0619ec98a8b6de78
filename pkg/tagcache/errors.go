package tagcache

import "errors"

// Cache-level error values.
var (
	ErrInvalidTag         = errors.New("invalid tag")
	ErrNilFetchFunc       = errors.New("nil fetch func")
	ErrNilMutateFunc      = errors.New("nil mutate func")
	ErrInvalidCacheConfig = errors.New("invalid cache config")
)
