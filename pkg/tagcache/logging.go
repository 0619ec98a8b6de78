package tagcache

import "context"

// CacheOption configures a Cache instance.
type CacheOption func(*Cache)

// OperationLogger records cache operations (queries, mutations, invalidations).
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes one cache operation.
type OperationLog struct {
	Operation string
	Tag       Tag
	Tags      []Tag
	Status    string
	Error     error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) CacheOption {
	return func(cache *Cache) {
		cache.logger = logger
	}
}
