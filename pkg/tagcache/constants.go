package tagcache

import "time"

const (
	operationQuery      = "query"
	operationMutate     = "mutate"
	operationInvalidate = "invalidate"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	// DefaultStaleWindow is how long a fetched payload is served without
	// a new network call.
	DefaultStaleWindow = 60 * time.Second
)
