package tagcache

import (
	"context"
	"fmt"
	"strings"
)

// Tag groups related server-state queries for invalidation purposes.
type Tag string

// FetchFunc loads the payload for a tag from the backend.
type FetchFunc func(ctx context.Context) (any, error)

// MutateFunc performs a state-changing backend call.
type MutateFunc func(ctx context.Context) error

// Snapshot is the observable state of a cache entry at one point in time.
type Snapshot struct {
	Tag            Tag
	Payload        any
	Err            error
	Loading        bool
	FetchedUnixUTC int64
	HasPayload     bool
}

// NewTag validates and normalizes a tag.
func NewTag(raw string) (Tag, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidTag)
	}
	return Tag(trimmed), nil
}

// String returns the normalized tag value.
func (tag Tag) String() string {
	return string(tag)
}
