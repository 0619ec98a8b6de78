package tagcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache holds server-state query results keyed by semantic tag. Concurrent
// queries for the same tag share one underlying fetch; mutations mark
// related tags stale so the next query bypasses the staleness window.
type Cache struct {
	mu          sync.Mutex
	entries     map[Tag]*entry
	group       singleflight.Group
	staleWindow time.Duration
	nowFn       func() time.Time
	retryOnce   bool
	logger      OperationLogger
}

type entry struct {
	payload     any
	hasPayload  bool
	err         error
	loading     bool
	fetchedAt   time.Time
	invalidated bool
	subscribers map[int]SubscribeFunc
	nextSubID   int
}

// SubscribeFunc receives entry snapshots whenever an entry's state changes.
type SubscribeFunc func(Snapshot)

// NewCache wires a Cache with the default staleness window and wall clock.
func NewCache(options ...CacheOption) *Cache {
	cache := &Cache{
		entries:     make(map[Tag]*entry),
		staleWindow: DefaultStaleWindow,
		nowFn:       time.Now,
	}
	for _, option := range options {
		if option != nil {
			option(cache)
		}
	}
	return cache
}

// WithStaleWindow overrides the staleness window.
func WithStaleWindow(window time.Duration) CacheOption {
	return func(cache *Cache) {
		if window > 0 {
			cache.staleWindow = window
		}
	}
}

// WithClock overrides the clock used for staleness decisions.
func WithClock(now func() time.Time) CacheOption {
	return func(cache *Cache) {
		if now != nil {
			cache.nowFn = now
		}
	}
}

// WithRetry enables a single immediate re-fetch after a failed fetch.
// Retrying is always the caller's decision; the cache never backs off.
func WithRetry(enabled bool) CacheOption {
	return func(cache *Cache) {
		cache.retryOnce = enabled
	}
}

// Query returns the cached payload for tag when it is fresh, otherwise
// invokes fetch. Concurrent queries for the same tag attach to the same
// in-flight fetch. On failure any previous payload stays visible and the
// error is recorded on the entry as well as returned.
func (cache *Cache) Query(ctx context.Context, tag Tag, fetch FetchFunc) (Snapshot, error) {
	if _, err := NewTag(tag.String()); err != nil {
		return Snapshot{}, err
	}
	if fetch == nil {
		return Snapshot{}, fmt.Errorf("%w: query %q", ErrNilFetchFunc, tag)
	}

	cache.mu.Lock()
	cacheEntry := cache.entryLocked(tag)
	if cacheEntry.hasPayload && !cacheEntry.invalidated && cache.nowFn().Sub(cacheEntry.fetchedAt) < cache.staleWindow {
		snapshot := cacheEntry.snapshot(tag)
		cache.mu.Unlock()
		cache.logOperation(ctx, OperationLog{Operation: operationQuery, Tag: tag})
		return snapshot, nil
	}
	cacheEntry.loading = true
	loadingSnapshot := cacheEntry.snapshot(tag)
	callbacks := cacheEntry.subscriberList()
	cache.mu.Unlock()
	notify(callbacks, loadingSnapshot)

	_, fetchErr, _ := cache.group.Do(tag.String(), func() (any, error) {
		payload, err := fetch(ctx)
		if err != nil && cache.retryOnce {
			payload, err = fetch(ctx)
		}
		cache.storeResult(tag, payload, err)
		return payload, err
	})

	cache.mu.Lock()
	snapshot := cache.entryLocked(tag).snapshot(tag)
	cache.mu.Unlock()
	cache.logOperation(ctx, OperationLog{Operation: operationQuery, Tag: tag, Error: fetchErr})
	return snapshot, fetchErr
}

// Mutate invokes mutate and, only on success, marks every related tag
// invalid so the next query for those tags refetches. Mutation failures
// are returned to the caller untouched and invalidate nothing.
func (cache *Cache) Mutate(ctx context.Context, mutate MutateFunc, relatedTags ...Tag) error {
	if mutate == nil {
		return ErrNilMutateFunc
	}
	mutationError := mutate(ctx)
	if mutationError == nil {
		cache.Invalidate(relatedTags...)
	}
	cache.logOperation(ctx, OperationLog{Operation: operationMutate, Tags: relatedTags, Error: mutationError})
	return mutationError
}

// Invalidate marks the given tags stale. The next query for a stale tag
// bypasses the staleness window and refetches.
func (cache *Cache) Invalidate(tags ...Tag) {
	notifications := make([]func(), 0, len(tags))
	cache.mu.Lock()
	for _, tag := range tags {
		cacheEntry, ok := cache.entries[tag]
		if !ok {
			continue
		}
		cacheEntry.invalidated = true
		snapshot := cacheEntry.snapshot(tag)
		callbacks := cacheEntry.subscriberList()
		notifications = append(notifications, func() { notify(callbacks, snapshot) })
	}
	cache.mu.Unlock()
	for _, notification := range notifications {
		notification()
	}
	cache.logOperation(context.Background(), OperationLog{Operation: operationInvalidate, Tags: tags})
}

// Subscribe registers a callback invoked on every state change of the tag's
// entry. The returned function unsubscribes; when the last subscriber
// leaves, the entry is dropped and the next query refetches.
func (cache *Cache) Subscribe(tag Tag, callback SubscribeFunc) func() {
	if callback == nil {
		return func() {}
	}
	cache.mu.Lock()
	cacheEntry := cache.entryLocked(tag)
	subscriberID := cacheEntry.nextSubID
	cacheEntry.nextSubID++
	cacheEntry.subscribers[subscriberID] = callback
	cache.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			cache.mu.Lock()
			defer cache.mu.Unlock()
			current, ok := cache.entries[tag]
			if !ok {
				return
			}
			delete(current.subscribers, subscriberID)
			if len(current.subscribers) == 0 {
				delete(cache.entries, tag)
			}
		})
	}
}

// Peek returns the current snapshot for tag without fetching.
func (cache *Cache) Peek(tag Tag) Snapshot {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cacheEntry, ok := cache.entries[tag]
	if !ok {
		return Snapshot{Tag: tag}
	}
	return cacheEntry.snapshot(tag)
}

func (cache *Cache) storeResult(tag Tag, payload any, fetchErr error) {
	cache.mu.Lock()
	cacheEntry := cache.entryLocked(tag)
	cacheEntry.loading = false
	cacheEntry.err = fetchErr
	if fetchErr == nil {
		cacheEntry.payload = payload
		cacheEntry.hasPayload = true
		cacheEntry.fetchedAt = cache.nowFn()
		cacheEntry.invalidated = false
	}
	snapshot := cacheEntry.snapshot(tag)
	callbacks := cacheEntry.subscriberList()
	cache.mu.Unlock()
	notify(callbacks, snapshot)
}

func (cache *Cache) entryLocked(tag Tag) *entry {
	cacheEntry, ok := cache.entries[tag]
	if !ok {
		cacheEntry = &entry{subscribers: make(map[int]SubscribeFunc)}
		cache.entries[tag] = cacheEntry
	}
	return cacheEntry
}

func (cache *Cache) logOperation(ctx context.Context, logEntry OperationLog) {
	if cache.logger == nil {
		return
	}
	if logEntry.Status == "" {
		if logEntry.Error != nil {
			logEntry.Status = operationStatusError
		} else {
			logEntry.Status = operationStatusOK
		}
	}
	cache.logger.LogOperation(ctx, logEntry)
}

func (cacheEntry *entry) snapshot(tag Tag) Snapshot {
	var fetchedUnixUTC int64
	if !cacheEntry.fetchedAt.IsZero() {
		fetchedUnixUTC = cacheEntry.fetchedAt.UTC().Unix()
	}
	return Snapshot{
		Tag:            tag,
		Payload:        cacheEntry.payload,
		Err:            cacheEntry.err,
		Loading:        cacheEntry.loading,
		FetchedUnixUTC: fetchedUnixUTC,
		HasPayload:     cacheEntry.hasPayload,
	}
}

func (cacheEntry *entry) subscriberList() []SubscribeFunc {
	callbacks := make([]SubscribeFunc, 0, len(cacheEntry.subscribers))
	for _, callback := range cacheEntry.subscribers {
		callbacks = append(callbacks, callback)
	}
	return callbacks
}

func notify(callbacks []SubscribeFunc, snapshot Snapshot) {
	for _, callback := range callbacks {
		callback(snapshot)
	}
}
