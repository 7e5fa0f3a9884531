// Package query implements the console's shared read cache: keyed,
// deduplicated reads with subscriber notification, and mutations that
// invalidate a fixed set of keys when they succeed.
//
// One Cache is created at startup and shared by every page. Cached data is
// only ever written by a resolving request; invalidation only marks entries
// stale or re-issues their request.
package query

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/klubi/adminctl/pkg/client"
)

// Cache is the process-wide keyed store shared by all observers and
// mutations. It is safe for concurrent use.
type Cache struct {
	transport client.Transport
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
}

// entry is the cached state of one Key. All fields are guarded by Cache.mu.
type entry struct {
	id  string
	key Key
	req client.Request

	data        json.RawMessage
	hasData     bool
	dataVersion uint64
	err         error
	status      Status

	// fetching is true while a request for this key is in flight; no second
	// request is started until it resolves.
	fetching bool
	// stale marks the data as invalidated. Set while fetching it schedules
	// exactly one follow-up request on resolution.
	stale bool

	observers map[*subscriber]struct{}
}

// subscriber is one observer's notification slot.
type subscriber struct {
	id string
	ch chan struct{}
}

// snapshot is a consistent copy of an entry taken under the lock.
type snapshot struct {
	data        json.RawMessage
	hasData     bool
	dataVersion uint64
	err         error
	status      Status
}

// NewCache creates an empty cache issuing requests through t.
func NewCache(t client.Transport, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		transport: t,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		entries:   make(map[string]*entry),
	}
}

// Close aborts in-flight requests. The cache must not be used afterwards.
func (c *Cache) Close() {
	c.cancel()
}

// Invalidate marks every key stale. Keys with active observers are
// refetched right away (or once the in-flight request resolves); keys
// without observers are refetched on their next observation. Unknown keys
// are ignored.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		id := k.String()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		e, ok := c.entries[id]
		if !ok {
			continue
		}

		switch {
		case e.fetching:
			e.stale = true
			c.logger.Debug("query: invalidated in flight, refetch deferred", zap.String("key", id))
		case len(e.observers) > 0:
			c.fetchLocked(e)
			c.notifyLocked(e)
		default:
			e.stale = true
			c.logger.Debug("query: invalidated without observers", zap.String("key", id))
		}
	}
}

// subscribe registers a new observer of key and starts a request when the
// entry has no fresh data and nothing is in flight.
func (c *Cache) subscribe(key Key, req client.Request) (*entry, *subscriber) {
	id := key.String()
	sub := &subscriber{id: uuid.New().String(), ch: make(chan struct{}, 1)}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		e = &entry{
			id:        id,
			key:       NewKey(key...),
			status:    StatusPending,
			observers: make(map[*subscriber]struct{}),
		}
		c.entries[id] = e
	}
	e.req = req
	e.observers[sub] = struct{}{}

	switch {
	case e.fetching:
		c.logger.Debug("query: attached to in-flight request",
			zap.String("key", id), zap.String("observer", sub.id))
	case e.status == StatusSuccess && !e.stale:
		c.logger.Debug("query: cache hit",
			zap.String("key", id), zap.String("observer", sub.id))
	default:
		c.fetchLocked(e)
		c.notifyLocked(e)
	}
	return e, sub
}

// unsubscribe drops interest in e. A request still in flight completes and
// updates the entry but is no longer delivered to this observer.
func (c *Cache) unsubscribe(e *entry, sub *subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := e.observers[sub]; !ok {
		return
	}
	delete(e.observers, sub)
	// Drop a queued wake-up so a closed observer sees only the close.
	select {
	case <-sub.ch:
	default:
	}
	close(sub.ch)
}

func (c *Cache) snapshot(e *entry) snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot{
		data:        e.data,
		hasData:     e.hasData,
		dataVersion: e.dataVersion,
		err:         e.err,
		status:      e.status,
	}
}

// fetchLocked issues the entry's request. Callers hold c.mu and have checked
// that nothing is in flight.
func (c *Cache) fetchLocked(e *entry) {
	e.fetching = true
	e.stale = false
	e.status = StatusPending

	req := e.req
	c.logger.Debug("query: request issued",
		zap.String("key", e.id),
		zap.String("method", req.Method),
		zap.String("url", req.URL),
	)

	ch := c.group.DoChan(e.id, func() (interface{}, error) {
		return c.transport.Do(c.ctx, req)
	})
	go func() {
		res := <-ch
		resp, _ := res.Val.(*client.Response)
		c.resolve(e, resp, res.Err)
	}()
}

// resolve stores the outcome of a request and wakes observers.
func (c *Cache) resolve(e *entry, resp *client.Response, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.fetching = false
	if err != nil {
		// Last good data stays in place.
		e.err = err
		e.status = StatusError
		c.logger.Debug("query: request failed", zap.String("key", e.id), zap.Error(err))
	} else {
		e.data = nil
		if resp != nil && len(resp.Data) > 0 {
			e.data = json.RawMessage(resp.Data)
		}
		e.hasData = true
		e.dataVersion++
		e.err = nil
		e.status = StatusSuccess
		c.logger.Debug("query: request resolved", zap.String("key", e.id))
	}

	if e.stale && len(e.observers) > 0 {
		c.fetchLocked(e)
	}
	c.notifyLocked(e)
}

// notifyLocked wakes every observer of e without blocking. Slots hold at
// most one pending wake-up, so bursts coalesce.
func (c *Cache) notifyLocked(e *entry) {
	for sub := range e.observers {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}
