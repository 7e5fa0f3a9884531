package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klubi/adminctl/pkg/client"
)

// Observer is one consumer's view of a cached read. Create it with Observe
// and Close it when the consumer goes away.
type Observer[T any] struct {
	cache *Cache
	entry *entry
	sub   *subscriber

	fallback    T
	hasFallback bool

	mu          sync.Mutex
	closed      bool
	decoded     T
	decodeErr   error
	haveDecoded bool
	dataVersion uint64
}

// Option customises an Observer.
type Option[T any] func(*Observer[T])

// Fallback sets the value reported as Data while the key has no cached data.
func Fallback[T any](v T) Option[T] {
	return func(o *Observer[T]) {
		o.fallback = v
		o.hasFallback = true
	}
}

// Observe subscribes to key. If the key has fresh cached data it is
// available immediately; otherwise req is issued unless a request for the
// key is already in flight, in which case the observer shares its result.
//
// req must describe the same resource as key; the cache does not check it.
func Observe[T any](c *Cache, key Key, req client.Request, opts ...Option[T]) *Observer[T] {
	o := &Observer[T]{cache: c}
	for _, opt := range opts {
		opt(o)
	}
	o.entry, o.sub = c.subscribe(key, req)
	return o
}

// Key returns the observed key.
func (o *Observer[T]) Key() Key { return o.entry.key }

// ID uniquely identifies this observer in logs.
func (o *Observer[T]) ID() string { return o.sub.id }

// Updates delivers a wake-up whenever the observed entry changes. The
// channel is closed by Close.
func (o *Observer[T]) Updates() <-chan struct{} { return o.sub.ch }

// State returns the current state of the observed key.
func (o *Observer[T]) State() State[T] {
	snap := o.cache.snapshot(o.entry)

	o.mu.Lock()
	defer o.mu.Unlock()

	st := State[T]{Status: snap.status, Err: snap.err}
	if !snap.hasData {
		if o.hasFallback {
			st.Data = o.fallback
		}
		return st
	}

	if !o.haveDecoded || o.dataVersion != snap.dataVersion {
		var v T
		o.decodeErr = nil
		if len(snap.data) > 0 {
			if err := json.Unmarshal(snap.data, &v); err != nil {
				o.decodeErr = fmt.Errorf("decode %s: %w", o.entry.id, err)
			}
		}
		o.decoded = v
		o.dataVersion = snap.dataVersion
		o.haveDecoded = true
	}

	if o.decodeErr != nil {
		st.Status = StatusError
		st.Err = o.decodeErr
		if o.hasFallback {
			st.Data = o.fallback
		}
		return st
	}
	st.Data = o.decoded
	st.HasData = true
	return st
}

// Await blocks until the state leaves pending, ctx is done, or the
// observer is closed.
func (o *Observer[T]) Await(ctx context.Context) (State[T], error) {
	for {
		st := o.State()
		if st.Status != StatusPending {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case _, ok := <-o.sub.ch:
			if !ok {
				return o.State(), ErrObserverClosed
			}
		}
	}
}

// Close withdraws interest in the key. It is safe to call more than once.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.cache.unsubscribe(o.entry, o.sub)
}
