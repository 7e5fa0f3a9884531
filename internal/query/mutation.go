package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klubi/adminctl/pkg/client"
)

// Callbacks are invoked after a mutation resolves. Either may be nil.
type Callbacks[Out any] struct {
	OnSuccess func(Out)
	OnError   func(error)
}

// Mutation issues write requests and, on success, invalidates a fixed set of
// keys declared at construction.
type Mutation[In, Out any] struct {
	cache      *Cache
	build      func(In) (client.Request, error)
	callbacks  Callbacks[Out]
	invalidate []Key
	id         string

	mu      sync.Mutex
	state   MutationState[Out]
	updates chan struct{}
}

// NewMutation creates a mutation. build turns caller input into a request;
// invalidate lists the keys made stale by every successful call. The list is
// copied and never recomputed.
func NewMutation[In, Out any](c *Cache, build func(In) client.Request, cb Callbacks[Out], invalidate ...Key) *Mutation[In, Out] {
	return NewCheckedMutation(c, func(in In) (client.Request, error) { return build(in), nil }, cb, invalidate...)
}

// NewCheckedMutation is NewMutation for builders that can reject their
// input. A build error fails the call like a request error, without
// sending anything.
func NewCheckedMutation[In, Out any](c *Cache, build func(In) (client.Request, error), cb Callbacks[Out], invalidate ...Key) *Mutation[In, Out] {
	keys := make([]Key, len(invalidate))
	for i, k := range invalidate {
		keys[i] = NewKey(k...)
	}
	return &Mutation[In, Out]{
		cache:      c,
		build:      build,
		callbacks:  cb,
		invalidate: keys,
		id:         uuid.New().String(),
		state:      MutationState[Out]{Status: StatusIdle},
		updates:    make(chan struct{}, 1),
	}
}

// Mutate starts the write in the background and returns immediately.
// The outcome is reported through State, Updates and the callbacks.
func (m *Mutation[In, Out]) Mutate(in In) {
	req, err := m.build(in)
	m.begin()
	if err != nil {
		go func() { _, _ = m.fail(err) }()
		return
	}
	go func() {
		_, _ = m.exec(m.cache.ctx, req)
	}()
}

// Do performs the write and waits for it. Callbacks and invalidation run
// exactly as for Mutate before Do returns.
func (m *Mutation[In, Out]) Do(ctx context.Context, in In) (Out, error) {
	req, err := m.build(in)
	m.begin()
	if err != nil {
		return m.fail(err)
	}
	return m.exec(ctx, req)
}

// State returns the current mutation status.
func (m *Mutation[In, Out]) State() MutationState[Out] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsSuccess reports whether any call on this mutation has succeeded.
func (m *Mutation[In, Out]) IsSuccess() bool {
	return m.State().IsSuccess
}

// Updates delivers a wake-up on every status change.
func (m *Mutation[In, Out]) Updates() <-chan struct{} { return m.updates }

func (m *Mutation[In, Out]) begin() {
	m.mu.Lock()
	m.state.Status = StatusPending
	m.state.Err = nil
	m.mu.Unlock()
	m.notify()
}

func (m *Mutation[In, Out]) exec(ctx context.Context, req client.Request) (Out, error) {
	log := m.cache.logger.With(
		zap.String("mutation", m.id),
		zap.String("method", req.Method),
		zap.String("url", req.URL),
	)
	log.Debug("mutation: request issued")

	var out Out
	resp, err := m.cache.transport.Do(ctx, req)
	if err == nil && resp != nil && len(resp.Data) > 0 {
		if decodeErr := json.Unmarshal(resp.Data, &out); decodeErr != nil {
			err = fmt.Errorf("decode mutation response: %w", decodeErr)
		}
	}

	if err != nil {
		log.Debug("mutation: request failed", zap.Error(err))
		return m.fail(err)
	}

	m.mu.Lock()
	m.state.Status = StatusSuccess
	m.state.IsSuccess = true
	m.state.Data = out
	m.state.Err = nil
	m.mu.Unlock()

	if m.callbacks.OnSuccess != nil {
		m.callbacks.OnSuccess(out)
	}
	if len(m.invalidate) > 0 {
		m.cache.Invalidate(m.invalidate...)
	}
	m.notify()

	log.Debug("mutation: request succeeded", zap.Int("invalidated", len(m.invalidate)))
	return out, nil
}

// fail records err as the outcome of the current call.
func (m *Mutation[In, Out]) fail(err error) (Out, error) {
	var out Out
	m.mu.Lock()
	m.state.Status = StatusError
	m.state.Err = err
	m.mu.Unlock()
	m.notify()

	if m.callbacks.OnError != nil {
		m.callbacks.OnError(err)
	}
	return out, err
}

func (m *Mutation[In, Out]) notify() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}
