package query

import "errors"

// Status is the lifecycle phase of a query or mutation.
type Status string

const (
	StatusIdle    Status = "idle" // mutations only: never invoked
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrObserverClosed is returned by Await once the observer has been closed.
var ErrObserverClosed = errors.New("query: observer closed")

// State is the observable result of a read.
//
// When HasData is false, Data holds the fallback supplied to Observe (or the
// zero value of T).
type State[T any] struct {
	Data    T
	HasData bool
	Err     error
	Status  Status
}

func (s State[T]) IsPending() bool { return s.Status == StatusPending }
func (s State[T]) IsSuccess() bool { return s.Status == StatusSuccess }
func (s State[T]) IsError() bool   { return s.Status == StatusError }

// MutationState is the observable status of a Mutation.
type MutationState[Out any] struct {
	Status Status
	// IsSuccess latches true after the first successful call and never
	// resets for the lifetime of the Mutation.
	IsSuccess bool
	Data      Out
	Err       error
}
