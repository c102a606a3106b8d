// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vault

import (
	"context"
	"sync"
)

// AccessQueue is a cooperative FIFO mutex serializing all operations
// against one shared on-disk document.
//
// # Description
//
// The shared document holds independent sections in one physical file, so
// every read-modify-write must be serialized regardless of which section it
// touches. AccessQueue grants exclusive access in strict arrival order: a
// Release hands ownership directly to the oldest waiter instead of letting
// goroutines race for the lock.
//
// The queue provides in-process exclusion only. It does not protect against
// another process or device mutating the same file.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type AccessQueue struct {
	mu      sync.Mutex
	held    bool
	waiters []chan struct{}
}

// NewAccessQueue creates an idle queue.
func NewAccessQueue() *AccessQueue {
	return &AccessQueue{}
}

// Acquire suspends the caller until it holds exclusive access.
//
// # Description
//
// Waiters are served in FIFO order. If ctx is cancelled while waiting, the
// caller is removed from the queue without disturbing the order of the
// remaining waiters and ctx.Err() is returned.
//
// # Inputs
//
//   - ctx: Context for cancellation while waiting.
//
// # Outputs
//
//   - error: nil once exclusive access is held, or ctx.Err().
func (q *AccessQueue) Acquire(ctx context.Context) error {
	q.mu.Lock()
	if !q.held {
		q.held = true
		q.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	q.waiters = append(q.waiters, ready)
	q.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		q.mu.Lock()
		for i, w := range q.waiters {
			if w == ready {
				q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
				q.mu.Unlock()
				return ctx.Err()
			}
		}
		q.mu.Unlock()
		// Ownership was handed to us between Done and here; pass it on so
		// the lock is not leaked.
		q.Release()
		return ctx.Err()
	}
}

// Release hands exclusive access to the next waiter, or marks the
// resource free when nobody is waiting.
func (q *AccessQueue) Release() {
	q.mu.Lock()
	if len(q.waiters) > 0 {
		next := q.waiters[0]
		q.waiters = q.waiters[1:]
		q.mu.Unlock()
		// held stays true: ownership transfers to the waiter.
		close(next)
		return
	}
	q.held = false
	q.mu.Unlock()
}

// WithLock runs fn while holding exclusive access.
//
// # Description
//
// Acquires, runs fn, and releases on every exit path: normal return, error
// return, and panic (the panic is re-raised after the release). Errors from
// fn propagate to the caller unchanged.
//
// # Inputs
//
//   - ctx: Context for cancellation while waiting for the lock.
//   - fn: The critical section. Must not call Acquire on the same queue.
//
// # Outputs
//
//   - error: ctx.Err() if cancelled before acquisition, else fn's error.
func (q *AccessQueue) WithLock(ctx context.Context, fn func() error) error {
	if err := q.Acquire(ctx); err != nil {
		return err
	}
	defer q.Release()
	return fn()
}
