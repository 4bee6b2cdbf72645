// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package future

import (
	"context"
	"sync"
)

// Future is a single-assignment result holder.
// The first call to Complete wins, every later call is ignored.
// Callbacks registered via OnComplete run exactly once, either in the goroutine
// that completes the Future or, if it is already completed, immediately in the caller.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	value     T
	err       error
	callbacks []func(T, error)
}

// New returns a pending Future.
func New[T any]() *Future[T] {
	return &Future[T]{
		done: make(chan struct{}),
	}
}

// Completed returns a Future that is already resolved with the given value and error.
func Completed[T any](v T, err error) *Future[T] {
	f := New[T]()
	f.Complete(v, err)
	return f
}

// Failed returns a Future that is already resolved with err.
func Failed[T any](err error) *Future[T] {
	var zero T
	return Completed(zero, err)
}

// Complete resolves the Future. It returns false if the Future was already resolved.
func (f *Future[T]) Complete(v T, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.value = v
	f.err = err
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(v, err)
	}
	return true
}

// OnComplete registers cb to be called with the result.
func (f *Future[T]) OnComplete(cb func(T, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	cb(v, err)
}

// Done returns a channel that is closed once the Future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the Future is resolved.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the Future is resolved or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then chains fn onto f. The returned Future resolves with the result of the
// Future fn returns.
func Then[T, U any](f *Future[T], fn func(T, error) *Future[U]) *Future[U] {
	out := New[U]()
	f.OnComplete(func(v T, err error) {
		next := fn(v, err)
		if next == nil {
			var zero U
			out.Complete(zero, nil)
			return
		}
		next.OnComplete(func(u U, err error) {
			out.Complete(u, err)
		})
	})
	return out
}

// Map transforms the result of f synchronously.
func Map[T, U any](f *Future[T], fn func(T, error) (U, error)) *Future[U] {
	out := New[U]()
	f.OnComplete(func(v T, err error) {
		out.Complete(fn(v, err))
	})
	return out
}
