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

package pool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Handler processes a single item.
type Handler[T any] func(ctx context.Context, item T)

// AbandonFunc is called for every item that was accepted but will never reach
// the Handler, because the pool context got cancelled.
type AbandonFunc[T any] func(item T, err error)

// Pool is a long-lived worker pool. With a single worker items are handled
// strictly in submission order.
type Pool[T any] struct {
	tasks       *Queue[T]
	workerCount int

	ctx    context.Context
	cancel context.CancelFunc

	workersWg sync.WaitGroup
	started   atomic.Bool
	closeOnce sync.Once
}

// NewWorkerPool creates a new Pool. If workerCount <= 0 it defaults to 1.
func NewWorkerPool[T any](parent context.Context, workerCount int) *Pool[T] {
	if workerCount <= 0 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(parent)
	return &Pool[T]{
		tasks:       NewQueue[T](),
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start spawns the workers. Calling Start more than once is a no-op.
func (p *Pool[T]) Start(handler Handler[T], abandon AbandonFunc[T]) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.workersWg.Add(p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		go func() {
			defer p.workersWg.Done()
			for {
				item, ok := p.tasks.Get()
				if !ok {
					return
				}
				if err := p.ctx.Err(); err != nil {
					if abandon != nil {
						abandon(item, err)
					}
					continue
				}
				handler(p.ctx, item)
			}
		}()
	}

	// close the queue once the pool context is gone, workers drain what is left
	go func() {
		<-p.ctx.Done()
		p.closeOnce.Do(p.tasks.Close)
	}()
}

// Submit enqueues an item. It fails once the pool is closed or its context is done.
func (p *Pool[T]) Submit(item T) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	return p.tasks.Put(item)
}

// Len returns the number of queued items.
func (p *Pool[T]) Len() int {
	return p.tasks.Len()
}

// Close stops accepting items, lets the workers handle everything already
// queued and waits for them to exit.
func (p *Pool[T]) Close() {
	p.closeOnce.Do(p.tasks.Close)
	p.workersWg.Wait()
	p.cancel()
}

// Abort cancels the pool context. Queued items are passed to the AbandonFunc.
func (p *Pool[T]) Abort() {
	p.cancel()
	p.workersWg.Wait()
}
