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

package tx

import "sync"

// Listener observes the lifecycle of a write transaction. Submitted is
// reported at most once, followed by exactly one of Successful, Failed and
// Cancelled. Listeners added late receive the events that already happened.
type Listener interface {
	OnTransactionSubmitted(tx Transaction)
	OnTransactionSuccessful(tx Transaction)
	OnTransactionFailed(tx Transaction, cause error)
	OnTransactionCancelled(tx Transaction)
}

type eventKind int

const (
	eventSubmitted eventKind = iota
	eventSuccessful
	eventFailed
	eventCancelled
)

type event struct {
	kind  eventKind
	cause error
}

type delivery struct {
	l Listener
	e event
}

// listenerSet delivers each event exactly once to every listener, no matter
// whether the listener was added before or after the event. Deliveries are
// queued under the lock and handed out by one goroutine at a time, so every
// listener sees the events in the order they happened. A fire or add racing
// with an ongoing delivery may return before its own events are delivered.
type listenerSet struct {
	mu         sync.Mutex
	listeners  []Listener
	events     []event
	queue      []delivery
	delivering bool
}

func (ls *listenerSet) add(tx Transaction, l Listener) {
	if l == nil {
		return
	}
	ls.mu.Lock()
	for _, e := range ls.events {
		ls.queue = append(ls.queue, delivery{l: l, e: e})
	}
	ls.listeners = append(ls.listeners, l)
	ls.drain(tx)
}

func (ls *listenerSet) fire(tx Transaction, e event) {
	ls.mu.Lock()
	ls.events = append(ls.events, e)
	for _, l := range ls.listeners {
		ls.queue = append(ls.queue, delivery{l: l, e: e})
	}
	ls.drain(tx)
}

// drain must be called with ls.mu held, it releases it. Listeners are called
// outside of the lock.
func (ls *listenerSet) drain(tx Transaction) {
	if ls.delivering {
		ls.mu.Unlock()
		return
	}
	ls.delivering = true
	for len(ls.queue) > 0 {
		d := ls.queue[0]
		ls.queue = ls.queue[1:]
		ls.mu.Unlock()
		deliver(tx, d.l, d.e)
		ls.mu.Lock()
	}
	ls.delivering = false
	ls.mu.Unlock()
}

func deliver(tx Transaction, l Listener, e event) {
	switch e.kind {
	case eventSubmitted:
		l.OnTransactionSubmitted(tx)
	case eventSuccessful:
		l.OnTransactionSuccessful(tx)
	case eventFailed:
		l.OnTransactionFailed(tx, e.cause)
	case eventCancelled:
		l.OnTransactionCancelled(tx)
	}
}
