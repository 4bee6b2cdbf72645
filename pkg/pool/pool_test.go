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
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPool_SingleWorkerKeepsOrder(t *testing.T) {
	p := NewWorkerPool[int](context.Background(), 1)

	var mu sync.Mutex
	var got []int
	p.Start(func(_ context.Context, item int) {
		mu.Lock()
		got = append(got, item)
		mu.Unlock()
	}, nil)

	want := make([]int, 0, 100)
	for i := 0; i < 100; i++ {
		want = append(want, i)
		if err := p.Submit(i); err != nil {
			t.Fatalf("Submit(%d) failed: %v", i, err)
		}
	}
	p.Close()

	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("handled order mismatch (-want +got):\n%s", d)
	}
	if err := p.Submit(101); !errors.Is(err, ErrClosed) && !errors.Is(err, context.Canceled) {
		t.Errorf("Submit() after Close = %v, want closed error", err)
	}
}

func TestPool_AbortAbandonsQueued(t *testing.T) {
	p := NewWorkerPool[int](context.Background(), 1)

	block := make(chan struct{})
	entered := make(chan struct{})
	var handled, abandoned int64
	p.Start(func(_ context.Context, item int) {
		if item == 0 {
			close(entered)
			<-block
		}
		atomic.AddInt64(&handled, 1)
	}, func(_ int, err error) {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("abandon cause = %v, want context.Canceled", err)
		}
		atomic.AddInt64(&abandoned, 1)
	})

	for i := 0; i < 5; i++ {
		if err := p.Submit(i); err != nil {
			t.Fatalf("Submit(%d) failed: %v", i, err)
		}
	}
	<-entered
	go func() {
		// release the blocked handler once the context is gone
		<-p.ctx.Done()
		close(block)
	}()
	p.Abort()

	if handled != 1 {
		t.Errorf("handled = %d, want 1", handled)
	}
	if abandoned != 4 {
		t.Errorf("abandoned = %d, want 4", abandoned)
	}
}

func TestQueue_CloseDrains(t *testing.T) {
	q := NewQueue[string]()
	for _, s := range []string{"a", "b", "c"} {
		if err := q.Put(s); err != nil {
			t.Fatal(err)
		}
	}
	q.Close()
	if err := q.Put("d"); !errors.Is(err, ErrClosed) {
		t.Errorf("Put() after Close = %v, want ErrClosed", err)
	}

	var got []string
	for {
		v, ok := q.Get()
		if !ok {
			break
		}
		got = append(got, v)
	}
	if d := cmp.Diff([]string{"a", "b", "c"}, got); d != "" {
		t.Errorf("drained items mismatch (-want +got):\n%s", d)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}
