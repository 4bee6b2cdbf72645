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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFuture_CompleteOnce(t *testing.T) {
	f := New[int]()
	if !f.Complete(1, nil) {
		t.Fatalf("first Complete() returned false")
	}
	if f.Complete(2, errors.New("late")) {
		t.Fatalf("second Complete() returned true")
	}
	v, err := f.Wait(context.Background())
	if err != nil || v != 1 {
		t.Fatalf("Wait() = %d, %v; want 1, nil", v, err)
	}
}

func TestFuture_OnComplete(t *testing.T) {
	f := New[string]()
	var got []string
	f.OnComplete(func(s string, _ error) { got = append(got, "early:"+s) })
	f.Complete("x", nil)
	// registered after completion, must still fire
	f.OnComplete(func(s string, _ error) { got = append(got, "late:"+s) })

	if d := cmp.Diff([]string{"early:x", "late:x"}, got); d != "" {
		t.Errorf("callbacks mismatch (-want +got):\n%s", d)
	}
}

func TestFuture_WaitContext(t *testing.T) {
	f := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want deadline exceeded", err)
	}
	if f.IsDone() {
		t.Fatalf("IsDone() = true on a pending future")
	}
}

func TestFuture_ConcurrentComplete(t *testing.T) {
	f := New[int]()
	var calls int
	var mu sync.Mutex
	f.OnComplete(func(int, error) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	wg := new(sync.WaitGroup)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.Complete(i, nil)
		}(i)
	}
	wg.Wait()
	<-f.Done()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("callback fired %d times, want 1", calls)
	}
}

func TestThen(t *testing.T) {
	first := New[int]()
	second := Then(first, func(v int, err error) *Future[string] {
		if err != nil {
			return Failed[string](err)
		}
		return Completed("value", nil)
	})
	if second.IsDone() {
		t.Fatalf("chained future resolved before its source")
	}
	first.Complete(3, nil)
	got, err := second.Wait(context.Background())
	if err != nil || got != "value" {
		t.Fatalf("Then() = %q, %v", got, err)
	}

	boom := errors.New("boom")
	failed := Then(Failed[int](boom), func(v int, err error) *Future[string] {
		return Failed[string](err)
	})
	if _, err := failed.Wait(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Then() error = %v, want %v", err, boom)
	}
}

func TestMap(t *testing.T) {
	f := Map(Completed(2, nil), func(v int, err error) (int, error) {
		return v * 2, err
	})
	got, err := f.Wait(context.Background())
	if err != nil || got != 4 {
		t.Fatalf("Map() = %d, %v", got, err)
	}
}
