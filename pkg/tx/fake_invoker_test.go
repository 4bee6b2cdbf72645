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

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/openconfig/gnmi/proto/gnmi"

	"github.com/sdcio/netconf-client/pkg/future"
	"github.com/sdcio/netconf-client/pkg/netconf/ops"
	"github.com/sdcio/netconf-client/pkg/netconf/types"
	"github.com/sdcio/netconf-client/pkg/utils"
)

type heldCall struct {
	desc   string
	result *future.Future[*types.NetconfResponse]
}

// fakeInvoker records every operation as a short string, e.g. "lock(candidate)"
// or "edit-config(candidate,merge,/interfaces/interface)". Operations succeed
// right away unless told to fail or to be held.
type fakeInvoker struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]error
	hold    map[string]int
	held    []*heldCall
	replies map[string]string
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{
		fail:    map[string]error{},
		hold:    map[string]int{},
		replies: map[string]string{},
	}
}

// failOn makes every call described by desc fail with an rpc-error.
func (f *fakeInvoker) failOn(desc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[desc] = types.RPCErrors{{
		Type:     "application",
		Tag:      "operation-failed",
		Severity: types.SeverityError,
		Message:  desc + " rejected",
	}}
}

// holdNext keeps the next n calls described by desc pending until released.
func (f *fakeInvoker) holdNext(desc string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold[desc] += n
}

// release completes the oldest held call described by desc.
func (f *fakeInvoker) release(t *testing.T, desc string, err error) {
	t.Helper()
	f.mu.Lock()
	var hc *heldCall
	for i, h := range f.held {
		if h.desc == desc {
			hc = h
			f.held = append(f.held[:i], f.held[i+1:]...)
			break
		}
	}
	f.mu.Unlock()
	if hc == nil {
		t.Fatalf("no held %s call", desc)
	}
	if err != nil {
		hc.result.Complete(nil, err)
		return
	}
	hc.result.Complete(okResponse(), nil)
}

func (f *fakeInvoker) Invoke(_ context.Context, op string, body *etree.Element) *future.Future[*types.NetconfResponse] {
	desc := describe(op, body)

	f.mu.Lock()
	f.calls = append(f.calls, desc)
	err := f.fail[desc]
	reply := f.replies[op]
	if f.hold[desc] > 0 {
		f.hold[desc]--
		hc := &heldCall{desc: desc, result: future.New[*types.NetconfResponse]()}
		f.held = append(f.held, hc)
		f.mu.Unlock()
		return hc.result
	}
	f.mu.Unlock()

	if err != nil {
		return future.Failed[*types.NetconfResponse](err)
	}
	if reply != "" {
		doc := etree.NewDocument()
		if perr := doc.ReadFromString(reply); perr != nil {
			return future.Failed[*types.NetconfResponse](perr)
		}
		return future.Completed(types.NewNetconfResponse(doc), nil)
	}
	return future.Completed(okResponse(), nil)
}

func (f *fakeInvoker) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]string, len(f.calls))
	copy(result, f.calls)
	return result
}

func (f *fakeInvoker) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func okResponse() *types.NetconfResponse {
	doc := etree.NewDocument()
	doc.CreateElement("rpc-reply").CreateElement("ok")
	return types.NewNetconfResponse(doc)
}

func describe(op string, body *etree.Element) string {
	switch op {
	case ops.OpLock, ops.OpUnlock:
		return fmt.Sprintf("%s(%s)", op, firstChildTag(body, "target"))
	case ops.OpValidate, ops.OpGetConfig:
		return fmt.Sprintf("%s(%s)", op, firstChildTag(body, "source"))
	case ops.OpEditConfig:
		target := firstChildTag(body, "target")
		cfg := body.SelectElement("config")
		if cfg == nil {
			return fmt.Sprintf("%s(%s)", op, target)
		}
		var tags []string
		for e := firstChild(cfg); e != nil; e = firstChild(e) {
			tags = append(tags, e.Tag)
			if a := e.SelectAttr("operation"); a != nil {
				return fmt.Sprintf("%s(%s,%s,/%s)", op, target, a.Value, strings.Join(tags, "/"))
			}
			if a := e.SelectAttr("nc:operation"); a != nil {
				return fmt.Sprintf("%s(%s,%s,/%s)", op, target, a.Value, strings.Join(tags, "/"))
			}
		}
		return fmt.Sprintf("%s(%s)", op, target)
	}
	return op
}

func firstChildTag(e *etree.Element, container string) string {
	c := e.SelectElement(container)
	if c == nil {
		return ""
	}
	if fc := firstChild(c); fc != nil {
		return fc.Tag
	}
	return ""
}

// firstChild returns the first child element that is not a key leaf of a list entry.
func firstChild(e *etree.Element) *etree.Element {
	children := e.ChildElements()
	for _, c := range children {
		if len(c.ChildElements()) > 0 || c.SelectAttr("operation") != nil || c.SelectAttr("nc:operation") != nil {
			return c
		}
	}
	if len(children) > 0 {
		return children[0]
	}
	return nil
}

// recordingListener records the events of write transactions.
type recordingListener struct {
	mu     sync.Mutex
	events []string
	causes []error
}

func (l *recordingListener) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, s)
}

func (l *recordingListener) OnTransactionSubmitted(Transaction)  { l.add("submitted") }
func (l *recordingListener) OnTransactionSuccessful(Transaction) { l.add("successful") }
func (l *recordingListener) OnTransactionCancelled(Transaction)  { l.add("cancelled") }
func (l *recordingListener) OnTransactionFailed(_ Transaction, cause error) {
	l.mu.Lock()
	l.causes = append(l.causes, cause)
	l.mu.Unlock()
	l.add("failed")
}

func (l *recordingListener) recorded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]string, len(l.events))
	copy(result, l.events)
	return result
}

func mustPath(t *testing.T, p string) *gnmi.Path {
	t.Helper()
	gp, err := utils.ParsePath(p)
	if err != nil {
		t.Fatalf("invalid path %q: %v", p, err)
	}
	return gp
}

func mustElement(t *testing.T, s string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		t.Fatalf("invalid element %q: %v", s, err)
	}
	return doc.Root()
}

func waitState(t *testing.T, f *future.Future[State]) (State, error) {
	t.Helper()
	return waitFuture(t, f)
}

func waitFuture[T any](t *testing.T, f *future.Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := f.Wait(ctx)
	if ctx.Err() != nil {
		t.Fatalf("future did not complete in time")
	}
	return v, err
}
