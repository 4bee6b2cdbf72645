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
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/openconfig/gnmi/proto/gnmi"
	log "github.com/sirupsen/logrus"

	"github.com/sdcio/netconf-client/pkg/future"
	"github.com/sdcio/netconf-client/pkg/netconf/ops"
	"github.com/sdcio/netconf-client/pkg/netconf/rpc"
	"github.com/sdcio/netconf-client/pkg/netconf/types"
)

type writeOptions struct {
	lockDatastore bool
	validate      bool
	listeners     []Listener
}

type WriteOption func(*writeOptions)

// WithLockDatastore if false, no lock and unlock RPCs are sent.
func WithLockDatastore(b bool) WriteOption {
	return func(o *writeOptions) {
		o.lockDatastore = b
	}
}

// WithValidateBeforeCommit sends validate between the edits and commit.
// Ignored by KindRunning.
func WithValidateBeforeCommit(b bool) WriteOption {
	return func(o *writeOptions) {
		o.validate = b
	}
}

// WithListener registers l before the transaction is handed out.
func WithListener(l Listener) WriteOption {
	return func(o *writeOptions) {
		o.listeners = append(o.listeners, l)
	}
}

type queuedEdit struct {
	entry EditEntry
	body  *etree.Element
	// reply of an edit sent right away
	sent *future.Future[*types.NetconfResponse]
}

// WriteTransaction drives lock, edit-config, commit or discard-changes and
// unlock against one session. It is handed out once its locks are held.
type WriteTransaction struct {
	id      TransactionID
	session SessionID
	kind    Kind
	v       variant
	invoker rpc.Invoker
	builder *ops.Builder
	opts    writeOptions
	log     *log.Entry

	listeners listenerSet
	result    *future.Future[State]

	mu        sync.Mutex
	state     State
	edits     []*queuedEdit
	submitted time.Time
}

// NewCandidateTransaction locks candidate. The returned future resolves with
// an OPEN transaction buffering its edits until Commit.
func NewCandidateTransaction(ctx context.Context, session SessionID, invoker rpc.Invoker, builder *ops.Builder, opts ...WriteOption) *future.Future[*WriteTransaction] {
	return newWriteTransaction(ctx, KindCandidate, session, invoker, builder, opts...)
}

// NewRunningTransaction locks running. The returned future resolves with an
// OPEN transaction sending every edit right away.
func NewRunningTransaction(ctx context.Context, session SessionID, invoker rpc.Invoker, builder *ops.Builder, opts ...WriteOption) *future.Future[*WriteTransaction] {
	return newWriteTransaction(ctx, KindRunning, session, invoker, builder, opts...)
}

// NewCandidateRunningTransaction locks running, then candidate. The returned
// future resolves with an OPEN transaction buffering its edits for candidate
// until Commit.
func NewCandidateRunningTransaction(ctx context.Context, session SessionID, invoker rpc.Invoker, builder *ops.Builder, opts ...WriteOption) *future.Future[*WriteTransaction] {
	return newWriteTransaction(ctx, KindCandidateRunning, session, invoker, builder, opts...)
}

// newWriteTransaction sends the lock RPCs and returns without waiting for
// them. The future fails with a StepError wrapping ErrLockFailed if a lock is
// not granted, the transaction is never handed out in that case.
func newWriteTransaction(ctx context.Context, kind Kind, session SessionID, invoker rpc.Invoker, builder *ops.Builder, opts ...WriteOption) *future.Future[*WriteTransaction] {
	v, err := variantOf(kind)
	if err != nil {
		return future.Failed[*WriteTransaction](err)
	}
	o := writeOptions{lockDatastore: true}
	for _, opt := range opts {
		opt(&o)
	}
	if builder == nil {
		builder = ops.NewBuilder(nil)
	}
	id := newTransactionID()
	t := &WriteTransaction{
		id:      id,
		session: session,
		kind:    kind,
		v:       v,
		invoker: invoker,
		builder: builder,
		opts:    o,
		result:  future.New[State](),
		state:   StateOpen,
		log: log.WithFields(log.Fields{
			"session": session.String(),
			"tx":      id,
			"kind":    kind.String(),
		}),
	}
	return future.Map(t.acquireLocks(ctx), func(_ struct{}, err error) (*WriteTransaction, error) {
		if err != nil {
			transactionsTotal.WithLabelValues(kind.String(), StateFailed.String()).Inc()
			return nil, err
		}
		for _, l := range o.listeners {
			t.listeners.add(t, l)
		}
		t.log.Debug("transaction open")
		return t, nil
	})
}

func (t *WriteTransaction) ID() TransactionID {
	return t.id
}

func (t *WriteTransaction) Session() SessionID {
	return t.session
}

func (t *WriteTransaction) Kind() Kind {
	return t.kind
}

func (t *WriteTransaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result resolves with the terminal state, for FAILED together with the cause.
func (t *WriteTransaction) Result() *future.Future[State] {
	return t.result
}

// Edits returns the edits queued so far.
func (t *WriteTransaction) Edits() []EditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]EditEntry, 0, len(t.edits))
	for _, e := range t.edits {
		result = append(result, e.entry)
	}
	return result
}

func (t *WriteTransaction) AddListener(l Listener) {
	t.listeners.add(t, l)
}

func (t *WriteTransaction) Put(ctx context.Context, ds ops.Datastore, path *gnmi.Path, payload *etree.Element) error {
	return t.edit(ctx, ds, EditEntry{Path: path, Payload: payload, Operation: ops.Put})
}

func (t *WriteTransaction) Merge(ctx context.Context, ds ops.Datastore, path *gnmi.Path, payload *etree.Element) error {
	return t.edit(ctx, ds, EditEntry{Path: path, Payload: payload, Operation: ops.Merge})
}

func (t *WriteTransaction) Delete(ctx context.Context, ds ops.Datastore, path *gnmi.Path) error {
	return t.edit(ctx, ds, EditEntry{Path: path, Operation: ops.Delete})
}

func (t *WriteTransaction) edit(ctx context.Context, ds ops.Datastore, e EditEntry) error {
	if ds != ops.Configuration {
		return protocolViolation("%s: %s datastore is not writable", t.id, ds)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateOpen {
		return protocolViolation("%s on %s transaction %s", e.Operation, t.state, t.id)
	}
	body, err := t.builder.EditConfig(t.v.editTarget, e.Path, e.Payload, e.Operation)
	if err != nil {
		return fmt.Errorf("%s: %w", e, err)
	}
	qe := &queuedEdit{entry: e, body: body}
	if !t.v.buffered {
		// sent under the lock so the device sees the edits in call order
		t.log.Debugf("edit-config(%s) %s", t.v.editTarget, e)
		qe.sent = t.invoker.Invoke(ctx, ops.OpEditConfig, body)
	}
	t.edits = append(t.edits, qe)
	return nil
}

// Commit submits the transaction. The returned future resolves with
// SUCCESSFUL, or FAILED and the cause of the first failing step.
func (t *WriteTransaction) Commit(ctx context.Context) (*future.Future[State], error) {
	t.mu.Lock()
	if t.state != StateOpen {
		s := t.state
		t.mu.Unlock()
		return nil, protocolViolation("commit on %s transaction %s", s, t.id)
	}
	t.state = StateSubmitting
	t.submitted = time.Now()
	edits := t.edits
	t.mu.Unlock()

	t.log.Debugf("submitting %d edit(s)", len(edits))
	t.listeners.fire(t, event{kind: eventSubmitted})

	if t.v.buffered {
		t.sendEdits(ctx, edits, 0)
	} else {
		t.awaitEdits(ctx, edits, 0, nil)
	}
	return t.result, nil
}

// Cancel releases the locks without committing. Only an OPEN transaction can
// be cancelled, edits already sent to running stay applied.
func (t *WriteTransaction) Cancel() error {
	t.mu.Lock()
	if t.state != StateOpen {
		s := t.state
		t.mu.Unlock()
		return protocolViolation("cancel on %s transaction %s", s, t.id)
	}
	t.state = StateCancelled
	t.mu.Unlock()

	t.log.Debug("transaction cancelled")
	t.unlockAll(context.Background(), t.lockedTargets())
	transactionsTotal.WithLabelValues(t.kind.String(), StateCancelled.String()).Inc()
	t.listeners.fire(t, event{kind: eventCancelled})
	t.result.Complete(StateCancelled, nil)
	return nil
}

func (t *WriteTransaction) lockedTargets() []ops.LockTarget {
	if !t.opts.lockDatastore {
		return nil
	}
	return t.v.locks
}

// acquireLocks sends the lock RPCs one after the other. On failure the locks
// granted so far are released before the returned future fails.
func (t *WriteTransaction) acquireLocks(ctx context.Context) *future.Future[struct{}] {
	out := future.New[struct{}]()
	targets := t.lockedTargets()
	var next func(i int)
	next = func(i int) {
		if i == len(targets) {
			out.Complete(struct{}{}, nil)
			return
		}
		target := targets[i]
		fail := func(err error) {
			serr := newStepError(ErrLockFailed, ops.OpLock, target, t.session, err)
			t.log.Warn(serr)
			t.unlockAll(context.WithoutCancel(ctx), targets[:i]).OnComplete(func(struct{}, error) {
				out.Complete(struct{}{}, serr)
			})
		}
		body, err := t.builder.Lock(target)
		if err != nil {
			fail(err)
			return
		}
		t.log.Debugf("lock(%s)", target)
		t.invoker.Invoke(ctx, ops.OpLock, body).OnComplete(func(_ *types.NetconfResponse, err error) {
			if err != nil {
				fail(err)
				return
			}
			next(i + 1)
		})
	}
	next(0)
	return out
}

// unlockAll releases targets in reverse order, one after the other. The
// returned future resolves with the first unlock failure, every failure is logged.
func (t *WriteTransaction) unlockAll(ctx context.Context, targets []ops.LockTarget) *future.Future[struct{}] {
	out := future.New[struct{}]()
	var first error
	var next func(i int)
	next = func(i int) {
		if i < 0 {
			out.Complete(struct{}{}, first)
			return
		}
		target := targets[i]
		body, err := t.builder.Unlock(target)
		if err != nil {
			first = newStepError(ErrUnlockFailed, ops.OpUnlock, target, t.session, err)
			next(i - 1)
			return
		}
		t.log.Debugf("unlock(%s)", target)
		t.invoker.Invoke(ctx, ops.OpUnlock, body).OnComplete(func(_ *types.NetconfResponse, err error) {
			if err != nil {
				serr := newStepError(ErrUnlockFailed, ops.OpUnlock, target, t.session, err)
				t.log.Warn(serr)
				if first == nil {
					first = serr
				}
			}
			next(i - 1)
		})
	}
	next(len(targets) - 1)
	return out
}

func (t *WriteTransaction) sendEdits(ctx context.Context, edits []*queuedEdit, i int) {
	if i == len(edits) {
		t.validateAndCommit(ctx)
		return
	}
	e := edits[i]
	t.log.Debugf("edit-config(%s) %s", t.v.editTarget, e.entry)
	t.invoker.Invoke(ctx, ops.OpEditConfig, e.body).OnComplete(func(_ *types.NetconfResponse, err error) {
		if err != nil {
			t.abort(ctx, newStepError(ErrEditConfigFailed, ops.OpEditConfig, t.v.editTarget, t.session, fmt.Errorf("%s: %w", e.entry, err)))
			return
		}
		t.sendEdits(ctx, edits, i+1)
	})
}

func (t *WriteTransaction) validateAndCommit(ctx context.Context) {
	if !t.opts.validate {
		t.sendCommit(ctx)
		return
	}
	body, err := t.builder.Validate(t.v.editTarget)
	if err != nil {
		t.abort(ctx, newStepError(ErrValidateFailed, ops.OpValidate, t.v.editTarget, t.session, err))
		return
	}
	t.invoker.Invoke(ctx, ops.OpValidate, body).OnComplete(func(_ *types.NetconfResponse, err error) {
		if err != nil {
			t.abort(ctx, newStepError(ErrValidateFailed, ops.OpValidate, t.v.editTarget, t.session, err))
			return
		}
		t.sendCommit(ctx)
	})
}

func (t *WriteTransaction) sendCommit(ctx context.Context) {
	t.log.Debug("commit")
	t.invoker.Invoke(ctx, ops.OpCommit, t.builder.Commit()).OnComplete(func(_ *types.NetconfResponse, err error) {
		if err != nil {
			t.abort(ctx, newStepError(ErrCommitFailed, ops.OpCommit, "", t.session, err))
			return
		}
		// the configuration is applied, unlock failures are logged only
		t.unlockAll(context.WithoutCancel(ctx), t.lockedTargets()).OnComplete(func(struct{}, error) {
			t.finish(StateSuccessful, nil)
		})
	})
}

// abort runs the failure path of the buffered variants: discard-changes and
// unlock, both best effort. cause is what the transaction fails with.
func (t *WriteTransaction) abort(ctx context.Context, cause error) {
	t.log.Warnf("transaction failed: %v", cause)
	cctx := context.WithoutCancel(ctx)
	t.invoker.Invoke(cctx, ops.OpDiscardChanges, t.builder.DiscardChanges()).OnComplete(func(_ *types.NetconfResponse, err error) {
		if err != nil {
			t.log.Error(newStepError(ErrDiscardFailed, ops.OpDiscardChanges, "", t.session, err))
		}
		t.unlockAll(cctx, t.lockedTargets()).OnComplete(func(struct{}, error) {
			t.finish(StateFailed, cause)
		})
	})
}

// awaitEdits collects the replies of the edits sent to running, then unlocks.
// Nothing is rolled back, the first edit failure wins over an unlock failure.
func (t *WriteTransaction) awaitEdits(ctx context.Context, edits []*queuedEdit, i int, first error) {
	if i == len(edits) {
		t.unlockAll(context.WithoutCancel(ctx), t.lockedTargets()).OnComplete(func(_ struct{}, uerr error) {
			switch {
			case first != nil:
				t.log.Warnf("transaction failed, running may hold a part of the edits: %v", first)
				t.finish(StateFailed, first)
			case uerr != nil:
				t.finish(StateFailed, uerr)
			default:
				t.finish(StateSuccessful, nil)
			}
		})
		return
	}
	e := edits[i]
	e.sent.OnComplete(func(_ *types.NetconfResponse, err error) {
		if err != nil && first == nil {
			first = newStepError(ErrEditConfigFailed, ops.OpEditConfig, t.v.editTarget, t.session, fmt.Errorf("%s: %w", e.entry, err))
		}
		t.awaitEdits(ctx, edits, i+1, first)
	})
}

func (t *WriteTransaction) finish(s State, cause error) {
	t.mu.Lock()
	if t.state.IsTerminal() {
		t.mu.Unlock()
		return
	}
	t.state = s
	submitted := t.submitted
	t.mu.Unlock()

	transactionsTotal.WithLabelValues(t.kind.String(), s.String()).Inc()
	commitDuration.WithLabelValues(t.kind.String()).Observe(time.Since(submitted).Seconds())

	switch s {
	case StateSuccessful:
		t.log.Debug("transaction successful")
		t.listeners.fire(t, event{kind: eventSuccessful})
	case StateFailed:
		t.listeners.fire(t, event{kind: eventFailed, cause: cause})
	}
	t.result.Complete(s, cause)
}
