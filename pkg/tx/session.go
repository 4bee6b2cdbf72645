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
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/netconf-client/pkg/future"
	"github.com/sdcio/netconf-client/pkg/netconf/ops"
	"github.com/sdcio/netconf-client/pkg/netconf/rpc"
)

// Session creates transactions against one device.
type Session struct {
	id      SessionID
	invoker rpc.Invoker
	builder *ops.Builder
	caps    Capabilities

	kind          Kind
	kindSet       bool
	lockDatastore bool
	validate      bool
}

type SessionOption func(*Session)

// WithKind overrides the kind derived from the capabilities.
func WithKind(k Kind) SessionOption {
	return func(s *Session) {
		s.kind = k
		s.kindSet = true
	}
}

func WithSessionLockDatastore(b bool) SessionOption {
	return func(s *Session) {
		s.lockDatastore = b
	}
}

func WithSessionValidateBeforeCommit(b bool) SessionOption {
	return func(s *Session) {
		s.validate = b
	}
}

func NewSession(id SessionID, invoker rpc.Invoker, builder *ops.Builder, caps Capabilities, opts ...SessionOption) (*Session, error) {
	if invoker == nil {
		return nil, errors.New("missing rpc invoker")
	}
	if builder == nil {
		builder = ops.NewBuilder(nil)
	}
	s := &Session{
		id:            id,
		invoker:       invoker,
		builder:       builder,
		caps:          caps,
		lockDatastore: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.kindSet {
		k, ok := caps.PreferredKind()
		if !ok {
			return nil, fmt.Errorf("session %s: neither candidate nor writable-running is supported", id)
		}
		s.kind = k
	}
	if s.validate && !caps.Validate {
		log.Warnf("session %s: validate is not supported, sending commit without validate", id)
		s.validate = false
	}
	if s.validate && s.kind == KindRunning {
		s.validate = false
	}
	log.Debugf("session %s: using %s transactions", id, s.kind)
	return s, nil
}

func (s *Session) ID() SessionID {
	return s.id
}

func (s *Session) Kind() Kind {
	return s.kind
}

func (s *Session) Capabilities() Capabilities {
	return s.caps
}

func (s *Session) NewReadTransaction() *ReadTransaction {
	return newReadTransaction(newTransactionID(), s.id, s.invoker, s.builder)
}

// NewWriteTransaction sends the lock RPCs of the session kind. The returned
// future resolves with the OPEN transaction once the locks are held.
func (s *Session) NewWriteTransaction(ctx context.Context, listeners ...Listener) *future.Future[*WriteTransaction] {
	opts := []WriteOption{
		WithLockDatastore(s.lockDatastore),
		WithValidateBeforeCommit(s.validate),
	}
	for _, l := range listeners {
		opts = append(opts, WithListener(l))
	}
	return newWriteTransaction(ctx, s.kind, s.id, s.invoker, s.builder, opts...)
}

func (s *Session) NewReadWriteTransaction(ctx context.Context, listeners ...Listener) *future.Future[*ReadWriteTransaction] {
	return future.Map(s.NewWriteTransaction(ctx, listeners...), toReadWrite)
}

func (s *Session) NewTransactionChain(l ChainListener) *TransactionChain {
	return newTransactionChain(s, l)
}
