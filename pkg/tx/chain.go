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
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/netconf-client/pkg/future"
)

// ChainListener is told exactly once how a chain ended.
type ChainListener interface {
	OnTransactionChainFailed(chain *TransactionChain, tx Transaction, cause error)
	OnTransactionChainSuccessful(chain *TransactionChain)
}

type ChainState int

const (
	ChainActive ChainState = iota
	ChainClosing
	ChainClosedSuccess
	ChainClosedFailed
)

func (s ChainState) String() string {
	switch s {
	case ChainActive:
		return "ACTIVE"
	case ChainClosing:
		return "CLOSING"
	case ChainClosedSuccess:
		return "CLOSED-SUCCESS"
	case ChainClosedFailed:
		return "CLOSED-FAILED"
	}
	return fmt.Sprintf("ChainState(%d)", int(s))
}

// TransactionChain hands out transactions of one session one at a time: a new
// transaction can only be created once the previous one has been submitted or
// cancelled. A failing transaction cancels the rest of the chain.
type TransactionChain struct {
	id       string
	session  *Session
	listener ChainListener
	log      *log.Entry

	mu      sync.Mutex
	state   ChainState
	current *WriteTransaction
	// a write transaction is being created outside of the lock
	creating bool
	pending  map[TransactionID]*WriteTransaction
}

func newTransactionChain(s *Session, l ChainListener) *TransactionChain {
	id := string(newTransactionID())
	return &TransactionChain{
		id:       id,
		session:  s,
		listener: l,
		log:      log.WithFields(log.Fields{"session": s.ID().String(), "chain": id}),
		state:    ChainActive,
		pending:  map[TransactionID]*WriteTransaction{},
	}
}

func (c *TransactionChain) ID() string {
	return c.id
}

func (c *TransactionChain) State() ChainState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the number of write transactions not finished yet.
func (c *TransactionChain) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// checkCreate must be called with c.mu held.
func (c *TransactionChain) checkCreate() error {
	if c.state != ChainActive {
		return fmt.Errorf("%w: chain %s is %s", ErrChainClosed, c.id, c.state)
	}
	if c.creating {
		return protocolViolation("chain %s: another transaction is being created", c.id)
	}
	if c.current != nil && c.current.State() == StateOpen {
		return protocolViolation("chain %s: previous transaction %s is not submitted", c.id, c.current.ID())
	}
	return nil
}

// NewReadTransaction does not become the current transaction of the chain,
// it has nothing to submit.
func (c *TransactionChain) NewReadTransaction() (*ReadTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkCreate(); err != nil {
		return nil, err
	}
	return c.session.NewReadTransaction(), nil
}

// NewWriteTransaction rejects the call right away if the chain is closed or
// its previous transaction is still OPEN or being created. Otherwise the lock
// RPCs are sent and the returned future resolves with the transaction once
// they are granted.
func (c *TransactionChain) NewWriteTransaction(ctx context.Context) (*future.Future[*WriteTransaction], error) {
	c.mu.Lock()
	if err := c.checkCreate(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.creating = true
	c.mu.Unlock()

	return future.Map(c.session.NewWriteTransaction(ctx, &chainTxListener{chain: c}), c.allocated), nil
}

func (c *TransactionChain) allocated(t *WriteTransaction, err error) (*WriteTransaction, error) {
	c.mu.Lock()
	c.creating = false
	if err != nil {
		done := c.completeIfDrained()
		c.mu.Unlock()
		if done {
			c.notifySuccess()
		}
		return nil, err
	}
	if c.state != ChainActive {
		s := c.state
		done := c.completeIfDrained()
		c.mu.Unlock()
		if cerr := t.Cancel(); cerr != nil {
			c.log.Warnf("failed to cancel transaction %s: %v", t.ID(), cerr)
		}
		if done {
			c.notifySuccess()
		}
		return nil, fmt.Errorf("%w: chain %s became %s", ErrChainClosed, c.id, s)
	}
	c.current = t
	c.pending[t.ID()] = t
	c.mu.Unlock()

	c.log.Debugf("transaction %s allocated", t.ID())
	return t, nil
}

func (c *TransactionChain) NewReadWriteTransaction(ctx context.Context) (*future.Future[*ReadWriteTransaction], error) {
	f, err := c.NewWriteTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return future.Map(f, toReadWrite), nil
}

// Close stops the creation of transactions. The chain listener is told about
// success once all pending transactions are finished and no transaction is
// being created, right away if there are none.
func (c *TransactionChain) Close() {
	c.mu.Lock()
	if c.state != ChainActive {
		c.mu.Unlock()
		return
	}
	c.state = ChainClosing
	done := c.completeIfDrained()
	c.mu.Unlock()

	c.log.Debug("chain closing")
	if done {
		c.notifySuccess()
	}
}

// completeIfDrained must be called with c.mu held.
func (c *TransactionChain) completeIfDrained() bool {
	if c.state == ChainClosing && len(c.pending) == 0 && !c.creating {
		c.state = ChainClosedSuccess
		return true
	}
	return false
}

func (c *TransactionChain) notifySuccess() {
	c.log.Info("chain successful")
	chainsTotal.WithLabelValues("success").Inc()
	if c.listener != nil {
		c.listener.OnTransactionChainSuccessful(c)
	}
}

func (c *TransactionChain) onFinished(t Transaction) {
	c.mu.Lock()
	delete(c.pending, t.ID())
	done := c.completeIfDrained()
	c.mu.Unlock()
	if done {
		c.notifySuccess()
	}
}

func (c *TransactionChain) onFailed(t Transaction, cause error) {
	c.mu.Lock()
	if c.state == ChainClosedFailed || c.state == ChainClosedSuccess {
		delete(c.pending, t.ID())
		c.mu.Unlock()
		return
	}
	c.state = ChainClosedFailed
	others := make([]*WriteTransaction, 0, len(c.pending))
	for id, p := range c.pending {
		if id != t.ID() {
			others = append(others, p)
		}
	}
	c.pending = map[TransactionID]*WriteTransaction{}
	c.mu.Unlock()

	c.log.Warnf("transaction %s failed, cancelling %d pending transaction(s): %v", t.ID(), len(others), cause)
	for _, o := range others {
		// submitted transactions can not be cancelled, their outcome is ignored
		if err := o.Cancel(); err != nil && !errors.Is(err, ErrProtocolViolation) {
			c.log.Warnf("failed to cancel transaction %s: %v", o.ID(), err)
		}
	}
	chainsTotal.WithLabelValues("failure").Inc()
	if c.listener != nil {
		c.listener.OnTransactionChainFailed(c, t, cause)
	}
}

// chainTxListener forwards transaction events to the chain.
type chainTxListener struct {
	chain *TransactionChain
}

func (l *chainTxListener) OnTransactionSubmitted(Transaction) {}

func (l *chainTxListener) OnTransactionSuccessful(tx Transaction) {
	l.chain.onFinished(tx)
}

func (l *chainTxListener) OnTransactionFailed(tx Transaction, cause error) {
	l.chain.onFailed(tx, cause)
}

func (l *chainTxListener) OnTransactionCancelled(tx Transaction) {
	l.chain.onFinished(tx)
}
