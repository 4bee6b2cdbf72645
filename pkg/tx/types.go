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
	"fmt"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/openconfig/gnmi/proto/gnmi"

	"github.com/sdcio/netconf-client/pkg/netconf/ops"
	"github.com/sdcio/netconf-client/pkg/utils"
)

// State of a transaction. OPEN is the only state edits are accepted in.
type State int32

const (
	StateOpen State = iota
	StateSubmitting
	StateSuccessful
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateSubmitting:
		return "SUBMITTING"
	case StateSuccessful:
		return "SUCCESSFUL"
	case StateFailed:
		return "FAILED"
	case StateCancelled:
		return "CANCELLED"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateSuccessful || s == StateFailed || s == StateCancelled
}

// SessionID identifies the remote peer of a session.
type SessionID struct {
	Name    string
	Address string
}

func (s SessionID) String() string {
	if s.Address == "" {
		return s.Name
	}
	return fmt.Sprintf("%s(%s)", s.Name, s.Address)
}

// TransactionID is unique per transaction instance.
type TransactionID string

func newTransactionID() TransactionID {
	return TransactionID(uuid.NewString())
}

// Transaction is the part common to read and write transactions.
type Transaction interface {
	ID() TransactionID
	Session() SessionID
}

// EditEntry is a single queued modification of a write transaction.
type EditEntry struct {
	Path      *gnmi.Path
	Payload   *etree.Element
	Operation ops.EditOperation
}

func (e EditEntry) String() string {
	return fmt.Sprintf("%s %s", e.Operation, utils.ToXPath(e.Path))
}
