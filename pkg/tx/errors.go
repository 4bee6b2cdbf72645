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
	"errors"
	"fmt"

	"github.com/sdcio/netconf-client/pkg/netconf/ops"
)

var (
	// ErrProtocolViolation is returned on caller misuse, e.g. editing a
	// submitted transaction or opening a second transaction on a chain.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrChainClosed is returned when creating a transaction on a closed or failed chain.
	ErrChainClosed = errors.New("transaction chain closed")

	ErrLockFailed       = errors.New("lock failed")
	ErrEditConfigFailed = errors.New("edit-config failed")
	ErrValidateFailed   = errors.New("validate failed")
	ErrCommitFailed     = errors.New("commit failed")
	ErrUnlockFailed     = errors.New("unlock failed")
	ErrDiscardFailed    = errors.New("discard-changes failed")
	ErrReadFailed       = errors.New("read failed")
)

// StepError is the failure of one RPC of the transaction protocol.
// errors.Is matches both the step sentinel (e.g. ErrCommitFailed) and the cause.
type StepError struct {
	Kind    error
	Step    string
	Target  ops.LockTarget
	Session SessionID
	Cause   error
}

func newStepError(kind error, step string, target ops.LockTarget, session SessionID, cause error) *StepError {
	return &StepError{
		Kind:    kind,
		Step:    step,
		Target:  target,
		Session: session,
		Cause:   cause,
	}
}

func (e *StepError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %v: %s(%s): %v", e.Session, e.Kind, e.Step, e.Target, e.Cause)
	}
	return fmt.Sprintf("%s: %v: %s: %v", e.Session, e.Kind, e.Step, e.Cause)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

func protocolViolation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocolViolation, fmt.Sprintf(format, args...))
}
