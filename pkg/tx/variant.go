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

	"github.com/sdcio/netconf-client/pkg/netconf/ops"
)

// Kind selects the locking, edit and commit discipline of a write transaction.
type Kind int

const (
	// KindCandidate locks candidate, buffers the edits and commits them.
	KindCandidate Kind = iota
	// KindRunning locks running and sends every edit immediately.
	KindRunning
	// KindCandidateRunning locks running and candidate, edits go to
	// candidate and are committed.
	KindCandidateRunning
)

func (k Kind) String() string {
	switch k {
	case KindCandidate:
		return "candidate"
	case KindRunning:
		return "running"
	case KindCandidateRunning:
		return "candidate-running"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts the names used by String.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindCandidate, KindRunning, KindCandidateRunning} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown transaction kind %q", s)
}

type variant struct {
	// locks in acquisition order, released in reverse
	locks      []ops.LockTarget
	editTarget ops.LockTarget
	// buffered edits are sent and committed on Commit, otherwise sent right away
	buffered bool
}

func variantOf(k Kind) (variant, error) {
	switch k {
	case KindCandidate:
		return variant{
			locks:      []ops.LockTarget{ops.Candidate},
			editTarget: ops.Candidate,
			buffered:   true,
		}, nil
	case KindRunning:
		return variant{
			locks:      []ops.LockTarget{ops.Running},
			editTarget: ops.Running,
		}, nil
	case KindCandidateRunning:
		return variant{
			locks:      []ops.LockTarget{ops.Running, ops.Candidate},
			editTarget: ops.Candidate,
			buffered:   true,
		}, nil
	}
	return variant{}, fmt.Errorf("unknown transaction kind %v", k)
}
