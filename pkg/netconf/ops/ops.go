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

package ops

import (
	"fmt"
	"strings"
)

const (
	OpLock           = "lock"
	OpUnlock         = "unlock"
	OpEditConfig     = "edit-config"
	OpCommit         = "commit"
	OpDiscardChanges = "discard-changes"
	OpGet            = "get"
	OpGetConfig      = "get-config"
	OpValidate       = "validate"
)

const (
	NCBase1_0 = "urn:ietf:params:xml:ns:netconf:base:1.0"

	operationMerge   = "merge"
	operationReplace = "replace"
	operationDelete  = "delete"
	operationRemove  = "remove"

	defaultOperationNone = "none"
	errorOptionRollback  = "rollback-on-error"
)

// Datastore is the logical store a read is addressed at.
type Datastore int

const (
	Configuration Datastore = iota
	Operational
)

func (d Datastore) String() string {
	switch d {
	case Configuration:
		return "configuration"
	case Operational:
		return "operational"
	}
	return fmt.Sprintf("Datastore(%d)", int(d))
}

// ParseDatastore converts the textual representation used in configs and on the CLI.
func ParseDatastore(s string) (Datastore, error) {
	switch strings.ToLower(s) {
	case "configuration", "config", "":
		return Configuration, nil
	case "operational", "state":
		return Operational, nil
	}
	return 0, fmt.Errorf("unknown datastore %q", s)
}

// LockTarget is a NETCONF configuration datastore a write transaction locks.
type LockTarget string

const (
	Running   LockTarget = "running"
	Candidate LockTarget = "candidate"
)

func (t LockTarget) valid() error {
	switch t {
	case Running, Candidate:
		return nil
	}
	return fmt.Errorf("unknown target datastore %q", string(t))
}

// EditOperation is the operation an EditEntry applies.
type EditOperation int

const (
	Merge EditOperation = iota
	Put
	Delete
)

func (o EditOperation) String() string {
	switch o {
	case Merge:
		return "merge"
	case Put:
		return "put"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("EditOperation(%d)", int(o))
}

// ParseEditOperation converts "merge", "put"/"replace" and "delete"/"remove".
func ParseEditOperation(s string) (EditOperation, error) {
	switch strings.ToLower(s) {
	case "merge", "update":
		return Merge, nil
	case "put", "replace":
		return Put, nil
	case "delete", "remove":
		return Delete, nil
	}
	return 0, fmt.Errorf("unknown edit operation %q", s)
}
