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

import "strings"

const (
	capCandidate       = "urn:ietf:params:netconf:capability:candidate:1.0"
	capWritableRunning = "urn:ietf:params:netconf:capability:writable-running:1.0"
	capRollbackOnError = "urn:ietf:params:netconf:capability:rollback-on-error:1.0"
	capValidate10      = "urn:ietf:params:netconf:capability:validate:1.0"
	capValidate11      = "urn:ietf:params:netconf:capability:validate:1.1"
)

// Capabilities is the part of the advertised session capabilities the
// transaction engine acts on.
type Capabilities struct {
	Candidate       bool
	WritableRunning bool
	RollbackOnError bool
	Validate        bool
}

// ParseCapabilities accepts full capability URIs as well as their short
// form (":candidate", "writable-running").
func ParseCapabilities(caps []string) Capabilities {
	c := Capabilities{}
	for _, s := range caps {
		s = strings.TrimSpace(s)
		if i := strings.Index(s, "?"); i >= 0 {
			s = s[:i]
		}
		switch normalizeCapability(s) {
		case capCandidate:
			c.Candidate = true
		case capWritableRunning:
			c.WritableRunning = true
		case capRollbackOnError:
			c.RollbackOnError = true
		case capValidate10, capValidate11:
			c.Validate = true
		}
	}
	return c
}

func normalizeCapability(s string) string {
	if strings.HasPrefix(s, "urn:") {
		return s
	}
	s = strings.TrimPrefix(s, ":")
	if !strings.Contains(s, ":") {
		s += ":1.0"
	}
	return "urn:ietf:params:netconf:capability:" + s
}

// PreferredKind picks the write transaction kind for the capabilities.
func (c Capabilities) PreferredKind() (Kind, bool) {
	switch {
	case c.Candidate && c.WritableRunning:
		return KindCandidateRunning, true
	case c.Candidate:
		return KindCandidate, true
	case c.WritableRunning:
		return KindRunning, true
	}
	return 0, false
}
