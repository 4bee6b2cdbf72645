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

package utils

import (
	"fmt"
	"strings"

	"github.com/openconfig/gnmi/proto/gnmi"
	"github.com/openconfig/ygot/ygot"
)

// ParsePath converts an xpath like string ("/interfaces/interface[name=eth0]/mtu")
// into a gnmi.Path. Module prefixes are kept.
func ParsePath(p string) (*gnmi.Path, error) {
	if err := checkBrackets(p); err != nil {
		return nil, err
	}
	if strings.Trim(p, "/") == "" {
		return &gnmi.Path{}, nil
	}
	gp, err := ygot.StringToStructuredPath(p)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", p, err)
	}
	return gp, nil
}

// ToXPath is the inverse of ParsePath. A nil or empty path is "/".
func ToXPath(p *gnmi.Path) string {
	if len(p.GetElem()) == 0 {
		return "/"
	}
	s, err := ygot.PathToString(p)
	if err != nil {
		return fmt.Sprintf("%v", p.GetElem())
	}
	return s
}

// checkBrackets verifies that key selectors are balanced, quoted values are skipped.
func checkBrackets(p string) error {
	depth := 0
	var quote rune
	for i, r := range p {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			if depth > 0 {
				quote = r
			}
		case r == '[':
			if depth > 0 {
				return fmt.Errorf("invalid path %q: nested '[' at %d", p, i)
			}
			depth++
		case r == ']':
			if depth == 0 {
				return fmt.Errorf("invalid path %q: unexpected ']' at %d", p, i)
			}
			depth--
		case r == '{' || r == '}':
			return fmt.Errorf("invalid path %q: unexpected %q at %d", p, r, i)
		}
	}
	if depth != 0 || quote != 0 {
		return fmt.Errorf("invalid path %q: unterminated key", p)
	}
	return nil
}
