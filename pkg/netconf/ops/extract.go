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
	"strings"

	"github.com/beevik/etree"
	"github.com/openconfig/gnmi/proto/gnmi"
)

// ExtractData returns a copy of the node addressed by p below the <data>
// element of a get or get-config reply. A nil result means the node is absent.
func ExtractData(data *etree.Element, p *gnmi.Path) *etree.Element {
	if data == nil {
		return nil
	}
	elems := p.GetElem()
	if len(elems) == 0 {
		if len(data.ChildElements()) == 0 {
			return nil
		}
		return data.Copy()
	}
	cur := data
	for _, pe := range elems {
		cur = matchChild(cur, pe)
		if cur == nil {
			return nil
		}
	}
	return cur.Copy()
}

func matchChild(parent *etree.Element, pe *gnmi.PathElem) *etree.Element {
	name := localName(pe.GetName())
	for _, c := range parent.ChildElements() {
		if c.Tag != name {
			continue
		}
		if keysMatch(c, pe.GetKey()) {
			return c
		}
	}
	return nil
}

func keysMatch(e *etree.Element, keys map[string]string) bool {
	for k, v := range keys {
		kl := e.SelectElement(k)
		if kl == nil || strings.TrimSpace(kl.Text()) != v {
			return false
		}
	}
	return true
}
