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
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/openconfig/gnmi/proto/gnmi"
)

// Options tune the generated request bodies.
type Options struct {
	// OperationWithNamespace if true, the edit-config operation attribute is
	// qualified with the NETCONF base namespace.
	OperationWithNamespace bool
	// UseOperationRemove if true, deletes use `remove` instead of `delete`.
	UseOperationRemove bool
	// RollbackOnError if true, edit-config carries error-option rollback-on-error.
	RollbackOnError bool
}

// Builder creates NETCONF operation request bodies. It keeps no state besides
// its options, all methods are safe for concurrent use.
type Builder struct {
	opts Options
}

func NewBuilder(opts *Options) *Builder {
	b := &Builder{}
	if opts != nil {
		b.opts = *opts
	}
	return b
}

func (b *Builder) Lock(target LockTarget) (*etree.Element, error) {
	return targetOperation(OpLock, "target", target)
}

func (b *Builder) Unlock(target LockTarget) (*etree.Element, error) {
	return targetOperation(OpUnlock, "target", target)
}

func (b *Builder) Validate(source LockTarget) (*etree.Element, error) {
	return targetOperation(OpValidate, "source", source)
}

func (b *Builder) Commit() *etree.Element {
	return etree.NewElement(OpCommit)
}

func (b *Builder) DiscardChanges() *etree.Element {
	return etree.NewElement(OpDiscardChanges)
}

// EditConfig builds an edit-config addressed at target, carrying the subtree
// leading to path with payload as its last element.
func (b *Builder) EditConfig(target LockTarget, p *gnmi.Path, payload *etree.Element, op EditOperation) (*etree.Element, error) {
	if err := target.valid(); err != nil {
		return nil, err
	}
	var operName string
	switch op {
	case Merge:
		operName = operationMerge
	case Put:
		operName = operationReplace
	case Delete:
		operName = operationDelete
		if b.opts.UseOperationRemove {
			operName = operationRemove
		}
	default:
		return nil, fmt.Errorf("unknown edit operation %v", op)
	}
	if op != Delete && payload == nil {
		return nil, fmt.Errorf("%s requires a payload", op)
	}

	ec := etree.NewElement(OpEditConfig)
	ec.CreateElement("target").CreateElement(string(target))
	if op == Delete {
		ec.CreateElement("default-operation").SetText(defaultOperationNone)
	}
	if b.opts.RollbackOnError {
		ec.CreateElement("error-option").SetText(errorOptionRollback)
	}
	cfg := ec.CreateElement("config")

	elem, err := b.buildSubtree(cfg, p, payload)
	if err != nil {
		return nil, err
	}

	operKey := "operation"
	if b.opts.OperationWithNamespace {
		elem.CreateAttr("xmlns:nc", NCBase1_0)
		operKey = "nc:" + operKey
	}
	elem.CreateAttr(operKey, operName)
	return ec, nil
}

// Get builds a get with an optional subtree filter derived from p.
func (b *Builder) Get(p *gnmi.Path) (*etree.Element, error) {
	g := etree.NewElement(OpGet)
	if err := addFilter(g, p); err != nil {
		return nil, err
	}
	return g, nil
}

// GetConfig builds a get-config on source with an optional subtree filter derived from p.
func (b *Builder) GetConfig(source LockTarget, p *gnmi.Path) (*etree.Element, error) {
	g, err := targetOperation(OpGetConfig, "source", source)
	if err != nil {
		return nil, err
	}
	if err := addFilter(g, p); err != nil {
		return nil, err
	}
	return g, nil
}

// Read maps a datastore read to its operation: configuration reads use
// get-config on running, operational reads use get.
func (b *Builder) Read(ds Datastore, p *gnmi.Path) (string, *etree.Element, error) {
	switch ds {
	case Configuration:
		e, err := b.GetConfig(Running, p)
		return OpGetConfig, e, err
	case Operational:
		e, err := b.Get(p)
		return OpGet, e, err
	}
	return "", nil, fmt.Errorf("unknown datastore %v", ds)
}

func targetOperation(name, container string, target LockTarget) (*etree.Element, error) {
	if err := target.valid(); err != nil {
		return nil, err
	}
	e := etree.NewElement(name)
	e.CreateElement(container).CreateElement(string(target))
	return e, nil
}

func addFilter(parent *etree.Element, p *gnmi.Path) error {
	if len(p.GetElem()) == 0 {
		return nil
	}
	f := parent.CreateElement("filter")
	f.CreateAttr("type", "subtree")
	_, err := fastForward(f, p.GetElem())
	return err
}

// buildSubtree creates the elements leading to p below parent and attaches a
// copy of payload as the last one. It returns the element the operation applies to.
func (b *Builder) buildSubtree(parent *etree.Element, p *gnmi.Path, payload *etree.Element) (*etree.Element, error) {
	elems := p.GetElem()
	if len(elems) == 0 {
		if payload == nil {
			return nil, errors.New("edit of the root requires a payload")
		}
		c := payload.Copy()
		parent.AddChild(c)
		return c, nil
	}

	if payload == nil {
		return fastForward(parent, elems)
	}

	last := elems[len(elems)-1]
	if payload.Tag != localName(last.GetName()) {
		return nil, fmt.Errorf("payload element %q does not match path element %q", payload.Tag, last.GetName())
	}
	anchor, err := fastForward(parent, elems[:len(elems)-1])
	if err != nil {
		return nil, err
	}
	c := payload.Copy()
	addMissingKeys(c, last.GetKey())
	anchor.AddChild(c)
	return c, nil
}

// fastForward creates one element per path element, including the key leafs
// of list entries, and returns the deepest one.
func fastForward(parent *etree.Element, elems []*gnmi.PathElem) (*etree.Element, error) {
	for _, pe := range elems {
		name := localName(pe.GetName())
		if name == "" {
			return nil, errors.New("empty path element")
		}
		child := parent.CreateElement(name)
		for _, k := range sortedKeys(pe.GetKey()) {
			child.CreateElement(k).SetText(pe.GetKey()[k])
		}
		parent = child
	}
	return parent, nil
}

func addMissingKeys(e *etree.Element, keys map[string]string) {
	sk := sortedKeys(keys)
	// insert in reverse so the keys end up in sorted order ahead of the content
	for i := len(sk) - 1; i >= 0; i-- {
		k := sk[i]
		if e.SelectElement(k) != nil {
			continue
		}
		kl := etree.NewElement(k)
		kl.SetText(keys[k])
		e.InsertChildAt(0, kl)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// localName strips a module prefix ("module:name") from a path element name.
func localName(n string) string {
	if i := strings.LastIndex(n, ":"); i >= 0 {
		return n[i+1:]
	}
	return n
}
