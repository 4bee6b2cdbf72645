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

package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"

	TagOperationFailed = "operation-failed"
	TypeApplication    = "application"
)

// RPCError is a single <rpc-error> of an <rpc-reply>.
type RPCError struct {
	Type     string
	Tag      string
	Severity string
	AppTag   string
	Path     string
	Message  string
	Info     string
}

func (e RPCError) String() string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%s/%s", e.Type, e.Tag)
	if e.AppTag != "" {
		fmt.Fprintf(sb, " app-tag=%s", e.AppTag)
	}
	if e.Path != "" {
		fmt.Fprintf(sb, " path=%s", e.Path)
	}
	if e.Message != "" {
		fmt.Fprintf(sb, ": %s", e.Message)
	}
	if e.Info != "" {
		fmt.Fprintf(sb, " (%s)", e.Info)
	}
	return sb.String()
}

// RPCErrors is the error list carried by a failed RPC.
type RPCErrors []RPCError

func (r RPCErrors) Error() string {
	if len(r) == 0 {
		return "rpc failed"
	}
	msgs := make([]string, 0, len(r))
	for _, e := range r {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether at least one entry has severity error.
func (r RPCErrors) HasErrors() bool {
	for _, e := range r {
		if e.Severity != SeverityWarning {
			return true
		}
	}
	return false
}

// Filter returns the entries with the given severity.
func (r RPCErrors) Filter(severity string) RPCErrors {
	var result RPCErrors
	for _, e := range r {
		if e.Severity == severity {
			result = append(result, e)
		}
	}
	return result
}

// NewOperationFailed wraps a transport level error into a single entry error list,
// used when the peer never produced an <rpc-reply>.
func NewOperationFailed(err error) RPCErrors {
	return RPCErrors{{
		Type:     TypeApplication,
		Tag:      TagOperationFailed,
		Severity: SeverityError,
		Message:  err.Error(),
	}}
}

// AsRPCErrors extracts the RPCErrors from err, if any.
func AsRPCErrors(err error) (RPCErrors, bool) {
	var r RPCErrors
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// ParseRPCErrors collects all <rpc-error> elements of the given reply document.
func ParseRPCErrors(doc *etree.Document) RPCErrors {
	if doc == nil {
		return nil
	}
	var result RPCErrors
	for _, re := range doc.FindElements("//rpc-error") {
		result = append(result, RPCError{
			Type:     childText(re, "error-type"),
			Tag:      childText(re, "error-tag"),
			Severity: childText(re, "error-severity"),
			AppTag:   childText(re, "error-app-tag"),
			Path:     childText(re, "error-path"),
			Message:  childText(re, "error-message"),
			Info:     childInner(re, "error-info"),
		})
	}
	return result
}

func childText(e *etree.Element, tag string) string {
	c := e.SelectElement(tag)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text())
}

func childInner(e *etree.Element, tag string) string {
	c := e.SelectElement(tag)
	if c == nil {
		return ""
	}
	d := etree.NewDocument()
	for _, ch := range c.ChildElements() {
		d.AddChild(ch.Copy())
	}
	s, err := d.WriteToString()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
