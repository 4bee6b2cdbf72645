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

package rpc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	log "github.com/sirupsen/logrus"

	"github.com/sdcio/netconf-client/pkg/future"
	"github.com/sdcio/netconf-client/pkg/netconf"
	"github.com/sdcio/netconf-client/pkg/netconf/ops"
	"github.com/sdcio/netconf-client/pkg/netconf/types"
	"github.com/sdcio/netconf-client/pkg/pool"
)

//go:generate mockgen -source=invoker.go -destination=../../../mocks/mockrpc/invoker.go -package=mockrpc

// Invoker sends one NETCONF operation and returns a future of its reply. The
// future fails if the transport failed or the reply carried an rpc-error of
// severity error, in the latter case with a types.RPCErrors.
type Invoker interface {
	Invoke(ctx context.Context, op string, body *etree.Element) *future.Future[*types.NetconfResponse]
}

type request struct {
	ctx    context.Context
	op     string
	body   *etree.Element
	result *future.Future[*types.NetconfResponse]
}

// DriverInvoker dispatches operations onto a Driver through a single worker,
// the operations reach the device one at a time and in Invoke order.
type DriverInvoker struct {
	name   string
	driver netconf.Driver
	pool   *pool.Pool[*request]
}

func NewDriverInvoker(ctx context.Context, name string, d netconf.Driver) *DriverInvoker {
	di := &DriverInvoker{
		name:   name,
		driver: d,
		pool:   pool.NewWorkerPool[*request](ctx, 1),
	}
	di.pool.Start(di.handle, func(r *request, err error) {
		r.result.Complete(nil, fmt.Errorf("%s not sent: %w", r.op, err))
	})
	return di
}

func (di *DriverInvoker) Invoke(ctx context.Context, op string, body *etree.Element) *future.Future[*types.NetconfResponse] {
	r := &request{
		ctx:    ctx,
		op:     op,
		body:   body,
		result: future.New[*types.NetconfResponse](),
	}
	if err := di.pool.Submit(r); err != nil {
		r.result.Complete(nil, fmt.Errorf("%s not sent: %w", op, err))
	}
	return r.result
}

// Close sends everything already queued and stops the dispatch worker.
// It does not close the Driver.
func (di *DriverInvoker) Close() {
	di.pool.Close()
}

func (di *DriverInvoker) handle(_ context.Context, r *request) {
	if err := r.ctx.Err(); err != nil {
		rpcDuration.WithLabelValues(r.op, resultAborted).Observe(0)
		r.result.Complete(nil, fmt.Errorf("%s not sent: %w", r.op, err))
		return
	}
	start := time.Now()
	resp, err := di.dispatch(r.op, r.body)
	if err != nil {
		rpcDuration.WithLabelValues(r.op, resultError).Observe(time.Since(start).Seconds())
		r.result.Complete(nil, fmt.Errorf("%s: %w", r.op, err))
		return
	}

	rpcErrs := types.ParseRPCErrors(resp.Doc)
	if rpcErrs.HasErrors() {
		rpcDuration.WithLabelValues(r.op, resultError).Observe(time.Since(start).Seconds())
		log.Debugf("target %s: %s failed: %v", di.name, r.op, rpcErrs)
		r.result.Complete(nil, rpcErrs)
		return
	}
	if len(rpcErrs) > 0 {
		resp.Warnings = rpcErrs
		for _, w := range rpcErrs {
			log.Warnf("target %s: %s reply warning: %s", di.name, r.op, w)
		}
	}
	rpcDuration.WithLabelValues(r.op, resultOK).Observe(time.Since(start).Seconds())
	if log.IsLevelEnabled(log.TraceLevel) {
		log.Tracef("target %s: %s reply:\n%s", di.name, r.op, resp.DocAsString(true))
	}
	r.result.Complete(resp, nil)
}

func (di *DriverInvoker) dispatch(op string, body *etree.Element) (*types.NetconfResponse, error) {
	if body == nil {
		return nil, fmt.Errorf("empty %s request", op)
	}
	switch op {
	case ops.OpLock:
		return di.driver.Lock(datastoreName(body, "target"))
	case ops.OpUnlock:
		return di.driver.Unlock(datastoreName(body, "target"))
	case ops.OpValidate:
		return di.driver.Validate(datastoreName(body, "source"))
	case ops.OpCommit:
		return di.driver.Commit()
	case ops.OpDiscardChanges:
		return di.driver.Discard()
	case ops.OpGet:
		return di.driver.Get(filterContent(body))
	case ops.OpGetConfig:
		return di.driver.GetConfig(datastoreName(body, "source"), filterContent(body))
	}
	raw, err := toString(body)
	if err != nil {
		return nil, err
	}
	return di.driver.RPC(raw)
}

// datastoreName returns the tag of the first child of the named container,
// e.g. "candidate" for <target><candidate/></target>.
func datastoreName(body *etree.Element, container string) string {
	c := body.SelectElement(container)
	if c == nil || len(c.ChildElements()) == 0 {
		return ""
	}
	return c.ChildElements()[0].Tag
}

func filterContent(body *etree.Element) string {
	f := body.SelectElement("filter")
	if f == nil {
		return ""
	}
	sb := &strings.Builder{}
	for _, c := range f.ChildElements() {
		s, err := toString(c)
		if err != nil {
			continue
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func toString(e *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(e.Copy())
	return doc.WriteToString()
}
