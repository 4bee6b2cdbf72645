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
	"context"

	"github.com/beevik/etree"
	"github.com/openconfig/gnmi/proto/gnmi"
	log "github.com/sirupsen/logrus"

	"github.com/sdcio/netconf-client/pkg/future"
	"github.com/sdcio/netconf-client/pkg/netconf/ops"
	"github.com/sdcio/netconf-client/pkg/netconf/rpc"
	"github.com/sdcio/netconf-client/pkg/netconf/types"
	"github.com/sdcio/netconf-client/pkg/utils"
)

// ReadTransaction reads from the device. It keeps no state between calls,
// concurrent reads are allowed.
type ReadTransaction struct {
	id      TransactionID
	session SessionID
	invoker rpc.Invoker
	builder *ops.Builder
}

func newReadTransaction(id TransactionID, session SessionID, invoker rpc.Invoker, builder *ops.Builder) *ReadTransaction {
	return &ReadTransaction{
		id:      id,
		session: session,
		invoker: invoker,
		builder: builder,
	}
}

func (r *ReadTransaction) ID() TransactionID {
	return r.id
}

func (r *ReadTransaction) Session() SessionID {
	return r.session
}

// Read returns the node at path. Configuration reads use get-config on
// running, operational reads use get. A nil element means the node is absent.
func (r *ReadTransaction) Read(ctx context.Context, ds ops.Datastore, path *gnmi.Path) *future.Future[*etree.Element] {
	op, body, err := r.builder.Read(ds, path)
	if err != nil {
		return future.Failed[*etree.Element](newStepError(ErrReadFailed, op, "", r.session, err))
	}
	log.Debugf("session %s: tx %s: %s %s", r.session, r.id, op, utils.ToXPath(path))

	return future.Map(r.invoker.Invoke(ctx, op, body), func(resp *types.NetconfResponse, err error) (*etree.Element, error) {
		if err != nil {
			return nil, newStepError(ErrReadFailed, op, "", r.session, err)
		}
		return ops.ExtractData(resp.Data(), path), nil
	})
}

// Exists reports whether the node at path is present.
func (r *ReadTransaction) Exists(ctx context.Context, ds ops.Datastore, path *gnmi.Path) *future.Future[bool] {
	return future.Map(r.Read(ctx, ds, path), func(e *etree.Element, err error) (bool, error) {
		if err != nil {
			return false, err
		}
		return e != nil, nil
	})
}
