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

	"github.com/sdcio/netconf-client/pkg/future"
	"github.com/sdcio/netconf-client/pkg/netconf/ops"
)

// ReadWriteTransaction is a write transaction that can read as well. Reads
// go to the device, queued edits are not visible to them.
type ReadWriteTransaction struct {
	*WriteTransaction
	reader *ReadTransaction
}

func newReadWriteTransaction(w *WriteTransaction) *ReadWriteTransaction {
	return &ReadWriteTransaction{
		WriteTransaction: w,
		reader:           newReadTransaction(w.id, w.session, w.invoker, w.builder),
	}
}

func toReadWrite(w *WriteTransaction, err error) (*ReadWriteTransaction, error) {
	if err != nil {
		return nil, err
	}
	return newReadWriteTransaction(w), nil
}

func (rw *ReadWriteTransaction) Read(ctx context.Context, ds ops.Datastore, path *gnmi.Path) *future.Future[*etree.Element] {
	return rw.reader.Read(ctx, ds, path)
}

func (rw *ReadWriteTransaction) Exists(ctx context.Context, ds ops.Datastore, path *gnmi.Path) *future.Future[bool] {
	return rw.reader.Exists(ctx, ds, path)
}
