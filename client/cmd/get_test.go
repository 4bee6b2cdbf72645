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

package cmd

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/sdcio/netconf-client/mocks/mocknetconf"
	"github.com/sdcio/netconf-client/pkg/netconf/ops"
	"github.com/sdcio/netconf-client/pkg/tx"
)

const dataReply = `<rpc-reply xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><data><system><name><host-name>r1</host-name></name></system></data></rpc-reply>`

func TestReadAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := mocknetconf.NewMockDriver(ctrl)
	d.EXPECT().GetConfig("running", "<system><name/></system>").Return(reply(t, dataReply), nil)
	d.EXPECT().GetConfig("running", "<system><clock/></system>").Return(reply(t, dataReply), nil)

	results, err := readAll(context.Background(), newTestSession(t, d), ops.Configuration, []string{"/system/name", "/system/clock"})
	if err != nil {
		t.Fatalf("readAll() failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0] == nil || results[0].Tag != "name" {
		t.Errorf("results[0] = %v, want the name container", results[0])
	}
	if results[1] != nil {
		t.Errorf("results[1] = %v, want absent", results[1])
	}
}

func TestReadAll_Failure(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := mocknetconf.NewMockDriver(ctrl)
	d.EXPECT().Get(gomock.Any()).Return(nil, errors.New("EOF"))

	_, err := readAll(context.Background(), newTestSession(t, d), ops.Operational, []string{"/interfaces"})
	if !errors.Is(err, tx.ErrReadFailed) {
		t.Errorf("readAll() error = %v, want ErrReadFailed", err)
	}

	if _, err := readAll(context.Background(), newTestSession(t, d), ops.Operational, []string{"/interfaces[name="}); err == nil {
		t.Errorf("readAll() with an invalid path succeeded")
	}
}
