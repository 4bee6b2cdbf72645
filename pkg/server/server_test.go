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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/mock/gomock"

	"github.com/sdcio/netconf-client/mocks/mocknetconf"
	"github.com/sdcio/netconf-client/mocks/mockrpc"
	"github.com/sdcio/netconf-client/pkg/config"
	"github.com/sdcio/netconf-client/pkg/netconf"
	"github.com/sdcio/netconf-client/pkg/netconf/types"
	"github.com/sdcio/netconf-client/pkg/tx"
)

const (
	configReply = `<rpc-reply xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><data><system><name><host-name>r1</host-name></name></system></data></rpc-reply>`
	stateReply  = `<rpc-reply xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><data><interfaces><interface><name>eth0</name><oper-status>up</oper-status></interface></interfaces></data></rpc-reply>`
	errorReply  = `<rpc-reply xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><rpc-error><error-type>application</error-type><error-tag>operation-failed</error-tag><error-severity>error</error-severity><error-message>busy</error-message></rpc-error></rpc-reply>`
)

func reply(t *testing.T, s string) *types.NetconfResponse {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		t.Fatal(err)
	}
	return types.NewNetconfResponse(doc)
}

func targetConfig(name string, o *config.SBINetconfOptions) *config.TargetConfig {
	if o == nil {
		o = &config.SBINetconfOptions{}
	}
	if o.CommitDatastore == "" {
		o.CommitDatastore = config.CommitDatastoreAuto
	}
	if o.LockDatastore == nil {
		o.LockDatastore = pointer.ToBool(true)
	}
	return &config.TargetConfig{
		Name: name,
		SBI: &config.SBI{
			Address:        "10.0.0.1",
			Port:           830,
			ConnectRetry:   10 * time.Millisecond,
			Timeout:        time.Second,
			NetconfOptions: o,
		},
	}
}

func staticFactory(d netconf.Driver) DriverFactory {
	return func(context.Context, *config.SBI) (netconf.Driver, error) {
		return d, nil
	}
}

func TestNewSession(t *testing.T) {
	tests := []struct {
		name    string
		opts    *config.SBINetconfOptions
		want    tx.Kind
		wantErr bool
	}{
		{
			name: "auto without capabilities",
			want: tx.KindCandidate,
		},
		{
			name: "auto with candidate and writable-running",
			opts: &config.SBINetconfOptions{Capabilities: []string{
				"urn:ietf:params:netconf:capability:candidate:1.0",
				"urn:ietf:params:netconf:capability:writable-running:1.0",
			}},
			want: tx.KindCandidateRunning,
		},
		{
			name: "auto with writable-running",
			opts: &config.SBINetconfOptions{Capabilities: []string{":writable-running"}},
			want: tx.KindRunning,
		},
		{
			name:    "auto without a writable datastore",
			opts:    &config.SBINetconfOptions{Capabilities: []string{"urn:ietf:params:netconf:base:1.1"}},
			wantErr: true,
		},
		{
			name: "forced running",
			opts: &config.SBINetconfOptions{
				CommitDatastore: config.CommitDatastoreRunning,
				Capabilities:    []string{":candidate"},
			},
			want: tx.KindRunning,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			inv := mockrpc.NewMockInvoker(ctrl)
			tc := targetConfig("dut1", tt.opts)

			s, err := NewSession(tc.Name, tc.SBI, inv)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewSession() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSession() failed: %v", err)
			}
			if s.Kind() != tt.want {
				t.Errorf("Kind() = %s, want %s", s.Kind(), tt.want)
			}
			if d := cmp.Diff("dut1(10.0.0.1:830)", s.ID().String()); d != "" {
				t.Errorf("session id mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func newTestServer(t *testing.T, d netconf.Driver) *Server {
	t.Helper()
	cfg := &config.Config{
		Targets: []*config.TargetConfig{
			targetConfig("dut1", nil),
			targetConfig("dut2", nil),
		},
		HTTP: &config.HTTPConfig{Address: "127.0.0.1:0"},
	}
	s, err := New(context.Background(), cfg, WithDriverFactory(staticFactory(d)))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	dut1, _ := s.Target("dut1")
	if err := dut1.Open(context.Background()); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func TestServer_GetData(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expect   func(t *testing.T, d *mocknetconf.MockDriver)
		wantCode int
		wantBody string
	}{
		{
			name: "configuration",
			url:  "/targets/dut1/data?path=/system/name",
			expect: func(t *testing.T, d *mocknetconf.MockDriver) {
				d.EXPECT().GetConfig("running", "<system><name/></system>").Return(reply(t, configReply), nil)
			},
			wantCode: http.StatusOK,
			wantBody: "<name><host-name>r1</host-name></name>",
		},
		{
			name: "operational list entry",
			url:  "/targets/dut1/data?path=/interfaces/interface[name=eth0]&datastore=operational",
			expect: func(t *testing.T, d *mocknetconf.MockDriver) {
				d.EXPECT().Get("<interfaces><interface><name>eth0</name></interface></interfaces>").Return(reply(t, stateReply), nil)
			},
			wantCode: http.StatusOK,
			wantBody: "<interface><name>eth0</name><oper-status>up</oper-status></interface>",
		},
		{
			name: "absent",
			url:  "/targets/dut1/data?path=/system/clock",
			expect: func(t *testing.T, d *mocknetconf.MockDriver) {
				d.EXPECT().GetConfig("running", "<system><clock/></system>").Return(reply(t, configReply), nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "rpc-error",
			url:  "/targets/dut1/data?path=/system/name",
			expect: func(t *testing.T, d *mocknetconf.MockDriver) {
				d.EXPECT().GetConfig("running", gomock.Any()).Return(reply(t, errorReply), nil)
			},
			wantCode: http.StatusBadGateway,
		},
		{
			name: "transport error",
			url:  "/targets/dut1/data?path=/system/name",
			expect: func(t *testing.T, d *mocknetconf.MockDriver) {
				d.EXPECT().GetConfig("running", gomock.Any()).Return(nil, errors.New("EOF"))
			},
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "unknown datastore",
			url:      "/targets/dut1/data?path=/system/name&datastore=startup",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid path",
			url:      "/targets/dut1/data?path=/interfaces/interface[name=eth0",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "not connected",
			url:      "/targets/dut2/data?path=/system/name",
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "unknown target",
			url:      "/targets/dut3/data?path=/system/name",
			wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			d := mocknetconf.NewMockDriver(ctrl)
			d.EXPECT().Close().Return(nil)
			if tt.expect != nil {
				tt.expect(t, d)
			}
			s := newTestServer(t, d)

			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantBody == "" {
				return
			}
			if d := cmp.Diff(tt.wantBody, rec.Body.String()); d != "" {
				t.Errorf("body mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestServer_ListTargets(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := mocknetconf.NewMockDriver(ctrl)
	d.EXPECT().IsAlive().Return(true).AnyTimes()
	d.EXPECT().Close().Return(nil)
	s := newTestServer(t, d)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/targets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []*TargetInfo
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	want := []*TargetInfo{
		{Name: "dut1", Address: "10.0.0.1:830", Connected: true, Kind: "candidate"},
		{Name: "dut2", Address: "10.0.0.1:830"},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", d)
	}
}

func TestTarget_Sync(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := mocknetconf.NewMockDriver(ctrl)
	d.EXPECT().GetConfig("running", "<system><name/></system>").Return(reply(t, configReply), nil)
	d.EXPECT().GetConfig("running", "<system><clock/></system>").Return(reply(t, configReply), nil)
	d.EXPECT().GetConfig("running", "<interfaces/>").Return(nil, errors.New("timeout"))
	d.EXPECT().IsAlive().Return(true).AnyTimes()
	d.EXPECT().Close().Return(nil)

	tc := targetConfig("dut1", nil)
	tc.Sync = &config.Sync{
		Paths:     []string{"/system/name", "/system/clock", "/interfaces"},
		Interval:  time.Hour,
		Datastore: "configuration",
	}
	tgt := NewTarget(tc, staticFactory(d))
	if err := tgt.Open(context.Background()); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer tgt.Stop()

	tgt.syncOnce(context.Background())

	info := tgt.Info()
	type outcome struct {
		Path    string
		Present bool
		Failed  bool
	}
	var got []outcome
	for _, r := range info.Sync {
		got = append(got, outcome{Path: r.Path, Present: r.Present, Failed: r.Error != ""})
	}
	want := []outcome{
		{Path: "/interfaces", Failed: true},
		{Path: "/system/clock"},
		{Path: "/system/name", Present: true},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("sync results mismatch (-want +got):\n%s", d)
	}
}

func TestTarget_ConnectRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := mocknetconf.NewMockDriver(ctrl)
	d.EXPECT().Close().Return(nil)

	var attempts int64
	factory := func(context.Context, *config.SBI) (netconf.Driver, error) {
		if atomic.AddInt64(&attempts, 1) < 3 {
			return nil, errors.New("connection refused")
		}
		return d, nil
	}
	tgt := NewTarget(targetConfig("dut1", nil), factory)
	if _, err := tgt.Session(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Session() before connect error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tgt.Connect(ctx); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer tgt.Stop()
	if n := atomic.LoadInt64(&attempts); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
	if _, err := tgt.Session(); err != nil {
		t.Errorf("Session() failed: %v", err)
	}
}

func TestTarget_ConnectCancelled(t *testing.T) {
	factory := func(context.Context, *config.SBI) (netconf.Driver, error) {
		return nil, errors.New("connection refused")
	}
	tgt := NewTarget(targetConfig("dut1", nil), factory)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := tgt.Connect(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Connect() error = %v, want context.DeadlineExceeded", err)
	}
	if !strings.Contains(tgt.Info().Address, "830") {
		t.Errorf("Info() address = %q", tgt.Info().Address)
	}
}
