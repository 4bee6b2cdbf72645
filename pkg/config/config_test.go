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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *Config
		wantErr string
	}{
		{
			name: "defaults applied",
			content: `
targets:
  - name: srl1
    sbi:
      address: 10.0.0.1
      credentials:
        username: admin
        password: secret
    sync:
      paths:
        - /interfaces
`,
			want: &Config{
				HTTP: &HTTPConfig{Address: defaultHTTPAddress},
				Targets: []*TargetConfig{{
					Name: "srl1",
					SBI: &SBI{
						Address:      "10.0.0.1",
						Port:         defaultNCPort,
						Credentials:  &Creds{Username: "admin", Password: "secret"},
						ConnectRetry: defaultConnectRetry,
						Timeout:      defaultTimeout,
						NetconfOptions: &SBINetconfOptions{
							CommitDatastore: CommitDatastoreAuto,
							LockDatastore:   pointer.ToBool(true),
						},
					},
					Sync: &Sync{
						Paths:     []string{"/interfaces"},
						Interval:  defaultSyncInterval,
						Datastore: "configuration",
					},
				}},
			},
		},
		{
			name: "explicit netconf options",
			content: `
prometheus:
  address: :9090
targets:
  - name: vmx
    sbi:
      address: vmx.lab
      port: 22
      timeout: 5s
      netconf-options:
        commit-datastore: candidate-running
        lock-datastore: false
        rollback-on-error: true
`,
			want: &Config{
				Prometheus: &PromConfig{Address: ":9090"},
				HTTP:       &HTTPConfig{Address: defaultHTTPAddress},
				Targets: []*TargetConfig{{
					Name: "vmx",
					SBI: &SBI{
						Address:      "vmx.lab",
						Port:         22,
						ConnectRetry: defaultConnectRetry,
						Timeout:      5 * time.Second,
						NetconfOptions: &SBINetconfOptions{
							CommitDatastore: CommitDatastoreCandidateRunning,
							LockDatastore:   pointer.ToBool(false),
							RollbackOnError: true,
						},
					},
				}},
			},
		},
		{
			name: "unknown commit datastore",
			content: `
targets:
  - name: t1
    sbi:
      address: t1
      netconf-options:
        commit-datastore: startup
`,
			wantErr: "unknown commit-datastore",
		},
		{
			name: "duplicate names",
			content: `
targets:
  - name: t1
    sbi:
      address: a
  - name: t1
    sbi:
      address: b
`,
			wantErr: "duplicate target name",
		},
		{
			name: "missing address",
			content: `
targets:
  - name: t1
    sbi: {}
`,
			wantErr: "missing SBI address",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(file, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := New(file)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("New() error = %v, want error containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("New() mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestConfig_Target(t *testing.T) {
	c := &Config{Targets: []*TargetConfig{{Name: "a"}, {Name: "b"}}}
	if got := c.Target("b"); got == nil || got.Name != "b" {
		t.Errorf("Target(b) = %v", got)
	}
	if got := c.Target("c"); got != nil {
		t.Errorf("Target(c) = %v, want nil", got)
	}
}
