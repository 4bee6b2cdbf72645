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
	"errors"
	"fmt"
	"time"

	"github.com/AlekSi/pointer"
)

const (
	CommitDatastoreAuto             = "auto"
	CommitDatastoreCandidate        = "candidate"
	CommitDatastoreRunning          = "running"
	CommitDatastoreCandidateRunning = "candidate-running"

	ncVersion10 = "1.0"
	ncVersion11 = "1.1"
)

type TargetConfig struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	SBI  *SBI   `yaml:"sbi,omitempty" json:"sbi,omitempty"`
	Sync *Sync  `yaml:"sync,omitempty" json:"sync,omitempty"`
}

type SBI struct {
	// netconf address
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty"`
	// Target SBI credentials
	Credentials    *Creds             `yaml:"credentials,omitempty" json:"credentials,omitempty"`
	NetconfOptions *SBINetconfOptions `yaml:"netconf-options,omitempty" json:"netconf-options,omitempty"`
	// ConnectRetry
	ConnectRetry time.Duration `yaml:"connect-retry,omitempty" json:"connect-retry,omitempty"`
	// Timeout
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

type SBINetconfOptions struct {
	// sets the preferred NC version: 1.0 or 1.1
	PreferredNCVersion string `yaml:"preferred-nc-version,omitempty" json:"preferred-nc-version,omitempty"`
	// add a namespace when specifying a netconf operation such as 'delete' or 'remove'
	OperationWithNamespace bool `yaml:"operation-with-namespace,omitempty" json:"operation-with-namespace,omitempty"`
	// use 'remove' operation instead of 'delete'
	UseOperationRemove bool `yaml:"use-operation-remove,omitempty" json:"use-operation-remove,omitempty"`
	// one of auto, candidate, running, candidate-running
	CommitDatastore string `yaml:"commit-datastore,omitempty" json:"commit-datastore,omitempty"`
	// capabilities of the device, consulted when commit-datastore is auto
	Capabilities []string `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	// lock the datastores a write transaction touches, defaults to true
	LockDatastore        *bool `yaml:"lock-datastore,omitempty" json:"lock-datastore,omitempty"`
	RollbackOnError      bool  `yaml:"rollback-on-error,omitempty" json:"rollback-on-error,omitempty"`
	ValidateBeforeCommit bool  `yaml:"validate-before-commit,omitempty" json:"validate-before-commit,omitempty"`
}

type Creds struct {
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

type Sync struct {
	Paths     []string      `yaml:"paths,omitempty" json:"paths,omitempty"`
	Interval  time.Duration `yaml:"interval,omitempty" json:"interval,omitempty"`
	Datastore string        `yaml:"datastore,omitempty" json:"datastore,omitempty"`
}

func (t *TargetConfig) ValidateSetDefaults() error {
	if t.Name == "" {
		return errors.New("missing target name")
	}
	if t.SBI == nil {
		return errors.New("missing sbi definition")
	}
	if err := t.SBI.validateSetDefaults(); err != nil {
		return err
	}
	if t.Sync != nil {
		if err := t.Sync.validateSetDefaults(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SBI) validateSetDefaults() error {
	if s.Address == "" {
		return errors.New("missing SBI address")
	}
	if s.Port == 0 {
		s.Port = defaultNCPort
	}
	if s.ConnectRetry < time.Second {
		s.ConnectRetry = defaultConnectRetry
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}
	if s.NetconfOptions == nil {
		s.NetconfOptions = &SBINetconfOptions{}
	}
	return s.NetconfOptions.validateSetDefaults()
}

func (o *SBINetconfOptions) validateSetDefaults() error {
	switch o.CommitDatastore {
	case "":
		o.CommitDatastore = CommitDatastoreAuto
	case CommitDatastoreAuto, CommitDatastoreCandidate, CommitDatastoreRunning, CommitDatastoreCandidateRunning:
	default:
		return fmt.Errorf("unknown commit-datastore: %s. Must be one of %s, %s, %s, %s",
			o.CommitDatastore, CommitDatastoreAuto, CommitDatastoreCandidate, CommitDatastoreRunning, CommitDatastoreCandidateRunning)
	}
	switch o.PreferredNCVersion {
	case "", ncVersion10, ncVersion11:
	default:
		return fmt.Errorf("unknown preferred-nc-version: %s", o.PreferredNCVersion)
	}
	if o.LockDatastore == nil {
		o.LockDatastore = pointer.ToBool(true)
	}
	return nil
}

func (s *Sync) validateSetDefaults() error {
	if s.Interval <= 0 {
		s.Interval = defaultSyncInterval
	}
	switch s.Datastore {
	case "":
		s.Datastore = "configuration"
	case "configuration", "operational":
	default:
		return fmt.Errorf("unknown sync datastore %q", s.Datastore)
	}
	return nil
}
