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
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/netconf-client/pkg/config"
	"github.com/sdcio/netconf-client/pkg/netconf/ops"
	"github.com/sdcio/netconf-client/pkg/netconf/rpc"
	"github.com/sdcio/netconf-client/pkg/tx"
)

// NewSession creates the transaction session of a target from its
// netconf-options. With commit-datastore auto the transaction kind follows
// the configured capabilities.
func NewSession(name string, sbi *config.SBI, inv rpc.Invoker) (*tx.Session, error) {
	o := sbi.NetconfOptions
	if o == nil {
		o = &config.SBINetconfOptions{CommitDatastore: config.CommitDatastoreAuto}
	}
	caps := sessionCapabilities(o)

	sopts := []tx.SessionOption{
		tx.WithSessionValidateBeforeCommit(o.ValidateBeforeCommit),
	}
	if o.LockDatastore != nil {
		sopts = append(sopts, tx.WithSessionLockDatastore(*o.LockDatastore))
	}
	switch o.CommitDatastore {
	case config.CommitDatastoreAuto, "":
		if len(o.Capabilities) == 0 {
			log.Infof("target %s: no capabilities configured, using candidate transactions", name)
		}
	default:
		k, err := tx.ParseKind(o.CommitDatastore)
		if err != nil {
			return nil, err
		}
		sopts = append(sopts, tx.WithKind(k))
	}

	rollback := o.RollbackOnError
	if rollback && !caps.RollbackOnError {
		log.Warnf("target %s: rollback-on-error is not supported, edit-config is sent without error-option", name)
		rollback = false
	}
	b := ops.NewBuilder(&ops.Options{
		OperationWithNamespace: o.OperationWithNamespace,
		UseOperationRemove:     o.UseOperationRemove,
		RollbackOnError:        rollback,
	})

	id := tx.SessionID{Name: name, Address: fmt.Sprintf("%s:%d", sbi.Address, sbi.Port)}
	return tx.NewSession(id, inv, b, caps, sopts...)
}

func sessionCapabilities(o *config.SBINetconfOptions) tx.Capabilities {
	if len(o.Capabilities) > 0 {
		return tx.ParseCapabilities(o.Capabilities)
	}
	// nothing advertised in the config, trust the options
	return tx.Capabilities{
		Candidate:       true,
		RollbackOnError: o.RollbackOnError,
		Validate:        o.ValidateBeforeCommit,
	}
}
