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

package netconf

import "github.com/sdcio/netconf-client/pkg/netconf/types"

//go:generate mockgen -source=driver.go -destination=../../mocks/mocknetconf/driver.go -package=mocknetconf

// Driver is a connected NETCONF session. Implementations return the complete
// <rpc-reply> document and an error only if no reply could be obtained.
type Driver interface {
	// Get config and state, filter is the content of a subtree filter
	Get(filter string) (*types.NetconfResponse, error)
	// GetConfig of the source datastore, filter is the content of a subtree filter
	GetConfig(source string, filter string) (*types.NetconfResponse, error)
	// RPC sends the raw operation body, used for edit-config so all of its
	// parameters survive
	RPC(body string) (*types.NetconfResponse, error)
	// lock a target datastore
	Lock(target string) (*types.NetconfResponse, error)
	// unlock a target datastore
	Unlock(target string) (*types.NetconfResponse, error)
	// validate a source datastore
	Validate(source string) (*types.NetconfResponse, error)
	// Commit applies the candidate changes to the running config
	Commit() (*types.NetconfResponse, error)
	// Discard reverts the candidate to the running config
	Discard() (*types.NetconfResponse, error)
	// Close the connection to the device
	Close() error
	// IsAlive returns true if the underlying transport driver is still open
	IsAlive() bool
}
