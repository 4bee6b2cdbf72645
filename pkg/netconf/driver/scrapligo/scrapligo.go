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

package scrapligo

import (
	"fmt"
	"sync/atomic"

	"github.com/beevik/etree"
	scraplinetconf "github.com/scrapli/scrapligo/driver/netconf"
	"github.com/scrapli/scrapligo/driver/options"
	"github.com/scrapli/scrapligo/response"
	"github.com/scrapli/scrapligo/util"

	"github.com/sdcio/netconf-client/pkg/config"
	"github.com/sdcio/netconf-client/pkg/netconf/types"
)

type ScrapligoNetconfTarget struct {
	driver *scraplinetconf.Driver
	alive  atomic.Bool
}

// NewScrapligoNetconfTarget inits a new ScrapligoNetconfTarget which is already connected to the target node
func NewScrapligoNetconfTarget(cfg *config.SBI) (*ScrapligoNetconfTarget, error) {
	opts := []util.Option{
		options.WithAuthNoStrictKey(),
		options.WithNetconfForceSelfClosingTags(),
		options.WithTransportType("standard"),
		options.WithPort(cfg.Port),
		options.WithTimeoutOps(cfg.Timeout),
	}

	if cfg.Credentials != nil {
		opts = append(opts,
			options.WithAuthUsername(cfg.Credentials.Username),
			options.WithAuthPassword(cfg.Credentials.Password),
		)
	}
	if cfg.NetconfOptions != nil && cfg.NetconfOptions.PreferredNCVersion != "" {
		opts = append(opts,
			options.WithNetconfPreferredVersion(cfg.NetconfOptions.PreferredNCVersion),
		)
	}
	d, err := scraplinetconf.NewDriver(cfg.Address, opts...)
	if err != nil {
		return nil, err
	}

	err = d.Open()
	if err != nil {
		return nil, err
	}

	snt := &ScrapligoNetconfTarget{
		driver: d,
	}
	snt.alive.Store(true)
	return snt, nil
}

func (snt *ScrapligoNetconfTarget) Close() error {
	snt.alive.Store(false)
	return snt.driver.Close()
}

func (snt *ScrapligoNetconfTarget) IsAlive() bool {
	return snt.alive.Load()
}

func (snt *ScrapligoNetconfTarget) RPC(body string) (*types.NetconfResponse, error) {
	return snt.reply(snt.driver.RPC(createFilterOption(body)))
}

func (snt *ScrapligoNetconfTarget) GetConfig(source string, filter string) (*types.NetconfResponse, error) {
	return snt.reply(snt.driver.GetConfig(source, createFilterOption(filter), options.WithNetconfForceSelfClosingTags()))
}

func (snt *ScrapligoNetconfTarget) Get(filter string) (*types.NetconfResponse, error) {
	return snt.reply(snt.driver.Get(filter))
}

func (snt *ScrapligoNetconfTarget) Lock(target string) (*types.NetconfResponse, error) {
	return snt.reply(snt.driver.Lock(target))
}

func (snt *ScrapligoNetconfTarget) Unlock(target string) (*types.NetconfResponse, error) {
	return snt.reply(snt.driver.Unlock(target))
}

func (snt *ScrapligoNetconfTarget) Validate(source string) (*types.NetconfResponse, error) {
	return snt.reply(snt.driver.Validate(source))
}

func (snt *ScrapligoNetconfTarget) Commit() (*types.NetconfResponse, error) {
	return snt.reply(snt.driver.Commit())
}

func (snt *ScrapligoNetconfTarget) Discard() (*types.NetconfResponse, error) {
	return snt.reply(snt.driver.Discard())
}

// reply parses the rpc-reply of resp. The rpc-errors it carries are left to
// the caller, resp.Failed is only used when the reply is not parsable.
func (snt *ScrapligoNetconfTarget) reply(resp *response.NetconfResponse, err error) (*types.NetconfResponse, error) {
	if err != nil {
		snt.alive.Store(false)
		return nil, err
	}
	x := etree.NewDocument()
	if perr := x.ReadFromString(resp.Result); perr != nil || x.Root() == nil {
		if resp.Failed != nil {
			return nil, resp.Failed
		}
		return nil, fmt.Errorf("unable to parse rpc-reply %q: %v", resp.Result, perr)
	}
	return types.NewNetconfResponse(x), nil
}

// createFilterOption is a helper function that populates the Filter field for the internal Scrapligo RPC instantiation
func createFilterOption(filter string) util.Option {
	return func(x interface{}) error {
		oo, ok := x.(*scraplinetconf.OperationOptions)

		if !ok {
			return util.ErrIgnoredOption
		}
		oo.Filter = filter
		return nil
	}
}
