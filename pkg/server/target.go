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
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/beevik/etree"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sdcio/netconf-client/pkg/config"
	"github.com/sdcio/netconf-client/pkg/netconf"
	"github.com/sdcio/netconf-client/pkg/netconf/driver/scrapligo"
	"github.com/sdcio/netconf-client/pkg/netconf/ops"
	"github.com/sdcio/netconf-client/pkg/netconf/rpc"
	"github.com/sdcio/netconf-client/pkg/tx"
	"github.com/sdcio/netconf-client/pkg/utils"
)

var (
	ErrNotConnected = errors.New("target not connected")
	ErrInvalidPath  = errors.New("invalid path")
)

// DriverFactory opens a NETCONF session to the device described by sbi.
type DriverFactory func(ctx context.Context, sbi *config.SBI) (netconf.Driver, error)

// ScrapligoDriverFactory opens the session with scrapligo.
func ScrapligoDriverFactory(_ context.Context, sbi *config.SBI) (netconf.Driver, error) {
	d, err := scrapligo.NewScrapligoNetconfTarget(sbi)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// SyncResult is the outcome of the last periodic read of one path.
type SyncResult struct {
	Path    string    `json:"path"`
	Time    time.Time `json:"time"`
	Present bool      `json:"present"`
	Error   string    `json:"error,omitempty"`
}

// TargetInfo describes a target for the HTTP API.
type TargetInfo struct {
	Name      string        `json:"name"`
	Address   string        `json:"address"`
	Connected bool          `json:"connected"`
	Kind      string        `json:"kind,omitempty"`
	Sync      []*SyncResult `json:"sync,omitempty"`
}

// Target owns the driver, the RPC invoker and the transaction session of one device.
type Target struct {
	cfg     *config.TargetConfig
	factory DriverFactory

	m       sync.RWMutex
	driver  netconf.Driver
	invoker *rpc.DriverInvoker
	session *tx.Session
	synced  map[string]*SyncResult
}

func NewTarget(cfg *config.TargetConfig, factory DriverFactory) *Target {
	if factory == nil {
		factory = ScrapligoDriverFactory
	}
	return &Target{
		cfg:     cfg,
		factory: factory,
		synced:  map[string]*SyncResult{},
	}
}

func (t *Target) Name() string {
	return t.cfg.Name
}

// Open makes a single connection attempt.
func (t *Target) Open(ctx context.Context) error {
	d, err := t.factory(ctx, t.cfg.SBI)
	if err != nil {
		return err
	}
	inv := rpc.NewDriverInvoker(ctx, t.cfg.Name, d)
	s, err := NewSession(t.cfg.Name, t.cfg.SBI, inv)
	if err != nil {
		inv.Close()
		if cerr := d.Close(); cerr != nil {
			log.Warnf("target %s: failed to close driver: %v", t.cfg.Name, cerr)
		}
		return err
	}

	t.m.Lock()
	defer t.m.Unlock()
	t.driver = d
	t.invoker = inv
	t.session = s
	log.Infof("target %s: connected to %s:%d, using %s transactions", t.cfg.Name, t.cfg.SBI.Address, t.cfg.SBI.Port, s.Kind())
	return nil
}

// Connect retries Open every connect-retry until it succeeds or ctx is done.
func (t *Target) Connect(ctx context.Context) error {
	err := t.Open(ctx)
	if err == nil {
		return nil
	}
	log.Errorf("failed to connect target %s: %v", t.cfg.Name, err)
	ticker := time.NewTicker(t.cfg.SBI.ConnectRetry)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err = t.Open(ctx)
			if err != nil {
				log.Errorf("failed to connect target %s: %v", t.cfg.Name, err)
				continue
			}
			return nil
		}
	}
}

// Session returns the transaction session or ErrNotConnected.
func (t *Target) Session() (*tx.Session, error) {
	t.m.RLock()
	defer t.m.RUnlock()
	if t.session == nil {
		return nil, fmt.Errorf("%s: %w", t.cfg.Name, ErrNotConnected)
	}
	return t.session, nil
}

// Read reads path through a fresh read transaction.
func (t *Target) Read(ctx context.Context, ds ops.Datastore, path string) (*etree.Element, error) {
	s, err := t.Session()
	if err != nil {
		return nil, err
	}
	p, err := utils.ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return s.NewReadTransaction().Read(ctx, ds, p).Wait(ctx)
}

// Sync reads the configured sync paths right away and then every interval.
func (t *Target) Sync(ctx context.Context) {
	if t.cfg.Sync == nil || len(t.cfg.Sync.Paths) == 0 {
		return
	}
	log.Infof("starting target %s sync", t.cfg.Name)
	t.syncOnce(ctx)
	ticker := time.NewTicker(t.cfg.Sync.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Infof("target %s sync stopped: %v", t.cfg.Name, ctx.Err())
			return
		case <-ticker.C:
			t.syncOnce(ctx)
		}
	}
}

func (t *Target) syncOnce(ctx context.Context) {
	ds, err := ops.ParseDatastore(t.cfg.Sync.Datastore)
	if err != nil {
		log.Errorf("target %s: %v", t.cfg.Name, err)
		return
	}
	eg, ectx := errgroup.WithContext(ctx)
	for _, p := range t.cfg.Sync.Paths {
		p := p
		eg.Go(func() error {
			e, err := t.Read(ectx, ds, p)
			r := &SyncResult{Path: p, Time: time.Now(), Present: e != nil}
			if err != nil {
				r.Error = err.Error()
				log.Warnf("target %s: sync of %s failed: %v", t.cfg.Name, p, err)
			}
			t.m.Lock()
			t.synced[p] = r
			t.m.Unlock()
			// a failed path does not stop the others
			return nil
		})
	}
	_ = eg.Wait()
}

func (t *Target) Info() *TargetInfo {
	t.m.RLock()
	defer t.m.RUnlock()
	ti := &TargetInfo{
		Name:      t.cfg.Name,
		Address:   fmt.Sprintf("%s:%d", t.cfg.SBI.Address, t.cfg.SBI.Port),
		Connected: t.session != nil && t.driver != nil && t.driver.IsAlive(),
	}
	if t.session != nil {
		ti.Kind = t.session.Kind().String()
	}
	for _, r := range t.synced {
		ti.Sync = append(ti.Sync, r)
	}
	sort.Slice(ti.Sync, func(i, j int) bool {
		return ti.Sync[i].Path < ti.Sync[j].Path
	})
	return ti
}

// Stop drains the RPCs already queued and closes the driver.
func (t *Target) Stop() error {
	t.m.Lock()
	inv, d := t.invoker, t.driver
	t.invoker, t.driver, t.session = nil, nil, nil
	t.m.Unlock()

	if inv != nil {
		inv.Close()
	}
	if d != nil {
		return d.Close()
	}
	return nil
}
