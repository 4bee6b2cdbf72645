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
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sdcio/netconf-client/pkg/config"
	"github.com/sdcio/netconf-client/pkg/netconf/rpc"
	"github.com/sdcio/netconf-client/pkg/tx"
)

type Server struct {
	config *config.Config

	ctx context.Context
	cfn context.CancelFunc

	router *mux.Router
	reg    *prometheus.Registry

	factory DriverFactory

	mt      *sync.RWMutex
	targets map[string]*Target
}

type Option func(*Server)

// WithDriverFactory replaces the scrapligo driver, e.g. in tests.
func WithDriverFactory(f DriverFactory) Option {
	return func(s *Server) {
		s.factory = f
	}
}

func New(ctx context.Context, c *config.Config, opts ...Option) (*Server, error) {
	if c == nil {
		return nil, errors.New("missing config")
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Server{
		config:  c,
		ctx:     ctx,
		cfn:     cancel,
		router:  mux.NewRouter(),
		reg:     prometheus.NewRegistry(),
		mt:      &sync.RWMutex{},
		targets: make(map[string]*Target, len(c.Targets)),
	}
	for _, o := range opts {
		o(s)
	}
	for _, tc := range c.Targets {
		if _, ok := s.targets[tc.Name]; ok {
			cancel()
			return nil, fmt.Errorf("target %s already exists", tc.Name)
		}
		s.targets[tc.Name] = NewTarget(tc, s.factory)
	}

	s.reg.MustRegister(rpc.Collectors()...)
	s.reg.MustRegister(tx.Collectors()...)
	s.reg.MustRegister(collectors.NewGoCollector())
	s.reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s.routes()
	return s, nil
}

// Serve connects the targets in the background and serves the HTTP API
// until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if s.config.Prometheus != nil {
		go s.serveMetrics(ctx)
	}
	go s.startTargets(ctx)

	srv := &http.Server{
		Addr:         s.config.HTTP.Address,
		Handler:      s.router,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Errorf("HTTP server shutdown: %v", err)
		}
	}()
	log.Infof("running server on %s", s.config.HTTP.Address)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) serveMetrics(ctx context.Context) {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:         s.config.Prometheus.Address,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("metrics server stopped: %v", err)
	}
}

// startTargets connects all targets concurrently and starts their syncs.
func (s *Server) startTargets(ctx context.Context) {
	eg, ectx := errgroup.WithContext(ctx)
	for _, t := range s.Targets() {
		t := t
		eg.Go(func() error {
			if err := t.Connect(ectx); err != nil {
				return err
			}
			go t.Sync(s.ctx)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Errorf("connecting targets stopped: %v", err)
		return
	}
	log.Infof("all %d target(s) connected", len(s.targets))
}

func (s *Server) Target(name string) (*Target, bool) {
	s.mt.RLock()
	defer s.mt.RUnlock()
	t, ok := s.targets[name]
	return t, ok
}

// Targets returns all targets sorted by name.
func (s *Server) Targets() []*Target {
	s.mt.RLock()
	defer s.mt.RUnlock()
	result := make([]*Target, 0, len(s.targets))
	for _, t := range s.targets {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

func (s *Server) Stop() {
	s.cfn()
	for _, t := range s.Targets() {
		if err := t.Stop(); err != nil {
			log.Warnf("failed to stop target %s: %v", t.Name(), err)
		}
	}
}
