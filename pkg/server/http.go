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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/beevik/etree"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/sdcio/netconf-client/pkg/netconf/ops"
)

func (s *Server) routes() {
	s.router.HandleFunc("/targets", s.listTargets).Methods(http.MethodGet)
	s.router.HandleFunc("/targets/{name}", s.getTarget).Methods(http.MethodGet)
	s.router.HandleFunc("/targets/{name}/data", s.getData).Methods(http.MethodGet)
}

func (s *Server) listTargets(w http.ResponseWriter, _ *http.Request) {
	targets := s.Targets()
	infos := make([]*TargetInfo, 0, len(targets))
	for _, t := range targets {
		infos = append(infos, t.Info())
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) getTarget(w http.ResponseWriter, r *http.Request) {
	t, ok := s.Target(mux.Vars(r)["name"])
	if !ok {
		http.Error(w, "unknown target", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t.Info())
}

// getData serves GET /targets/{name}/data?path=<xpath>&datastore=<configuration|operational>.
func (s *Server) getData(w http.ResponseWriter, r *http.Request) {
	t, ok := s.Target(mux.Vars(r)["name"])
	if !ok {
		http.Error(w, "unknown target", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	ds, err := ops.ParseDatastore(q.Get("datastore"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	path := q.Get("path")
	if path == "" {
		path = "/"
	}

	e, err := t.Read(r.Context(), ds, path)
	switch {
	case errors.Is(err, ErrInvalidPath):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrNotConnected):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		log.Debugf("target %s: read %s failed: %v", t.Name(), path, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	case e == nil:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	doc := etree.NewDocument()
	doc.SetRoot(e)
	if q.Has("indent") {
		doc.Indent(2)
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := doc.WriteTo(w); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}
