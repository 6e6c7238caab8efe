// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"net"
	"net/http"
	"sync"

	"github.com/ebay/kbcompress/miner"
	"github.com/ebay/kbcompress/util/errors"
	"github.com/ebay/kbcompress/util/parallel"
	"github.com/ebay/kbcompress/util/web"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// progress tracks a mining run. It's safe for concurrent use.
type progress struct {
	lock   sync.Mutex
	status status
}

// status is a snapshot of a progress.
type status struct {
	Relations     int    `json:"relations"`
	Done          int    `json:"done"`
	Current       string `json:"current,omitempty"`
	Rules         int    `json:"rules"`
	EntailedFacts int    `json:"entailedFacts"`
}

func newProgress(relations int) *progress {
	return &progress{status: status{Relations: relations}}
}

func (p *progress) start(relation string) {
	p.lock.Lock()
	p.status.Current = relation
	p.lock.Unlock()
}

func (p *progress) finish(res *miner.Result) {
	p.lock.Lock()
	p.status.Current = ""
	p.status.Done++
	p.status.Rules += len(res.Hypotheses)
	p.status.EntailedFacts += res.EntailedFacts()
	p.lock.Unlock()
}

func (p *progress) snapshot() status {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.status
}

// newRouter serves Prometheus metrics on /metrics and the progress of the run
// as JSON on /progress.
func newRouter(prog *progress) *httprouter.Router {
	m := httprouter.New()
	m.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	m.GET("/progress", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		web.Write(w, prog.snapshot())
	})
	return m
}

type statusServer struct {
	addr net.Addr
	srv  *http.Server
	wait func() error
}

// startStatusServer serves newRouter on 'address' in the background.
func startStatusServer(address string, prog *progress) (*statusServer, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	s := &statusServer{
		addr: listener.Addr(),
		srv:  &http.Server{Handler: newRouter(prog)},
	}
	s.wait = parallel.GoCaptureError(func() error {
		err := s.srv.Serve(listener)
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})
	log.Infof("Serving metrics on http://%v/metrics", s.addr)
	return s, nil
}

// Close stops the server and waits for it to exit.
func (s *statusServer) Close() error {
	return errors.Any(s.srv.Close(), s.wait())
}
