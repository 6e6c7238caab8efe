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

// Package tracing assists with reporting OpenTracing traces.
package tracing

import (
	"fmt"
	"strings"

	"github.com/ebay/kbcompress/config"
	opentracing "github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"
	jaeger "github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// A Tracer reports OpenTracing traces to a collector.
type Tracer struct {
	// If not nil, called by Close.
	close func()
}

// New constructs a tracer and sets it as the global opentracing tracer. If
// 'tracingCfg' is nil, the global tracer is left alone and the returned Tracer
// does nothing. If err == nil, the returned tracer should be Closed to flush
// its buffer before program exit.
func New(serviceName string, tracingCfg *config.Tracing) (*Tracer, error) {
	if tracingCfg == nil {
		log.Debug("Skipping Jaeger setup: nil Tracing configuration")
		return &Tracer{}, nil
	}
	if err := tracingCfg.Validate(); err != nil {
		return nil, err
	}
	sampler := &jaegercfg.SamplerConfig{
		Type:  jaeger.SamplerTypeConst,
		Param: 1,
	}
	if tracingCfg.SamplingRate > 0 {
		sampler = &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeProbabilistic,
			Param: tracingCfg.SamplingRate,
		}
	}
	cfg := jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler:     sampler,
		Reporter: &jaegercfg.ReporterConfig{
			CollectorEndpoint: tracingCfg.CollectorEndpoint,
		},
	}
	logger := (*logrusAdapter)(log.WithFields(log.Fields{"component": "jaeger"}))
	tracer, closer, err := cfg.NewTracer(jaegercfg.Logger(logger))
	if err != nil {
		return nil, fmt.Errorf("could not initialize Jaeger tracer: %v", err)
	}
	opentracing.SetGlobalTracer(tracer)
	return &Tracer{
		close: func() {
			err := closer.Close()
			if err != nil {
				log.WithError(err).Warn("Error shutting down Jaeger tracer")
			}
			opentracing.SetGlobalTracer(opentracing.NoopTracer{})
		},
	}, nil
}

// Close stops the Tracer and flushes its buffered spans. It is not thread-safe.
func (t *Tracer) Close() {
	if t.close != nil {
		t.close()
	}
	t.close = nil
}

type logrusAdapter log.Entry

var _ jaeger.Logger = (*logrusAdapter)(nil)

func (_log *logrusAdapter) Error(msg string) {
	log := (*log.Entry)(_log)
	log.Error(strings.TrimSpace(msg))
}

func (_log *logrusAdapter) Infof(msg string, args ...interface{}) {
	log := (*log.Entry)(_log)
	log.Infof(strings.TrimSpace(msg), args...)
}
