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

// Package config contains the configuration for the KB compressor. The
// configuration is typically loaded from a JSON file on disk.
package config

import (
	"fmt"
	"runtime"

	"github.com/ebay/kbcompress/eval"
)

// Config describes the configuration of a compression run.
type Config struct {
	// How rules are searched for. Zero fields take their default values, see
	// Miner.ApplyDefaults.
	Miner Miner `json:"miner"`

	// If non-empty, the host:port or :port on which to serve Prometheus metrics
	// over HTTP. If empty (or unset), the metrics will not be served.
	MetricsAddress string `json:"metricsAddress,omitempty"`

	// If not nil, the search reports OpenTracing spans to this collector.
	Tracing *Tracing `json:"tracing,omitempty"`
}

// Tracing describes where to report OpenTracing spans.
type Tracing struct {
	// Only "jaeger" is supported.
	Type string `json:"type"`

	// The URL of a collector accepting jaeger.thrift over HTTP, like
	// "http://localhost:14268/api/traces".
	CollectorEndpoint string `json:"collectorEndpoint"`

	// The fraction of searches traced, between 0 and 1. Zero traces every
	// search.
	SamplingRate float64 `json:"samplingRate,omitempty"`
}

// Validate returns an error describing the first invalid setting of 't', or
// nil if all of them are valid.
func (t *Tracing) Validate() error {
	switch {
	case t.Type != "jaeger":
		return fmt.Errorf("unsupported tracing type %q", t.Type)
	case t.CollectorEndpoint == "":
		return fmt.Errorf("tracing collectorEndpoint must be set")
	case t.SamplingRate < 0 || t.SamplingRate > 1:
		return fmt.Errorf("tracing samplingRate must be between 0 and 1, got %v", t.SamplingRate)
	}
	return nil
}

// Miner contains the settings of the rule search.
type Miner struct {
	// The number of rules kept between refinement steps.
	BeamWidth int `json:"beamWidth"`

	// Rules longer than this aren't refined further.
	MaxRuleLength int `json:"maxRuleLength"`

	// Candidates covering a smaller fraction of the head relation's
	// remaining facts are discarded, and their specializations pruned. Between
	// 0 and 1.
	MinFactCoverage float64 `json:"minFactCoverage"`

	// Only constants that appear in at least this fraction of a relation's
	// facts (in some argument) are tried as rule constants. Between 0 and 1.
	MinConstantCoverage float64 `json:"minConstantCoverage"`

	// How candidates are ranked: "CompressionRatio" (the default),
	// "CompressionCapacity" or "InfoGain".
	Metric eval.Metric `json:"metric"`

	// The number of candidates evaluated in parallel.
	Workers int `json:"workers"`

	// The number of rule fingerprints remembered to detect duplicate
	// candidates.
	ExploredCacheSize int `json:"exploredCacheSize"`

	// A rule whose compression ratio reaches this is accepted without trying
	// to refine it further. Between 0 and 1.
	StopCompressionRatio float64 `json:"stopCompressionRatio"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := new(Config)
	cfg.Miner.ApplyDefaults()
	return cfg
}

// ApplyDefaults sets the zero fields of 'm' to their default values.
func (m *Miner) ApplyDefaults() {
	if m.BeamWidth == 0 {
		m.BeamWidth = 5
	}
	if m.MaxRuleLength == 0 {
		m.MaxRuleLength = 5
	}
	if m.MinFactCoverage == 0 {
		m.MinFactCoverage = 0.05
	}
	if m.MinConstantCoverage == 0 {
		m.MinConstantCoverage = 0.25
	}
	if m.Workers == 0 {
		m.Workers = runtime.NumCPU()
	}
	if m.ExploredCacheSize == 0 {
		m.ExploredCacheSize = 1 << 16
	}
	if m.StopCompressionRatio == 0 {
		m.StopCompressionRatio = 1
	}
}

// Validate returns an error describing the first invalid setting of 'm', or
// nil if all of them are valid. It should be called after ApplyDefaults.
func (m *Miner) Validate() error {
	switch {
	case m.BeamWidth < 1:
		return fmt.Errorf("beamWidth must be at least 1, got %d", m.BeamWidth)
	case m.MaxRuleLength < 1:
		return fmt.Errorf("maxRuleLength must be at least 1, got %d", m.MaxRuleLength)
	case m.MinFactCoverage < 0 || m.MinFactCoverage > 1:
		return fmt.Errorf("minFactCoverage must be between 0 and 1, got %v", m.MinFactCoverage)
	case m.MinConstantCoverage < 0 || m.MinConstantCoverage > 1:
		return fmt.Errorf("minConstantCoverage must be between 0 and 1, got %v", m.MinConstantCoverage)
	case m.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", m.Workers)
	case m.ExploredCacheSize < 1:
		return fmt.Errorf("exploredCacheSize must be at least 1, got %d", m.ExploredCacheSize)
	case m.StopCompressionRatio <= 0 || m.StopCompressionRatio > 1:
		return fmt.Errorf("stopCompressionRatio must be in (0, 1], got %v", m.StopCompressionRatio)
	}
	return nil
}
