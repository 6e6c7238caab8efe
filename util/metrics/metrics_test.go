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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func Test_Registry(t *testing.T) {
	reg := prometheus.NewRegistry()
	mr := Registry{R: reg}
	c := mr.NewCounter(prometheus.CounterOpts{Namespace: "kbc", Name: "things_total", Help: "Things"})
	c.Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(c))

	cv := mr.NewCounterVec(prometheus.CounterOpts{Namespace: "kbc", Name: "moves_total", Help: "Moves"},
		[]string{"status"})
	cv.WithLabelValues("Normal").Inc()
	cv.WithLabelValues("Normal").Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(cv.WithLabelValues("Normal")))

	g := mr.NewGauge(prometheus.GaugeOpts{Namespace: "kbc", Name: "level", Help: "Level"})
	g.Set(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(g))

	mr.NewGaugeVec(prometheus.GaugeOpts{Namespace: "kbc", Name: "levels", Help: "Levels"}, []string{"l"})
	mr.NewSummary(prometheus.SummaryOpts{Namespace: "kbc", Name: "sizes", Help: "Sizes"})
	mr.NewHistogram(prometheus.HistogramOpts{Namespace: "kbc", Name: "latency_seconds", Help: "Latency"})
	mr.NewHistogramVec(prometheus.HistogramOpts{Namespace: "kbc", Name: "step_seconds", Help: "Step"},
		[]string{"step"}).WithLabelValues("a").Observe(1)
	count, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 6, count, "the GaugeVec has no children yet")

	assert.Panics(t, func() {
		mr.NewCounter(prometheus.CounterOpts{Namespace: "kbc", Name: "things_total", Help: "Things"})
	})
}
