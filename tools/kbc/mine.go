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
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/ebay/kbcompress/config"
	"github.com/ebay/kbcompress/inttable"
	"github.com/ebay/kbcompress/kb"
	"github.com/ebay/kbcompress/miner"
	"github.com/ebay/kbcompress/util/clocks"
	"github.com/ebay/kbcompress/util/errors"
	"github.com/ebay/kbcompress/util/profiling"
	"github.com/ebay/kbcompress/util/table"
	"github.com/ebay/kbcompress/util/tracing"
	log "github.com/sirupsen/logrus"
)

func mine(ctx context.Context, k *kb.KB, options *options) error {
	cfg := config.Default()
	if options.ConfigFile != "" {
		var err error
		cfg, err = config.Load(options.ConfigFile)
		if err != nil {
			return err
		}
	}
	if options.MetricsAddress != "" {
		cfg.MetricsAddress = options.MetricsAddress
	}
	relations, err := selectRelations(k, options.Relations)
	if err != nil {
		return err
	}
	m, err := miner.New(k, cfg.Miner, clocks.Wall)
	if err != nil {
		return err
	}
	tracer, err := tracing.New("kbc", cfg.Tracing)
	if err != nil {
		return fmt.Errorf("unable to set up tracing: %w", err)
	}
	defer tracer.Close()
	prog := newProgress(len(relations))
	if cfg.MetricsAddress != "" {
		srv, err := startStatusServer(cfg.MetricsAddress, prog)
		if err != nil {
			return fmt.Errorf("unable to serve metrics: %w", err)
		}
		defer srv.Close()
	}
	if options.CPUProfile != "" {
		stop, err := profiling.StartCPUProfile(options.CPUProfile)
		if err != nil {
			return err
		}
		defer stop()
	}

	bar := pb.New(len(relations)).Prefix("Relations ")
	bar.Output = os.Stderr
	bar.ShowCounters = true
	bar.ShowPercent = true
	bar.SetMaxWidth(100)
	bar.Start()
	results := make([]*miner.Result, 0, len(relations))
	for _, rel := range relations {
		prog.start(rel.Name())
		res, err := m.MineRelation(ctx, rel)
		results = append(results, res)
		prog.finish(res)
		bar.Increment()
		if err != nil {
			bar.Finish()
			return err
		}
	}
	bar.Finish()

	table.PrettyPrint(os.Stdout, rulesTable(k, results), table.HeaderRow|table.SkipEmpty|table.RightJustifyNumbers)
	fmt.Println()
	table.PrettyPrint(os.Stdout, resultsTable(results), table.HeaderRow|table.FooterRow|table.RightJustifyNumbers)
	if options.OutDir != "" {
		if err := writeOutput(options.OutDir, k, results); err != nil {
			return err
		}
		log.WithField("dir", options.OutDir).Info("Wrote compressed KB")
	}
	return nil
}

// selectRelations returns the named relations of 'k', or all of them if
// 'names' is empty.
func selectRelations(k *kb.KB, names []string) ([]*kb.Relation, error) {
	if len(names) == 0 {
		return k.Relations(), nil
	}
	res := make([]*kb.Relation, len(names))
	for i, name := range names {
		rel, exists := k.RelationByName(name)
		if !exists {
			return nil, fmt.Errorf("unknown relation %q", name)
		}
		res[i] = rel
	}
	return res, nil
}

// rulesTable lists the accepted rules.
func rulesTable(k *kb.KB, results []*miner.Result) [][]string {
	t := [][]string{{"rule", "entailed", "counterexamples", "length"}}
	for _, res := range results {
		for _, h := range res.Hypotheses {
			t = append(t, []string{
				h.Rule.Format(k),
				fmtr.Sprintf("%d", len(h.Evidence.Groundings)),
				fmtr.Sprintf("%d", len(h.Counterexamples)),
				fmtr.Sprintf("%d", h.Rule.Length()),
			})
		}
	}
	return t
}

// resultsTable summarizes the compression of each relation, with the totals
// as a footer.
func resultsTable(results []*miner.Result) [][]string {
	t := [][]string{{"relation", "facts", "rules", "entailed", "counterexamples", "compressed", "ratio", "time"}}
	var facts, rules, entailed, cex, compressed int
	for _, res := range results {
		t = append(t, []string{
			res.Relation.Name(),
			fmtr.Sprintf("%d", res.Relation.Len()),
			fmtr.Sprintf("%d", len(res.Hypotheses)),
			fmtr.Sprintf("%d", res.EntailedFacts()),
			fmtr.Sprintf("%d", res.Counterexamples()),
			fmtr.Sprintf("%d", res.CompressedSize()),
			fmtr.Sprintf("%.2f", res.CompressionRatio()),
			res.Elapsed.Round(time.Millisecond).String(),
		})
		facts += res.Relation.Len()
		rules += len(res.Hypotheses)
		entailed += res.EntailedFacts()
		cex += res.Counterexamples()
		compressed += res.CompressedSize()
	}
	ratio := 1.0
	if compressed > 0 {
		ratio = float64(facts) / float64(compressed)
	}
	t = append(t, []string{
		"total",
		fmtr.Sprintf("%d", facts),
		fmtr.Sprintf("%d", rules),
		fmtr.Sprintf("%d", entailed),
		fmtr.Sprintf("%d", cex),
		fmtr.Sprintf("%d", compressed),
		fmtr.Sprintf("%.2f", ratio),
		"",
	})
	return t
}

// writeOutput saves the compressed KB into 'dir': the accepted rules in
// rules.txt, the counterexamples of each relation under counterexamples/, and
// the facts no rule entails under remaining/.
func writeOutput(dir string, k *kb.KB, results []*miner.Result) error {
	if err := kb.Dump(k, filepath.Join(dir, "remaining"), true); err != nil {
		return err
	}
	if err := writeRules(filepath.Join(dir, "rules.txt"), k, results); err != nil {
		return err
	}
	cexDir := filepath.Join(dir, "counterexamples")
	if err := os.MkdirAll(cexDir, 0755); err != nil {
		return err
	}
	for _, res := range results {
		var rows [][]int
		for _, h := range res.Hypotheses {
			rows = append(rows, h.Counterexamples...)
		}
		if len(rows) == 0 {
			continue
		}
		sort.Slice(rows, func(i, j int) bool {
			return inttable.Compare(rows[i], rows[j]) < 0
		})
		filename := filepath.Join(cexDir, res.Relation.Name()+kb.RelationFileSuffix)
		if err := kb.WriteFacts(k, filename, rows); err != nil {
			return fmt.Errorf("failed to write %v: %w", filename, err)
		}
	}
	return nil
}

func writeRules(filename string, k *kb.KB, results []*miner.Result) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, res := range results {
		for _, h := range res.Hypotheses {
			fmt.Fprintf(w, "# %v\n%s\n", h.Eval, h.Rule.Format(k))
		}
	}
	return errors.Any(w.Flush(), f.Close())
}
