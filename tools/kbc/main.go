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

// Command kbc compresses a knowledge base by mining rules that entail its
// facts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	docopt "github.com/docopt/docopt-go"
	"github.com/ebay/kbcompress/kb"
	"github.com/ebay/kbcompress/util/debuglog"
	"github.com/ebay/kbcompress/util/table"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var fmtr = message.NewPrinter(language.English)

const usage = `kbc is a command-line tool that compresses a knowledge base into
rules, counterexamples and the facts the rules don't explain.

A knowledge base is a directory holding one <relation>.tsv file per relation,
with one fact per line and its arguments separated by tabs.

Usage:
  kbc [--log=LEVEL] stats DIR
  kbc [--log=LEVEL] eval DIR RULE
  kbc [--log=LEVEL] mine [--cfg=FILE] [--metrics=HOST] [--out=DIR] [--cpuprofile=FILE] DIR [RELATION...]

Options:
  --log=LEVEL          Minimum level of the log messages [default: info]
  --cfg=FILE           JSON configuration file. Defaults are used if unset.
  --metrics=HOST       Serve Prometheus metrics and progress over HTTP on this
                       host:port. Overrides the configuration's metricsAddress.
  --out=DIR            Write the rules, counterexamples and remaining facts
                       into DIR.
  --cpuprofile=FILE    Write a CPU profile of the mining to FILE.

Examples:
  # Show the relations of a knowledge base.
  kbc stats family

  # Score one rule.
  kbc eval family 'parent(X0,X1):-father(X0,X1)'

  # Mine rules for every relation and save the compressed knowledge base.
  kbc mine --out=family.kbc family

  # Mine rules for two relations only.
  kbc mine family parent grandparent
`

type options struct {
	LogLevel       string `docopt:"--log"`
	ConfigFile     string `docopt:"--cfg"`
	MetricsAddress string `docopt:"--metrics"`
	OutDir         string `docopt:"--out"`
	CPUProfile     string `docopt:"--cpuprofile"`

	Stats bool `docopt:"stats"`
	Eval  bool `docopt:"eval"`
	Mine  bool `docopt:"mine"`

	Dir       string   `docopt:"DIR"`
	Rule      string   `docopt:"RULE"`
	Relations []string `docopt:"RELATION"`
}

func parseArgs() *options {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		log.Fatalf("Error parsing command-line arguments: %v", err)
	}
	var options options
	err = opts.Bind(&options)
	if err != nil {
		log.Fatalf("Error binding command-line arguments: %v\nfrom: %+v", err, opts)
	}
	return &options
}

func main() {
	options := parseArgs()
	debuglog.Configure(debuglog.Options{Level: options.LogLevel})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	k, err := kb.Load(options.Dir)
	if err != nil {
		log.Fatalf("Unable to load knowledge base: %v", err)
	}
	switch {
	case options.Stats:
		table.PrettyPrint(os.Stdout, statsTable(k), table.HeaderRow|table.FooterRow|table.RightJustifyNumbers)
	case options.Eval:
		t, err := evalTable(k, options.Rule)
		if err != nil {
			log.Fatalf("Unable to evaluate rule: %v", err)
		}
		table.PrettyPrint(os.Stdout, t, table.HeaderRow|table.RightJustifyNumbers)
	case options.Mine:
		if err := mine(ctx, k, options); err != nil {
			log.Fatalf("Error mining rules: %v", err)
		}
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}
