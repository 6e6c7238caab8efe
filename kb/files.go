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

package kb

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ebay/kbcompress/util/errors"
	log "github.com/sirupsen/logrus"
)

// RelationFileSuffix is the file name suffix of relation files in a KB
// directory.
const RelationFileSuffix = ".tsv"

// Load reads a KB from the directory 'dir'. Each file named
// <relation>.tsv holds the facts of one relation, one fact per line with the
// argument constants separated by tabs. Blank lines and lines starting with
// '#' are ignored. Relations are added in file name order. Files without any
// facts are skipped.
func Load(dir string) (*KB, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+RelationFileSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	k := New(filepath.Base(dir))
	for _, filename := range matches {
		name := strings.TrimSuffix(filepath.Base(filename), RelationFileSuffix)
		facts, err := readFacts(filename)
		if err != nil {
			return nil, err
		}
		if len(facts) == 0 {
			log.WithField("file", filename).Warn("Skipping relation file with no facts")
			continue
		}
		if _, err := k.AddNamedRelation(name, facts); err != nil {
			return nil, fmt.Errorf("error loading %v: %w", filename, err)
		}
	}
	log.WithFields(log.Fields{
		"kb":        k.Name(),
		"relations": len(k.relations),
		"facts":     k.TotalFacts(),
		"constants": k.TotalConstants(),
	}).Info("Loaded KB")
	return k, nil
}

func readFacts(filename string) ([][]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var facts [][]string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fact := strings.Split(line, "\t")
		if len(facts) > 0 && len(fact) != len(facts[0]) {
			return nil, fmt.Errorf("%v:%d: fact has %d arguments, expected %d",
				filename, lineNo, len(fact), len(facts[0]))
		}
		for i, arg := range fact {
			fact[i] = strings.TrimSpace(arg)
			if fact[i] == "" {
				return nil, fmt.Errorf("%v:%d: argument %d is empty", filename, lineNo, i)
			}
		}
		facts = append(facts, fact)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %v: %w", filename, err)
	}
	return facts, nil
}

// Dump writes every relation of the KB into 'dir' in the format read by Load.
// The directory is created if needed. When 'remaining' is true, facts marked
// as entailed are left out, which produces the part of the KB that the
// accepted rules don't explain.
func Dump(k *KB, dir string, remaining bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, rel := range k.relations {
		filename := filepath.Join(dir, rel.Name()+RelationFileSuffix)
		if err := dumpRelation(k, rel, filename, remaining); err != nil {
			return fmt.Errorf("failed to write %v: %w", filename, err)
		}
	}
	return nil
}

func dumpRelation(k *KB, rel *Relation, filename string, remaining bool) error {
	rows := rel.AllRows()
	if remaining {
		kept := make([][]int, 0, len(rows)-rel.EntailedCount())
		for i, row := range rows {
			if !rel.IsEntailedAt(i) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}
	return WriteFacts(k, filename, rows)
}

// WriteFacts writes 'rows' to the file 'filename' in the format read by Load,
// with the constants of 'k' named.
func WriteFacts(k *KB, filename string, rows [][]int) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	var args []string
	for _, row := range rows {
		args = args[:0]
		for _, v := range row {
			args = append(args, k.ConstantName(v))
		}
		w.WriteString(strings.Join(args, "\t"))
		w.WriteByte('\n')
	}
	return errors.Any(w.Flush(), f.Close())
}
