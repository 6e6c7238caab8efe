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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ebay/kbcompress/config"
	"github.com/ebay/kbcompress/kb"
	"github.com/ebay/kbcompress/miner"
	"github.com/ebay/kbcompress/rule"
	"github.com/ebay/kbcompress/util/clocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// familyKB returns a KB where parent is the union of father and mother.
func familyKB(t *testing.T) *kb.KB {
	k := kb.New("family")
	var fathers, mothers [][]string
	for i := 1; i <= 4; i++ {
		fathers = append(fathers, []string{fmt.Sprintf("f%d", i), fmt.Sprintf("s%d", i)})
		mothers = append(mothers, []string{fmt.Sprintf("m%d", i), fmt.Sprintf("s%d", i+4)})
	}
	parents := append(append([][]string(nil), fathers...), mothers...)
	for _, rel := range []struct {
		name  string
		facts [][]string
	}{{"parent", parents}, {"father", fathers}, {"mother", mothers}} {
		_, err := k.AddNamedRelation(rel.name, rel.facts)
		require.NoError(t, err)
	}
	return k
}

func mineParent(t *testing.T, k *kb.KB) []*miner.Result {
	m, err := miner.New(k, config.Miner{Workers: 2}, clocks.NewMock())
	require.NoError(t, err)
	rels, err := selectRelations(k, []string{"parent"})
	require.NoError(t, err)
	results, err := m.Mine(context.Background(), rels)
	require.NoError(t, err)
	return results
}

func Test_statsTable(t *testing.T) {
	assert.Equal(t, [][]string{
		{"relation", "arity", "facts", "constants"},
		{"parent", "2", "8", "16"},
		{"father", "2", "4", "8"},
		{"mother", "2", "4", "8"},
		{"3 relations", "", "16", "16"},
	}, statsTable(familyKB(t)))
}

func Test_evalTable(t *testing.T) {
	k := familyKB(t)
	tbl, err := evalTable(k, "parent(X0,?):-father(X0,?)")
	require.NoError(t, err)
	rows := make(map[string]string)
	for _, row := range tbl {
		rows[row[0]] = row[1]
	}
	assert.Equal(t, "parent(X0,?):-father(X0,?)", rows["rule"])
	assert.Equal(t, "4", rows["entailed facts"])
	assert.Equal(t, "60", rows["counterexamples"])
	assert.Equal(t, "50.0%", rows["coverage"])
	assert.Equal(t, "false", rows["useful"])

	_, err = evalTable(k, "parent(f1,?):-father(?,?)")
	assert.EqualError(t, err, "rule parent(f1,?):-father(?,?) can't entail anything useful")
	_, err = evalTable(k, "cousin(X0,X0)")
	assert.EqualError(t, err, `unknown relation "cousin"`)
}

func Test_selectRelations(t *testing.T) {
	k := familyKB(t)
	rels, err := selectRelations(k, nil)
	require.NoError(t, err)
	assert.Len(t, rels, 3)
	rels, err = selectRelations(k, []string{"mother", "parent"})
	require.NoError(t, err)
	assert.Equal(t, "mother", rels[0].Name())
	assert.Equal(t, "parent", rels[1].Name())
	_, err = selectRelations(k, []string{"uncle"})
	assert.EqualError(t, err, `unknown relation "uncle"`)
}

func Test_resultsTables(t *testing.T) {
	k := familyKB(t)
	results := mineParent(t, k)
	rules := rulesTable(k, results)
	require.Len(t, rules, 3)
	for _, row := range rules[1:] {
		assert.Equal(t, []string{"4", "0", "2"}, row[1:])
	}
	summary := resultsTable(results)
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"parent", "8", "2", "8", "0", "4", "2.00", "0s"}, summary[1])
	assert.Equal(t, []string{"total", "8", "2", "8", "0", "4", "2.00", ""}, summary[2])
}

func Test_writeOutput(t *testing.T) {
	dir, err := os.MkdirTemp("", "kbc-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	k := familyKB(t)
	results := mineParent(t, k)
	father, _ := k.RelationByName("father")
	results = append(results, &miner.Result{
		Relation: father,
		Hypotheses: []miner.Hypothesis{{
			Rule:            mustParse(t, k, "father(X0,?):-parent(X0,?)"),
			Counterexamples: [][]int{k.Numerate("f2", "s1"), k.Numerate("f1", "s2")},
		}},
	})
	require.NoError(t, writeOutput(dir, k, results))

	rules, err := os.ReadFile(filepath.Join(dir, "rules.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(rules)), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "# Eval(pos=4 "), lines[0])
	assert.Equal(t, "father(X0,?):-parent(X0,?)", lines[5])

	cex, err := os.ReadFile(filepath.Join(dir, "counterexamples", "father.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "f1\ts2\nf2\ts1\n", string(cex))
	_, err = os.Stat(filepath.Join(dir, "counterexamples", "parent.tsv"))
	assert.True(t, os.IsNotExist(err))

	remaining, err := kb.Load(filepath.Join(dir, "remaining"))
	require.NoError(t, err)
	_, exists := remaining.RelationByName("parent")
	assert.False(t, exists, "every parent fact is entailed")
	rel, exists := remaining.RelationByName("father")
	require.True(t, exists)
	assert.Equal(t, 4, rel.Len())
}

func Test_progressRouter(t *testing.T) {
	k := familyKB(t)
	prog := newProgress(2)
	prog.start("parent")
	router := newRouter(prog)
	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}
	var st status
	rec := get("/progress")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, status{Relations: 2, Current: "parent"}, st)

	prog.finish(mineParent(t, k)[0])
	var done status
	require.NoError(t, json.Unmarshal(get("/progress").Body.Bytes(), &done))
	assert.Equal(t, status{Relations: 2, Done: 1, Rules: 2, EntailedFacts: 8}, done)

	rec = get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kbc_miner_accepted_rules_total")
}

func Test_statusServer(t *testing.T) {
	srv, err := startStatusServer("127.0.0.1:0", newProgress(1))
	require.NoError(t, err)
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%v/progress", srv.addr))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, srv.Close())
}

func mustParse(t *testing.T, k *kb.KB, text string) *rule.Rule {
	t.Helper()
	r, err := rule.Parse(text, k)
	require.NoError(t, err)
	return r
}
