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

package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_PrettyPrint_utf8(t *testing.T) {
	assert := assert.New(t)
	var buf strings.Builder
	PrettyPrint(&buf, [][]string{
		{"Beyoncé"},
		{"A longer thing"},
	}, RightJustify)
	assert.Equal(`
        Beyoncé |
 A longer thing |
`, "\n"+buf.String())

	buf.Reset()
	PrettyPrint(&buf, [][]string{
		{"Beyoncé"},
		{"shrt"},
	}, RightJustify)
	assert.Equal(`
 Beyoncé |
    shrt |
`, "\n"+buf.String())
}

func Test_PrettyPrintJustify(t *testing.T) {
	table := [][]string{
		{"relation", "facts"},
		{"parent", "8"},
	}
	// default is left
	t.Run("Left", func(t *testing.T) {
		buf := strings.Builder{}
		PrettyPrint(&buf, table, HeaderRow)
		assert.Equal(t, `
 relation | facts |
 -------- | ----- |
 parent   | 8     |
`, "\n"+buf.String())
	})
	t.Run("Right", func(t *testing.T) {
		buf := strings.Builder{}
		PrettyPrint(&buf, table, HeaderRow|RightJustify)
		assert.Equal(t, `
 relation | facts |
 -------- | ----- |
   parent |     8 |
`, "\n"+buf.String())
	})
	t.Run("Numbers", func(t *testing.T) {
		buf := strings.Builder{}
		PrettyPrint(&buf, [][]string{
			{"relation", "facts", "ratio"},
			{"parent", "1,024", "50.0%"},
			{"father", "8", "-"},
		}, HeaderRow|RightJustifyNumbers)
		assert.Equal(t, `
 relation | facts | ratio |
 -------- | ----- | ----- |
 parent   | 1,024 | 50.0% |
 father   |     8 | -     |
`, "\n"+buf.String())
	})
}

func Test_isNumber(t *testing.T) {
	for _, s := range []string{"0", "1,024", "-3.5", "42%"} {
		assert.True(t, isNumber(s), s)
	}
	for _, s := range []string{"", "-", "%", "abc", "1e9", "3 facts"} {
		assert.False(t, isNumber(s), s)
	}
}

func Test_SkipEmtpy(t *testing.T) {
	assert := assert.New(t)
	headers := [][]string{
		{"rule", "pos"},
	}
	buf := strings.Builder{}
	PrettyPrint(&buf, headers, SkipEmpty|HeaderRow)
	assert.Equal("", buf.String())

	buf.Reset()
	PrettyPrint(&buf, headers, SkipEmpty|FooterRow)
	assert.Equal("", buf.String())

	buf.Reset()
	PrettyPrint(&buf, headers, SkipEmpty)
	assert.Equal(" rule | pos |\n", buf.String())
}

func Test_MultilineCell(t *testing.T) {
	assert := assert.New(t)
	table := [][]string{
		{"rule", "eval"},
		{"parent(X0,?)\n:-father(X0,?)", "pos=4"},
	}
	buf := strings.Builder{}
	PrettyPrint(&buf, table, HeaderRow)
	assert.Equal(`
 rule           | eval  |
 -------------- | ----- |
 parent(X0,?)   | pos=4 |
 :-father(X0,?) |       |
`, "\n"+buf.String())
}
func Test_charsWide(t *testing.T) {
	assert := assert.New(t)
	tests := []struct {
		s string
		w int
	}{
		{"Aeyonce", 7},
		{"Beyoncé", 7},
		{"Ceyonce\u0301", 7},
		{"Deyonc\u00e9", 7},
	}
	for _, test := range tests {
		assert.Equal(test.w, charsWide(test.s), "Incorrect width for %#v", test.s)
	}
}
