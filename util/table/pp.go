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

// Package table formats rows of strings into a text table for terminals.
package table

import (
	"bufio"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Options control how PrettyPrint lays out a table. They may be combined.
type Options int

const (
	// HeaderRow separates the first row from the rest with a divider.
	HeaderRow Options = 1 << iota
	// FooterRow separates the last row from the rest with a divider.
	FooterRow
	// SkipEmpty prints nothing when the table has no rows besides the header
	// and footer rows.
	SkipEmpty
	// RightJustify right justifies every cell. Cells are left justified by
	// default.
	RightJustify
	// RightJustifyNumbers right justifies the cells that hold a number, such
	// as "1,024", "-3.5" or "42%", and left justifies the others.
	RightJustifyNumbers
)

func (o Options) has(flag Options) bool {
	return o&flag != 0
}

func (o Options) chromeRows() int {
	r := 0
	if o.has(HeaderRow) {
		r++
	}
	if o.has(FooterRow) {
		r++
	}
	return r
}

// PrettyPrint writes 't' as a table to 'dest'. Every column is as wide as its
// widest cell. Cells may span several lines, separated by \n.
func PrettyPrint(dest io.Writer, t [][]string, opts Options) {
	if len(t) == 0 || (opts.has(SkipEmpty) && len(t) <= opts.chromeRows()) {
		return
	}
	w := bufio.NewWriterSize(dest, 256)
	defer w.Flush()
	cells := make([][]cell, len(t))
	for r, row := range t {
		cells[r] = make([]cell, len(row))
		for c, s := range row {
			cells[r][c] = makeCell(s, opts)
		}
	}
	widths := make([]int, len(cells[0]))
	for _, row := range cells {
		for c := range row {
			widths[c] = max(widths[c], row[c].width)
		}
	}
	divider := func() {
		for _, width := range widths {
			w.WriteString(" ")
			w.WriteString(strings.Repeat("-", width))
			w.WriteString(" |")
		}
		w.WriteString("\n")
	}
	for r, row := range cells {
		height := 0
		for _, c := range row {
			height = max(height, len(c.lines))
		}
		for line := 0; line < height; line++ {
			for c := range row {
				w.WriteString(" ")
				w.WriteString(row[c].line(line, widths[c]))
				w.WriteString(" |")
			}
			w.WriteString("\n")
		}
		if (opts.has(HeaderRow) && r == 0) || (opts.has(FooterRow) && r == len(cells)-2) {
			divider()
		}
	}
}

type cell struct {
	lines []string
	width int
	right bool
}

func makeCell(s string, opts Options) cell {
	c := cell{
		lines: strings.Split(s, "\n"),
		right: opts.has(RightJustify) || (opts.has(RightJustifyNumbers) && isNumber(s)),
	}
	for _, l := range c.lines {
		c.width = max(c.width, charsWide(l))
	}
	return c
}

// line returns line 'i' of the cell padded to 'width'. Lines past the end of
// the cell are blank.
func (c *cell) line(i, width int) string {
	l := ""
	if i < len(c.lines) {
		l = c.lines[i]
	}
	pad := width - charsWide(l)
	if pad <= 0 {
		return l
	}
	if c.right {
		return strings.Repeat(" ", pad) + l
	}
	return l + strings.Repeat(" ", pad)
}

// isNumber returns true if 's' looks like a formatted number: digits with
// optional sign, grouping commas, decimal point and percent suffix.
func isNumber(s string) bool {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "-"), "%")
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == ',' || r == '.':
		default:
			return false
		}
	}
	return digits > 0
}

// charsWide estimates how wide a string will be on a typical terminal. Strings
// are normalized first so that combining characters aren't counted twice.
func charsWide(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}
