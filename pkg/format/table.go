// Copyright 2022 Peleiden
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package format implements helpers for rendering tabular data as plain text
// or LaTeX.
package format

import (
	"fmt"
	"regexp"
	"strings"
)

// Table collects rows of data and formats them with aligned columns.
//
//	t := format.NewTable()
//	t.AddHeader("Profile", "Hits")
//	t.AddRow("forward pass", 117)
//	fmt.Println(t)
type Table struct {
	width      int
	header     []string
	rows       [][]string
	leftAligns [][]bool
	hlines     map[int]struct{}
}

// NewTable returns an empty table. The column count is fixed by the first
// header or row added.
func NewTable() *Table {
	return &Table{hlines: make(map[int]struct{})}
}

func (t *Table) setAndCheckWidth(n int) error {
	if t.width != 0 && n != t.width {
		return fmt.Errorf("given row has %d elements, but table width is %d", n, t.width)
	}
	if t.width == 0 {
		t.width = n
	}
	return nil
}

func stringify(elems []any) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = fmt.Sprint(e)
	}
	return out
}

// AddHeader sets the header row.
func (t *Table) AddHeader(elems ...any) error {
	if err := t.setAndCheckWidth(len(elems)); err != nil {
		return err
	}
	t.header = stringify(elems)
	return nil
}

// AddRow adds a row. The first column is left aligned and the rest are right
// aligned. Use AddRowAligned for control over alignment.
func (t *Table) AddRow(elems ...any) error {
	return t.addRow(elems, nil)
}

// AddRowAligned adds a row with explicit per-column alignment, true meaning
// left aligned.
func (t *Table) AddRowAligned(elems []any, leftAlign []bool) error {
	if len(elems) != len(leftAlign) {
		return fmt.Errorf("number of row elements (%d) does not match number of alignments (%d)",
			len(elems), len(leftAlign))
	}
	return t.addRow(elems, leftAlign)
}

func (t *Table) addRow(elems []any, leftAlign []bool) error {
	if err := t.setAndCheckWidth(len(elems)); err != nil {
		return err
	}
	if leftAlign == nil {
		leftAlign = make([]bool, t.width)
		leftAlign[0] = true
	}
	t.rows = append(t.rows, stringify(elems))
	t.leftAligns = append(t.leftAligns, leftAlign)
	return nil
}

// AddHline inserts a horizontal line after the most recently added row.
func (t *Table) AddHline() {
	t.hlines[len(t.rows)-1] = struct{}{}
}

func formatElement(elem string, width int, leftAlign bool) string {
	pad := strings.Repeat(" ", width-len(elem))
	if leftAlign {
		return elem + pad
	}
	return pad + elem
}

// String renders the table with " | " separated columns and "-+-" rules.
func (t *Table) String() string {
	allRows := t.rows
	if t.header != nil {
		allRows = append([][]string{t.header}, t.rows...)
	}
	widths := make([]int, t.width)
	for _, row := range allRows {
		for j, elem := range row {
			if len(elem) > widths[j] {
				widths[j] = len(elem)
			}
		}
	}
	hparts := make([]string, t.width)
	for i, w := range widths {
		extra := 1
		if 0 < i && i < t.width-1 {
			extra = 2
		}
		hparts[i] = strings.Repeat("-", w+extra)
	}
	hline := strings.Join(hparts, "+")

	var lines []string
	if t.header != nil {
		parts := make([]string, t.width)
		for j, elem := range t.header {
			parts[j] = formatElement(elem, widths[j], true)
		}
		lines = append(lines, strings.Join(parts, " | "))
		lines = append(lines, hline)
	}
	for i, row := range t.rows {
		parts := make([]string, t.width)
		for j, elem := range row {
			parts[j] = formatElement(elem, widths[j], t.leftAligns[i][j])
		}
		lines = append(lines, strings.Join(parts, " | "))
		if _, ok := t.hlines[i]; ok {
			lines = append(lines, hline)
		}
	}
	return strings.Join(lines, "\n")
}

var (
	texHlineRegex = regexp.MustCompile(`^(-+\+)+-+$`)
	texRowRegex   = regexp.MustCompile(`^(.+\|)+.+$`)
)

// TeX produces LaTeX source for the table, for inclusion in a tabular
// environment. The booktabs package is assumed.
func (t *Table) TeX() string {
	lines := strings.Split(t.String(), "\n")
	out := make([]string, 0, len(lines)+2)
	out = append(out, `\toprule`)
	for _, line := range lines {
		switch {
		case texHlineRegex.MatchString(line):
			out = append(out, `\midrule`)
		case texRowRegex.MatchString(line):
			out = append(out, strings.ReplaceAll(line, "|", "&")+` \\`)
		default:
			out = append(out, line)
		}
	}
	out = append(out, `\bottomrule`)
	return strings.Join(out, "\n")
}
