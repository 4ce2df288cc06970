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

package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableString(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddHeader("Name", "Count", "Share"))
	require.NoError(t, table.AddRow("first", 1100, "55%"))
	require.NoError(t, table.AddRow("second", 900, "45%"))
	table.AddHline()
	require.NoError(t, table.AddRow("total", 2000, "100%"))

	want := strings.Join([]string{
		"Name   | Count | Share",
		"-------+-------+------",
		"first  |  1100 |   55%",
		"second |   900 |   45%",
		"-------+-------+------",
		"total  |  2000 |  100%",
	}, "\n")
	require.Equal(t, want, table.String())
}

func TestTableAlignment(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddRowAligned([]any{"left", "also left"}, []bool{true, true}))
	require.NoError(t, table.AddRowAligned([]any{"right", "x"}, []bool{false, false}))
	want := "left  | also left\nright |         x"
	require.Equal(t, want, table.String())
}

func TestTableWidthMismatch(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddHeader("a", "b"))
	require.Error(t, table.AddRow("only one"))
	require.Error(t, table.AddRowAligned([]any{"a", "b"}, []bool{true}))
}

func TestTableNoHeader(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddRow("a", "b"))
	require.Equal(t, "a | b", table.String())
}

func TestTableTeX(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.AddHeader("Name", "Count"))
	require.NoError(t, table.AddRow("first", 1))

	tex := table.TeX()
	lines := strings.Split(tex, "\n")
	require.Equal(t, `\toprule`, lines[0])
	require.Contains(t, lines[1], "Name")
	require.Contains(t, lines[1], "&")
	require.True(t, strings.HasSuffix(lines[1], `\\`))
	require.Equal(t, `\midrule`, lines[2])
	require.Equal(t, `\bottomrule`, lines[len(lines)-1])
	require.NotContains(t, tex, "|")
	require.NotContains(t, tex, "-+-")
}

func TestCommas(t *testing.T) {
	cases := map[int64]string{
		0:          "0",
		1:          "1",
		999:        "999",
		1000:       "1,000",
		1234567:    "1,234,567",
		-1:         "-1",
		-1000:      "-1,000",
		-987654321: "-987,654,321",
	}
	for n, want := range cases {
		require.Equal(t, want, Commas(n), "n=%d", n)
	}
}

func TestCommasFloat(t *testing.T) {
	require.Equal(t, "0.00", CommasFloat(0, 2))
	require.Equal(t, "1,234.57", CommasFloat(1234.567, 2))
	require.Equal(t, "1,235", CommasFloat(1234.567, 0))
	require.Equal(t, "-0.50", CommasFloat(-0.5, 2))
	require.Equal(t, "-12,345.6", CommasFloat(-12345.6, 1))
}
