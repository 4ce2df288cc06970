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

package jsonl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRoundTrip(t *testing.T) {
	in := []record{{"a", 1}, {"b", 2}, {"c", 3}}
	s, err := Dumps(in)
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(s, "\n"))

	out, err := Loads[record](s)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestLoadSkipsBlankLines(t *testing.T) {
	s := "{\"name\":\"a\",\"count\":1}\n\n   \n{\"name\":\"b\",\"count\":2}\n"
	out, err := Loads[record](s)
	require.NoError(t, err)
	require.Equal(t, []record{{"a", 1}, {"b", 2}}, out)
}

func TestLoadInvalidLine(t *testing.T) {
	_, err := Loads[record]("{\"name\":\"a\"}\nnot json\n")
	require.Error(t, err)
}

func TestReaderMixedValues(t *testing.T) {
	r := NewReader(strings.NewReader("1\n\n2\n3\n"))
	var got []int
	for {
		var v int
		ok, err := r.Next(&v)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, v)
	}
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestWriterFlushEach(t *testing.T) {
	var sb strings.Builder
	w := NewWriter(&sb)
	w.FlushEach = true
	require.NoError(t, w.Write(record{"x", 9}))
	require.Equal(t, "{\"name\":\"x\",\"count\":9}\n", sb.String())
}

func TestDumpEmpty(t *testing.T) {
	s, err := Dumps([]record{})
	require.NoError(t, err)
	require.Equal(t, "", s)
}
