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

package datastorage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type runResult struct {
	Name    string
	Epochs  int
	Rates   []float64
	Weights []float32 `storage:"binary"`
	Labels  map[string]int
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := runResult{
		Name:    "baseline",
		Epochs:  10,
		Rates:   []float64{1e-3, 1e-4},
		Weights: []float32{0.5, -1.25, 3},
		Labels:  map[string]int{"cat": 0, "dog": 1},
	}
	require.NoError(t, Save(in, dir, ""))

	// Default name is the type name, and both files should exist.
	_, err := os.Stat(filepath.Join(dir, "runResult.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "runResult.bin"))
	require.NoError(t, err)

	var out runResult
	require.NoError(t, Load(&out, dir, ""))
	require.Equal(t, in, out)
}

func TestSaveOmitsEmptySide(t *testing.T) {
	type jsonOnly struct {
		A int
		B string
	}
	dir := t.TempDir()
	require.NoError(t, Save(jsonOnly{1, "x"}, dir, "res"))
	_, err := os.Stat(filepath.Join(dir, "res.bin"))
	require.True(t, os.IsNotExist(err))

	var out jsonOnly
	require.NoError(t, Load(&out, dir, "res"))
	require.Equal(t, jsonOnly{1, "x"}, out)
}

func TestLoadMissingBothFiles(t *testing.T) {
	var out runResult
	err := Load(&out, t.TempDir(), "nothing")
	require.ErrorIs(t, err, ErrNoFiles)
}

func TestLoadUnknownField(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.json"), []byte(`{"Nope": 1}`), 0o644))
	type small struct{ A int }
	var out small
	err := Load(&out, dir, "x")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestSaveRejectsFuncField(t *testing.T) {
	type bad struct {
		F func()
	}
	err := Save(bad{}, t.TempDir(), "bad")
	require.ErrorIs(t, err, ErrUnstorable)
}

func TestSaveRejectsNonStruct(t *testing.T) {
	require.ErrorIs(t, Save(42, t.TempDir(), "x"), ErrNotStruct)
	var out runResult
	require.ErrorIs(t, Load(out, t.TempDir(), "x"), ErrNotPointer)
}

func TestUnexportedFieldsIgnored(t *testing.T) {
	type withPrivate struct {
		A      int
		hidden string
	}
	dir := t.TempDir()
	require.NoError(t, Save(withPrivate{A: 1, hidden: "secret"}, dir, "p"))

	var out withPrivate
	require.NoError(t, Load(&out, dir, "p"))
	require.Equal(t, 1, out.A)
	require.Equal(t, "", out.hidden)
}

func TestLoadPropagatesReadErrors(t *testing.T) {
	dir := t.TempDir()
	in := runResult{Name: "x", Weights: []float32{1}}
	require.NoError(t, Save(in, dir, "res"))

	// Replace the JSON file with something unreadable. The sidecar still
	// loads, but the read failure must surface instead of a silent
	// partial restore.
	require.NoError(t, os.Remove(filepath.Join(dir, "res.json")))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "res.json"), 0o755))

	var out runResult
	err := Load(&out, dir, "res")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoFiles)
}

func TestLoadMissingBinarySidecar(t *testing.T) {
	dir := t.TempDir()
	in := runResult{Name: "x", Epochs: 1, Weights: []float32{1, 2}}
	require.NoError(t, Save(in, dir, "res"))
	require.NoError(t, os.Remove(filepath.Join(dir, "res.bin")))

	var out runResult
	err := Load(&out, dir, "res")
	require.ErrorIs(t, err, ErrMissingBinary)
}

func TestBinaryTagRoundTripsLargePayload(t *testing.T) {
	type blob struct {
		Data []byte `storage:"binary"`
	}
	dir := t.TempDir()
	in := blob{Data: make([]byte, 1<<16)}
	for i := range in.Data {
		in.Data[i] = byte(i % 7)
	}
	require.NoError(t, Save(in, dir, "blob"))

	// Repetitive data should compress well.
	st, err := os.Stat(filepath.Join(dir, "blob.bin"))
	require.NoError(t, err)
	require.Less(t, st.Size(), int64(len(in.Data)/2))

	var out blob
	require.NoError(t, Load(&out, dir, "blob"))
	require.Equal(t, in.Data, out.Data)
}
