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

// Package jsonl reads and writes the .jsonl format, where every line of a
// file is a JSON value. Blank lines are ignored.
package jsonl

import (
	"bufio"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Reader decodes one JSON value per line.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader returns a Reader over r. Lines of up to 1 MiB are supported.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Reader{sc: sc}
}

// Next decodes the next non-blank line into v. It returns false with a nil
// error when the input is exhausted.
func (r *Reader) Next(v any) (bool, error) {
	for r.sc.Scan() {
		line := strings.TrimSpace(r.sc.Text())
		if line == "" {
			continue
		}
		if err := json.UnmarshalFromString(line, v); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, r.sc.Err()
}

// Load decodes all values from r into a slice.
func Load[T any](r io.Reader) ([]T, error) {
	reader := NewReader(r)
	var out []T
	for {
		var v T
		ok, err := reader.Next(&v)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Loads decodes all values from a string.
func Loads[T any](s string) ([]T, error) {
	return Load[T](strings.NewReader(s))
}

// Writer encodes one JSON value per line.
type Writer struct {
	w  *bufio.Writer
	// FlushEach flushes after every value, which is useful when writing
	// lazily produced data that should hit disk early.
	FlushEach bool
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one value as a single line.
func (w *Writer) Write(v any) error {
	s, err := json.MarshalToString(v)
	if err != nil {
		return err
	}
	if _, err := w.w.WriteString(s); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if w.FlushEach {
		return w.w.Flush()
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Dump writes all values to w, one per line.
func Dump[T any](objs []T, w io.Writer) error {
	writer := NewWriter(w)
	for _, obj := range objs {
		if err := writer.Write(obj); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// Dumps returns the values encoded as one JSON value per line.
func Dumps[T any](objs []T) (string, error) {
	var sb strings.Builder
	if err := Dump(objs, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
