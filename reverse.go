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

package pelutils

import (
	"bytes"
	"io"
)

const defaultReverseChunkSize = 4096

// ReverseLineReader yields the lines of an io.ReaderAt in reverse order,
// reading backwards in fixed-size chunks. It never holds more than one chunk
// plus the longest line in memory, which makes it suitable for getting the
// tail of very large files.
type ReverseLineReader struct {
	r         io.ReaderAt
	pos       int64
	chunkSize int
	pending   []byte
	started   bool
	done      bool
}

// NewReverseLineReader returns a reader positioned at the end of r, where
// size is the total number of bytes readable from r.
func NewReverseLineReader(r io.ReaderAt, size int64) *ReverseLineReader {
	rr := &ReverseLineReader{r: r, pos: size, chunkSize: defaultReverseChunkSize}
	if size == 0 {
		rr.done = true
	}
	return rr
}

// Next returns the previous line, not including the trailing newline. After
// the first line of the input has been returned, io.EOF is reported.
func (rr *ReverseLineReader) Next() (string, error) {
	for {
		if i := bytes.LastIndexByte(rr.pending, '\n'); i >= 0 {
			line := string(rr.pending[i+1:])
			rr.pending = rr.pending[:i]
			return line, nil
		}
		if rr.pos == 0 {
			if rr.done {
				return "", io.EOF
			}
			rr.done = true
			return string(rr.pending), nil
		}
		n := int64(rr.chunkSize)
		if n > rr.pos {
			n = rr.pos
		}
		buf := make([]byte, n, n+int64(len(rr.pending)))
		if _, err := rr.r.ReadAt(buf, rr.pos-n); err != nil {
			return "", err
		}
		rr.pos -= n
		rr.pending = append(buf, rr.pending...)
		// A trailing newline terminates the last line rather than
		// starting an empty one.
		if !rr.started {
			rr.started = true
			if len(rr.pending) > 0 && rr.pending[len(rr.pending)-1] == '\n' {
				rr.pending = rr.pending[:len(rr.pending)-1]
			}
		}
	}
}
