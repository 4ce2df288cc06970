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

// Package ds contains data-science helpers: linear-time deduplication over
// fixed-stride buffers, smoothing functions and histogram binning.
package ds

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/peleiden/pelutils/pkg/container/hashtable"
)

var (
	// ErrEmpty is returned when an operation requires a non-empty input.
	ErrEmpty = errors.New("ds: input must be non-empty")
	// ErrStride is returned for non-positive strides or buffers whose
	// length is not a multiple of the stride.
	ErrStride = errors.New("ds: invalid stride")
)

// UniqueOptions selects which auxiliary outputs Unique produces. Index is
// always produced.
type UniqueOptions struct {
	// ReturnInverse requests the mapping from original position to the
	// rank of its distinct value.
	ReturnInverse bool
	// ReturnCounts requests per-distinct-value occurrence counts.
	ReturnCounts bool
}

// UniqueResult holds the outputs of a Unique call.
type UniqueResult struct {
	// Index contains the position of the first occurrence of each
	// distinct element, in order of first appearance.
	Index []int64
	// Inverse maps each original position to the 0-based rank of its
	// distinct value. Nil unless requested.
	Inverse []int64
	// Counts contains the number of occurrences of each distinct value,
	// aligned with Index. Nil unless requested.
	Counts []int64
}

// Unique deduplicates the elements of a contiguous buffer of fixed-size
// records in a single pass. Elements are stride bytes each and are compared
// by byte equality. Runs in O(n) time using O(n) table space, unlike the
// O(n log n) sort-based approach, and preserves first-appearance order.
func Unique(data []byte, stride int, opts UniqueOptions) (UniqueResult, error) {
	var res UniqueResult
	if stride <= 0 || len(data)%stride != 0 {
		return res, fmt.Errorf("%w: stride %d with buffer length %d", ErrStride, stride, len(data))
	}
	n := len(data) / stride
	if n == 0 {
		return res, ErrEmpty
	}

	if opts.ReturnInverse {
		res.Inverse = make([]int64, n)
	}

	if stride == 8 {
		// 8-byte records fit the specialized map, which skips the full
		// hash-state computation.
		var ht hashtable.Int64HashMap
		ht.Init()
		for i := 0; i < n; i++ {
			key := *(*uint64)(unsafe.Pointer(&data[i*stride]))
			rank, added := ht.Insert(key)
			res.record(i, rank, added, opts)
		}
		return res, nil
	}

	var ht hashtable.BytesHashMap
	ht.Init()
	for i := 0; i < n; i++ {
		rank, added := ht.Insert(data[i*stride : (i+1)*stride])
		res.record(i, rank, added, opts)
	}
	return res, nil
}

func (res *UniqueResult) record(i int, rank uint64, added bool, opts UniqueOptions) {
	if added {
		res.Index = append(res.Index, int64(i))
		if opts.ReturnCounts {
			res.Counts = append(res.Counts, 1)
		}
	} else if opts.ReturnCounts {
		res.Counts[rank-1]++
	}
	if opts.ReturnInverse {
		res.Inverse[i] = int64(rank - 1)
	}
}

// UniqueSlice deduplicates a slice of fixed-size, pointer-free elements by
// viewing it as a byte buffer with stride equal to the element size. The
// deduplicated elements are returned in order of first appearance together
// with the requested auxiliary outputs.
//
// T must not contain pointers (including strings, maps and slices); such
// types are rejected with an error since their memory representation does
// not determine equality. Padded struct types are compared including their
// padding bytes. Use UniqueStrings for string slices.
func UniqueSlice[T any](xs []T, opts UniqueOptions) ([]T, UniqueResult, error) {
	var res UniqueResult
	if len(xs) == 0 {
		return nil, res, ErrEmpty
	}
	var zero T
	if hasPointers(reflect.TypeOf(zero)) {
		return nil, res, fmt.Errorf("ds: element type %T contains pointers", zero)
	}
	stride := int(unsafe.Sizeof(zero))
	data := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(xs))), len(xs)*stride)

	res, err := Unique(data, stride, opts)
	if err != nil {
		return nil, res, err
	}
	unique := make([]T, len(res.Index))
	for i, idx := range res.Index {
		unique[i] = xs[idx]
	}
	return unique, res, nil
}

// UniqueStrings deduplicates a string slice by content in linear time.
func UniqueStrings(xs []string, opts UniqueOptions) ([]string, UniqueResult, error) {
	var res UniqueResult
	if len(xs) == 0 {
		return nil, res, ErrEmpty
	}
	if opts.ReturnInverse {
		res.Inverse = make([]int64, len(xs))
	}
	var ht hashtable.BytesHashMap
	ht.Init()
	for i, s := range xs {
		rank, added := ht.Insert([]byte(s))
		res.record(i, rank, added, opts)
	}
	unique := make([]string, len(res.Index))
	for i, idx := range res.Index {
		unique[i] = xs[idx]
	}
	return unique, res, nil
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
