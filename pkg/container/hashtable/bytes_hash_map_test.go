// Copyright 2022 Peleiden
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hashtable

import (
	"encoding/binary"
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func ptrOf(b []byte) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(b))
}

func TestBytesHashMapRanks(t *testing.T) {
	var ht BytesHashMap
	ht.Init()

	keys := [][]byte{
		[]byte("alpha"),
		[]byte("beta"),
		[]byte("alpha"),
		[]byte("gamma"),
		[]byte("beta"),
	}
	wantRanks := []uint64{1, 2, 1, 3, 2}
	wantAdded := []bool{true, true, false, true, false}

	for i, key := range keys {
		rank, added := ht.Insert(key)
		require.Equal(t, wantRanks[i], rank, "key %q", key)
		require.Equal(t, wantAdded[i], added, "key %q", key)
	}
	require.Equal(t, uint64(3), ht.Cardinality())

	require.Equal(t, uint64(2), ht.Find([]byte("beta")))
	require.Equal(t, uint64(0), ht.Find([]byte("delta")))
}

func TestBytesHashMapEmptyKey(t *testing.T) {
	var ht BytesHashMap
	ht.Init()

	rank, added := ht.Insert([]byte{})
	require.True(t, added)
	require.Equal(t, uint64(1), rank)
	rank, added = ht.Insert(nil)
	require.False(t, added)
	require.Equal(t, uint64(1), rank)
}

func TestBytesHashMapResize(t *testing.T) {
	var ht BytesHashMap
	ht.Init()

	n := 4 * kInitialCellCnt
	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = []byte(fmt.Sprintf("key-%d", i))
	}
	for i, key := range keys {
		rank, added := ht.Insert(key)
		require.True(t, added)
		require.Equal(t, uint64(i+1), rank)
	}
	// All ranks must survive the rehashes.
	for i, key := range keys {
		require.Equal(t, uint64(i+1), ht.Find(key))
	}
	require.Equal(t, uint64(n), ht.Cardinality())
}

func TestBytesHashMapIterator(t *testing.T) {
	var ht BytesHashMap
	ht.Init()

	var buf [8]byte
	for i := uint64(0); i < 100; i++ {
		binary.LittleEndian.PutUint64(buf[:], i)
		key := make([]byte, 8)
		copy(key, buf[:])
		ht.Insert(key)
	}

	var it BytesHashMapIterator
	it.Init(&ht)
	seen := make(map[uint64]bool)
	for {
		cell, err := it.Next()
		if err != nil {
			require.ErrorIs(t, err, ErrIteratorOutOfRange)
			break
		}
		require.False(t, seen[cell.Mapped])
		seen[cell.Mapped] = true
	}
	require.Len(t, seen, 100)
}

func TestInt64HashMap(t *testing.T) {
	var ht Int64HashMap
	ht.Init()

	rank, added := ht.Insert(0)
	require.True(t, added)
	require.Equal(t, uint64(1), rank)
	rank, added = ht.Insert(0)
	require.False(t, added)
	require.Equal(t, uint64(1), rank)

	for i := uint64(1); i <= 3*kInitialCellCnt; i++ {
		rank, added := ht.Insert(i * 7)
		require.True(t, added)
		require.Equal(t, i+1, rank)
	}
	for i := uint64(1); i <= 3*kInitialCellCnt; i++ {
		require.Equal(t, i+1, ht.Find(i*7))
	}
	require.Equal(t, uint64(0), ht.Find(5))
	require.Equal(t, uint64(3*kInitialCellCnt+1), ht.Cardinality())
}

func TestBytesHashStateDistinguishes(t *testing.T) {
	a := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	b := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaab")
	sa := BytesHashState(ptrOf(a), len(a))
	sb := BytesHashState(ptrOf(b), len(b))
	require.NotEqual(t, sa, sb)
	require.Equal(t, sa, BytesHashState(ptrOf(a), len(a)))
}
