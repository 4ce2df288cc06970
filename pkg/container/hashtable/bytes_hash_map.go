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
	"bytes"
	"unsafe"
)

// BytesHashMapCell is a single table slot. Mapped is the 1-based rank of the
// key, with 0 marking an empty cell. Key references the first inserted key
// with this rank; it is not copied, so callers must keep the backing buffer
// alive and unmodified for the lifetime of the map.
type BytesHashMapCell struct {
	HashState [3]uint64
	Mapped    uint64
	Key       []byte
}

// BytesHashMap maps arbitrary byte keys to dense 1-based ranks assigned in
// insertion order. Collisions are resolved with linear probing over a
// power-of-two cell array.
type BytesHashMap struct {
	cellCnt     uint64
	cellCntMask uint64
	elemCnt     uint64
	maxElemCnt  uint64
	cells       []BytesHashMapCell
}

// Init readies the map for use. A map can be re-initialized to clear it.
func (ht *BytesHashMap) Init() {
	ht.cellCnt = kInitialCellCnt
	ht.cellCntMask = kInitialCellCnt - 1
	ht.elemCnt = 0
	ht.maxElemCnt = kInitialCellCnt * kLoadFactorNumerator / kLoadFactorDenominator
	ht.cells = make([]BytesHashMapCell, kInitialCellCnt)
}

// Insert adds a key and returns its rank. added reports whether the key was
// new. The rank of the first distinct key is 1.
func (ht *BytesHashMap) Insert(key []byte) (mapped uint64, added bool) {
	ht.resizeOnDemand(1)
	state := BytesHashState(unsafe.Pointer(unsafe.SliceData(key)), len(key))
	cell := ht.findCell(&state, key)
	if cell.Mapped == 0 {
		ht.elemCnt++
		cell.HashState = state
		cell.Mapped = ht.elemCnt
		cell.Key = key
		return cell.Mapped, true
	}
	return cell.Mapped, false
}

// Find returns the rank of a key, or 0 if the key has not been inserted.
func (ht *BytesHashMap) Find(key []byte) uint64 {
	state := BytesHashState(unsafe.Pointer(unsafe.SliceData(key)), len(key))
	return ht.findCell(&state, key).Mapped
}

// Cardinality returns the number of distinct keys in the map.
func (ht *BytesHashMap) Cardinality() uint64 {
	return ht.elemCnt
}

func (ht *BytesHashMap) findCell(state *[3]uint64, key []byte) *BytesHashMapCell {
	for idx := state[0] & ht.cellCntMask; true; idx = (idx + 1) & ht.cellCntMask {
		cell := &ht.cells[idx]
		if cell.Mapped == 0 || (cell.HashState == *state && bytes.Equal(cell.Key, key)) {
			return cell
		}
	}
	return nil
}

func (ht *BytesHashMap) findEmptyCell(state *[3]uint64) *BytesHashMapCell {
	for idx := state[0] & ht.cellCntMask; true; idx = (idx + 1) & ht.cellCntMask {
		cell := &ht.cells[idx]
		if cell.Mapped == 0 {
			return cell
		}
	}
	return nil
}

func (ht *BytesHashMap) resizeOnDemand(n uint64) {
	targetCnt := ht.elemCnt + n
	if targetCnt <= ht.maxElemCnt {
		return
	}

	newCellCnt := ht.cellCnt << 1
	newMaxElemCnt := newCellCnt * kLoadFactorNumerator / kLoadFactorDenominator
	for newMaxElemCnt < targetCnt {
		newCellCnt <<= 1
		newMaxElemCnt = newCellCnt * kLoadFactorNumerator / kLoadFactorDenominator
	}

	oldCells := ht.cells
	ht.cellCnt = newCellCnt
	ht.cellCntMask = newCellCnt - 1
	ht.maxElemCnt = newMaxElemCnt
	ht.cells = make([]BytesHashMapCell, newCellCnt)

	for i := range oldCells {
		cell := &oldCells[i]
		if cell.Mapped != 0 {
			*ht.findEmptyCell(&cell.HashState) = *cell
		}
	}
}

// BytesHashMapIterator walks all occupied cells of a BytesHashMap in table
// order.
type BytesHashMapIterator struct {
	table *BytesHashMap
	pos   uint64
}

// Init points the iterator at the start of ht.
func (it *BytesHashMapIterator) Init(ht *BytesHashMap) {
	it.table = ht
	it.pos = 0
}

// Next returns the next occupied cell, or ErrIteratorOutOfRange when the
// table is exhausted.
func (it *BytesHashMapIterator) Next() (*BytesHashMapCell, error) {
	for it.pos < it.table.cellCnt {
		cell := &it.table.cells[it.pos]
		it.pos++
		if cell.Mapped != 0 {
			return cell, nil
		}
	}
	return nil, ErrIteratorOutOfRange
}
