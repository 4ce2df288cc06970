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

// Int64HashMapCell is a slot of Int64HashMap. The zero key is kept in a
// dedicated cell outside the table so that Key == 0 can mark empty slots.
type Int64HashMapCell struct {
	Key    uint64
	Mapped uint64
}

// Int64HashMap is a specialization of BytesHashMap for 8-byte keys. It avoids
// the per-key state computation and key reference, which roughly halves the
// cost of deduplicating fixed 8-byte records.
type Int64HashMap struct {
	cellCnt     uint64
	cellCntMask uint64
	elemCnt     uint64
	maxElemCnt  uint64
	zeroCell    Int64HashMapCell
	cells       []Int64HashMapCell
}

// Init readies the map for use.
func (ht *Int64HashMap) Init() {
	ht.cellCnt = kInitialCellCnt
	ht.cellCntMask = kInitialCellCnt - 1
	ht.elemCnt = 0
	ht.maxElemCnt = kInitialCellCnt * kLoadFactorNumerator / kLoadFactorDenominator
	ht.zeroCell = Int64HashMapCell{}
	ht.cells = make([]Int64HashMapCell, kInitialCellCnt)
}

// Insert adds a key and returns its 1-based rank along with whether the key
// was new.
func (ht *Int64HashMap) Insert(key uint64) (mapped uint64, added bool) {
	if key == 0 {
		if ht.zeroCell.Mapped == 0 {
			ht.elemCnt++
			ht.zeroCell.Mapped = ht.elemCnt
			return ht.zeroCell.Mapped, true
		}
		return ht.zeroCell.Mapped, false
	}

	ht.resizeOnDemand(1)

	empty, _, cell := ht.findCell(wyhash64(key), key)
	if empty {
		ht.elemCnt++
		cell.Key = key
		cell.Mapped = ht.elemCnt
		return cell.Mapped, true
	}
	return cell.Mapped, false
}

// Find returns the rank of a key, or 0 if it has not been inserted.
func (ht *Int64HashMap) Find(key uint64) uint64 {
	if key == 0 {
		return ht.zeroCell.Mapped
	}
	_, _, cell := ht.findCell(wyhash64(key), key)
	return cell.Mapped
}

// Cardinality returns the number of distinct keys in the map.
func (ht *Int64HashMap) Cardinality() uint64 {
	return ht.elemCnt
}

func (ht *Int64HashMap) findCell(hash, key uint64) (empty bool, idx uint64, cell *Int64HashMapCell) {
	for idx = hash & ht.cellCntMask; true; idx = (idx + 1) & ht.cellCntMask {
		cell = &ht.cells[idx]
		if cell.Key == 0 {
			return true, idx, cell
		}
		if cell.Key == key {
			return false, idx, cell
		}
	}
	return
}

func (ht *Int64HashMap) resizeOnDemand(n uint64) {
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
	ht.cells = make([]Int64HashMapCell, newCellCnt)

	for i := range oldCells {
		cell := &oldCells[i]
		if cell.Key != 0 {
			_, idx, _ := ht.findCell(wyhash64(cell.Key), cell.Key)
			ht.cells[idx] = *cell
		}
	}
}
