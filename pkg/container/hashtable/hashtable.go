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

// Package hashtable provides open-addressing hash maps over raw byte keys.
// The maps assign dense 1-based ranks to keys in insertion order, which makes
// them suitable for linear-time deduplication and group-by style operations.
package hashtable

import "errors"

const (
	kInitialCellCntBits = 10
	kInitialCellCnt     = 1 << kInitialCellCntBits

	kLoadFactorNumerator   = 1
	kLoadFactorDenominator = 2
)

// ErrIteratorOutOfRange is returned by iterators advanced past the last
// occupied cell.
var ErrIteratorOutOfRange = errors.New("hashtable: iterator out of range")
