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

package ticktock

import (
	"fmt"

	"github.com/peleiden/pelutils/pkg/format"
)

// TimeUnit is a display unit for durations. The zero value means automatic
// unit selection.
type TimeUnit struct {
	Suffix  string
	Seconds float64
}

var (
	Nanosecond  = TimeUnit{"ns", 1e-9}
	Microsecond = TimeUnit{"us", 1e-6}
	Millisecond = TimeUnit{"ms", 1e-3}
	Second      = TimeUnit{"s", 1}
	Hour        = TimeUnit{"h", 3600}
)

// units in order of increasing duration.
var units = []TimeUnit{Nanosecond, Microsecond, Millisecond, Second, Hour}

// IsZero reports whether u is the automatic-selection unit.
func (u TimeUnit) IsZero() bool {
	return u.Seconds == 0
}

// NextBigger returns the smallest available unit bigger than u, or u itself
// when none is.
func (u TimeUnit) NextBigger() TimeUnit {
	for _, cand := range units {
		if cand.Seconds > u.Seconds {
			return cand
		}
	}
	return u
}

// NextSmaller returns the largest available unit smaller than u, or u itself
// when none is.
func (u TimeUnit) NextSmaller() TimeUnit {
	for i := len(units) - 1; i >= 0; i-- {
		if units[i].Seconds < u.Seconds {
			return units[i]
		}
	}
	return u
}

// suitableUnit returns the largest unit no bigger than the duration, falling
// back to the smallest unit for tiny durations.
func suitableUnit(seconds float64) TimeUnit {
	for i := len(units) - 1; i >= 0; i-- {
		if seconds >= units[i].Seconds {
			return units[i]
		}
	}
	return units[0]
}

// Format renders a duration in this unit, right-padding the suffix so
// columns of durations line up.
func (u TimeUnit) Format(seconds float64) string {
	return fmt.Sprintf("%s %2s", format.CommasFloat(seconds/u.Seconds, 2), u.Suffix)
}
