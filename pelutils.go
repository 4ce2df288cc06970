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

// Package pelutils bundles small general-purpose helpers shared by the rest
// of the module: timestamps, searching, path handling and environment control.
package pelutils

import (
	"cmp"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// TimestampLayout matches timestamps as they appear in log output.
	TimestampLayout = "2006-01-02 15:04:05.000"
	// FileTimestampLayout is safe for use in file names.
	FileTimestampLayout = "2006-01-02_15-04-05"
)

// GetTimestamp returns the current time formatted as YYYY-MM-DD HH:MM:SS.mmm.
func GetTimestamp() string {
	return time.Now().Format(TimestampLayout)
}

// GetTimeOfDay returns the current time formatted as HH:MM:SS.mmm.
func GetTimeOfDay() string {
	return time.Now().Format("15:04:05.000")
}

// GetTimestampForFiles returns the current time formatted as
// YYYY-MM-DD_HH-MM-SS, which is safe to use in file names on all platforms.
func GetTimestampForFiles() string {
	return time.Now().Format(FileTimestampLayout)
}

// GetTimeOfDayForFiles returns the current time formatted as HH-MM-SS,
// which is safe to use in file names on all platforms.
func GetTimeOfDayForFiles() string {
	return time.Now().Format("15-04-05")
}

// SetSeed seeds the global math/rand source to allow for consistent executions.
func SetSeed(seed int64) {
	rand.Seed(seed)
}

// BinarySearch returns the index of x in xs, which must be sorted in ascending
// order. The second return value is false if x is not present.
func BinarySearch[T cmp.Ordered](x T, xs []T) (int, bool) {
	lo, hi := 0, len(xs)
	for lo < hi {
		mid := (lo + hi) / 2
		if xs[mid] < x {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(xs) && xs[lo] == x {
		return lo, true
	}
	return 0, false
}

// SplitPath splits a path into its components.
func SplitPath(path string) []string {
	path = filepath.Clean(path)
	if path == string(filepath.Separator) {
		return []string{""}
	}
	return strings.Split(path, string(filepath.Separator))
}

// ExceptKeys returns a copy of m with the given keys removed.
func ExceptKeys[K comparable, V any](m map[K]V, keys ...K) map[K]V {
	skip := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		skip[k] = struct{}{}
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		if _, ok := skip[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// TempEnv sets the given environment variables and returns a function that
// restores the previous environment. Typical usage:
//
//	defer TempEnv(map[string]string{"OMP_THREAD_LIMIT": "1"})()
func TempEnv(vars map[string]string) func() {
	origs := make(map[string]*string, len(vars))
	for k, v := range vars {
		if old, ok := os.LookupEnv(k); ok {
			origs[k] = &old
		} else {
			origs[k] = nil
		}
		os.Setenv(k, v)
	}
	return func() {
		for k, old := range origs {
			if old == nil {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, *old)
			}
		}
	}
}
