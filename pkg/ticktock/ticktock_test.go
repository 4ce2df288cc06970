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
	"testing"
	"time"

	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/require"
)

// fakeClock advances a fixed step on every reading, making measured
// durations deterministic.
func fakeClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestTickTock(t *testing.T) {
	stubs := gostub.Stub(&nowFunc, fakeClock(time.Second))
	defer stubs.Reset()

	tt := New()
	tt.Tick("")
	dt, err := tt.Tock("")
	require.NoError(t, err)
	require.InDelta(t, 1.0, dt, 1e-9)

	// The stopwatch keeps running after Tock.
	dt, err = tt.Tock("")
	require.NoError(t, err)
	require.InDelta(t, 2.0, dt, 1e-9)

	_, err = tt.Tock("other")
	require.ErrorIs(t, err, ErrNoTimer)
}

func TestMultipleTimers(t *testing.T) {
	stubs := gostub.Stub(&nowFunc, fakeClock(time.Second))
	defer stubs.Reset()

	tt := New()
	tt.Tick("a") // t=1
	tt.Tick("b") // t=2
	dtA, err := tt.Tock("a")
	require.NoError(t, err)
	dtB, err := tt.Tock("b")
	require.NoError(t, err)
	require.InDelta(t, 2.0, dtA, 1e-9)
	require.InDelta(t, 2.0, dtB, 1e-9)
}

func TestProfileTree(t *testing.T) {
	stubs := gostub.Stub(&nowFunc, fakeClock(time.Second))
	defer stubs.Reset()

	tt := New()
	for i := 0; i < 3; i++ {
		tt.MustProfile("outer")
		tt.MustProfile("inner")
		_, err := tt.EndProfile("inner")
		require.NoError(t, err)
		_, err = tt.EndProfile("outer")
		require.NoError(t, err)
	}

	require.Len(t, tt.Profiles, 1)
	outer := tt.Profiles[0]
	require.Equal(t, "outer", outer.Name)
	require.Equal(t, 0, outer.Depth)
	require.Equal(t, 3, outer.Hits())
	require.Len(t, outer.Children, 1)

	inner := outer.Children[0]
	require.Equal(t, "inner", inner.Name)
	require.Equal(t, 1, inner.Depth)
	require.Same(t, outer, inner.Parent)
	require.Equal(t, 3, inner.Hits())
	// Each iteration: inner spans 1 tick, outer spans 3.
	require.InDelta(t, 3.0, inner.Sum(), 1e-9)
	require.InDelta(t, 9.0, outer.Sum(), 1e-9)
	require.InDelta(t, 3.0, outer.Mean(), 1e-9)
}

func TestEndProfileOutOfOrder(t *testing.T) {
	tt := New()
	tt.MustProfile("a")
	tt.MustProfile("b")
	_, err := tt.EndProfile("a")
	require.ErrorIs(t, err, ErrWrongProfile)
	_, err = tt.EndProfile("b")
	require.NoError(t, err)
	_, err = tt.EndProfile("a")
	require.NoError(t, err)
	_, err = tt.EndProfile("")
	require.ErrorIs(t, err, ErrNoProfile)
}

func TestProfileCloserUnwindsDeeperSections(t *testing.T) {
	tt := New()
	end := tt.MustProfile("outer")
	tt.MustProfile("left open")
	tt.MustProfile("also left open")
	end()
	require.NoError(t, tt.Reset())
}

func TestProfileHits(t *testing.T) {
	stubs := gostub.Stub(&nowFunc, fakeClock(time.Second))
	defer stubs.Reset()

	tt := New()
	end := tt.Profile("loop", 100)
	end()
	hits, sum, err := tt.StatsByName("loop")
	require.NoError(t, err)
	require.Equal(t, 100, hits)
	require.InDelta(t, 1.0, sum, 1e-9)

	_, _, err = tt.StatsByName("missing")
	require.Error(t, err)
}

func TestAddExternalMeasurements(t *testing.T) {
	tt := New()
	require.NoError(t, tt.AddExternalMeasurements("worker time", 12.5, 5))
	hits, sum, err := tt.StatsByName("worker time")
	require.NoError(t, err)
	require.Equal(t, 5, hits)
	require.InDelta(t, 12.5, sum, 1e-6)

	// Empty name adds to the active profile.
	end := tt.MustProfile("active")
	require.NoError(t, tt.AddExternalMeasurements("", 2, 3))
	end()
	hits, sum, err = tt.StatsByName("active")
	require.NoError(t, err)
	require.Equal(t, 4, hits)
	require.Greater(t, sum, 2.0-1e-9)

	require.ErrorIs(t, New().AddExternalMeasurements("", 1, 1), ErrNoProfile)
}

func TestReset(t *testing.T) {
	tt := New()
	tt.MustProfile("open")
	require.ErrorIs(t, tt.Reset(), ErrActive)
	_, err := tt.EndProfile("open")
	require.NoError(t, err)
	require.NoError(t, tt.Reset())
	require.Empty(t, tt.Profiles)
}

func profiledPair(t *testing.T) *TickTock {
	t.Helper()
	tt := New()
	end := tt.MustProfile("a")
	tt.MustProfile("b")
	_, err := tt.EndProfile("b")
	require.NoError(t, err)
	end()
	return tt
}

func TestFuse(t *testing.T) {
	stubs := gostub.Stub(&nowFunc, fakeClock(time.Second))
	defer stubs.Reset()

	tt1 := profiledPair(t)
	tt2 := profiledPair(t)
	require.NoError(t, tt1.Fuse(tt2))
	hits, sum, err := tt1.StatsByName("a")
	require.NoError(t, err)
	require.Equal(t, 2, hits)
	require.InDelta(t, 6.0, sum, 1e-9)

	mismatched := New()
	mismatched.MustProfile("other")
	_, err = mismatched.EndProfile("other")
	require.NoError(t, err)
	require.ErrorIs(t, tt1.Fuse(mismatched), ErrMismatch)
}

func TestFuseMultiple(t *testing.T) {
	stubs := gostub.Stub(&nowFunc, fakeClock(time.Second))
	defer stubs.Reset()

	tt1 := profiledPair(t)
	tt2 := profiledPair(t)
	tt3 := profiledPair(t)
	fused, err := FuseMultiple(tt1, tt2, tt3)
	require.NoError(t, err)

	hits, _, err := fused.StatsByName("b")
	require.NoError(t, err)
	require.Equal(t, 3, hits)

	// The inputs are left untouched.
	hits, _, err = tt1.StatsByName("b")
	require.NoError(t, err)
	require.Equal(t, 1, hits)

	_, err = FuseMultiple(tt1, tt1)
	require.ErrorIs(t, err, ErrSameInstance)
}

func TestStringify(t *testing.T) {
	stubs := gostub.Stub(&nowFunc, fakeClock(time.Second))
	defer stubs.Reset()

	tt := New()
	end := tt.MustProfile("outer")
	tt.MustProfile("inner")
	_, err := tt.EndProfile("inner")
	require.NoError(t, err)
	end()

	tt.MustProfile("open")
	_, err = tt.Stringify(Second)
	require.ErrorIs(t, err, ErrActive)
	_, err = tt.EndProfile("open")
	require.NoError(t, err)

	s, err := tt.Stringify(Second)
	require.NoError(t, err)
	for _, want := range []string{"Profile", "Total time", "Percentage", "Hits", "Average", "outer", "  inner", " <"} {
		require.Contains(t, s, want)
	}
	// String uses automatic units and must render without error text.
	require.Contains(t, tt.String(), "outer")
	require.NotContains(t, tt.String(), "ticktock:")
}

func TestTimeUnits(t *testing.T) {
	require.Equal(t, Millisecond, Second.NextSmaller())
	require.Equal(t, Hour, Second.NextBigger())
	require.Equal(t, Nanosecond, Nanosecond.NextSmaller())
	require.Equal(t, Hour, Hour.NextBigger())
	require.Equal(t, Millisecond, suitableUnit(0.5))
	require.Equal(t, Nanosecond, suitableUnit(1e-12))
	require.Equal(t, Hour, suitableUnit(7200))
	require.Equal(t, "1,500.00 ms", Millisecond.Format(1.5))
	require.Equal(t, "2.50  s", Second.Format(2.5))
}
