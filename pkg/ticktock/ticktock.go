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

// Package ticktock provides simple stopwatch timing in the spirit of
// Matlab's tic/toc along with a hierarchical code profiler.
//
//	tt := ticktock.New()
//	tt.Tick("")
//	...
//	seconds, _ := tt.Tock("")
//
//	for i := 0; i < 100; i++ {
//		end := tt.MustProfile("Repeated work")
//		...
//		end()
//	}
//	fmt.Println(tt)
package ticktock

import (
	"errors"
	"fmt"
	"time"

	"github.com/peleiden/pelutils/pkg/format"
)

var (
	ErrNoTimer      = errors.New("ticktock: no timer started for id")
	ErrWrongProfile = errors.New("ticktock: profile ended out of order")
	ErrNoProfile    = errors.New("ticktock: no active profile")
	ErrActive       = errors.New("ticktock: profiling still active")
	ErrMismatch     = errors.New("ticktock: profile trees do not match")
	ErrSameInstance = errors.New("ticktock: instances must be distinct")
)

// nowFunc is the time source. Tests swap it out.
var nowFunc = time.Now

// Profile aggregates measurements for one profiled code section. Sections
// are identified by name, nesting depth and parent, so the same name can
// appear at several places in the tree.
type Profile struct {
	Name     string
	Depth    int
	Parent   *Profile
	Children []*Profile

	hits      int
	totalTime float64
}

// Sum returns the total measured time in seconds.
func (p *Profile) Sum() float64 {
	return p.totalTime
}

// Hits returns the number of registered hits.
func (p *Profile) Hits() int {
	return p.hits
}

// Mean returns the average hit length in seconds, or 0 without hits.
func (p *Profile) Mean() float64 {
	if p.hits == 0 {
		return 0
	}
	return p.totalTime / float64(p.hits)
}

// Walk visits the profile and all its descendants depth-first.
func (p *Profile) Walk(fn func(*Profile)) {
	fn(p)
	for _, child := range p.Children {
		child.Walk(fn)
	}
}

type profileKey struct {
	name   string
	depth  int
	parent *Profile
}

type stackEntry struct {
	profile *Profile
	hits    int
	start   time.Time
}

// TickTock tracks named stopwatches and a stack of nested profiles.
// Instances are not safe for concurrent use; give each goroutine its own
// and combine them with Fuse afterwards.
type TickTock struct {
	tickStarts map[string]time.Time
	profileIDs map[profileKey]*Profile
	// Profiles holds the top-level profiles in order of first entry.
	Profiles []*Profile
	stack    []stackEntry
}

// TT is a global instance for the common single-timer case.
var TT = New()

// New returns an empty TickTock.
func New() *TickTock {
	return &TickTock{
		tickStarts: make(map[string]time.Time),
		profileIDs: make(map[profileKey]*Profile),
	}
}

// Tick starts or restarts the stopwatch with the given id. Multiple
// stopwatches can run at once under different ids.
func (t *TickTock) Tick(id string) {
	t.tickStarts[id] = nowFunc()
}

// Tock returns the seconds since Tick was called with the same id. The
// stopwatch keeps running.
func (t *TickTock) Tock(id string) (float64, error) {
	end := nowFunc()
	start, ok := t.tickStarts[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNoTimer, id)
	}
	return end.Sub(start).Seconds(), nil
}

// Profile begins profiling a section with the given name, nested under the
// currently active profile. hits spreads the measured time over that many
// hits, which is useful around very quick loops:
//
//	end := tt.Profile("Push", 1000)
//	for i := 0; i < 1000; i++ { ... }
//	end()
//
// The returned closer ends the section, first unwinding any deeper sections
// left open, so it is safe to defer.
func (t *TickTock) Profile(name string, hits int) func() {
	key := profileKey{name, len(t.stack), t.activeProfile()}
	profile, ok := t.profileIDs[key]
	if !ok {
		profile = &Profile{Name: name, Depth: key.depth, Parent: key.parent}
		t.profileIDs[key] = profile
		if key.parent == nil {
			t.Profiles = append(t.Profiles, profile)
		} else {
			key.parent.Children = append(key.parent.Children, profile)
		}
	}
	t.stack = append(t.stack, stackEntry{profile, hits, nowFunc()})

	return func() {
		for len(t.stack) > 0 && t.stack[len(t.stack)-1].profile != profile {
			t.EndProfile("")
		}
		t.EndProfile(name)
	}
}

// MustProfile is Profile with a single hit.
func (t *TickTock) MustProfile(name string) func() {
	return t.Profile(name, 1)
}

// EndProfile ends the innermost active profile and returns its elapsed
// seconds. A non-empty name must match the profile being ended.
func (t *TickTock) EndProfile(name string) (float64, error) {
	end := nowFunc()
	if len(t.stack) == 0 {
		return 0, ErrNoProfile
	}
	top := t.stack[len(t.stack)-1]
	if name != "" && name != top.profile.Name {
		return 0, fmt.Errorf("%w: expected %q, got %q", ErrWrongProfile, top.profile.Name, name)
	}
	dt := end.Sub(top.start).Seconds()
	top.profile.hits += top.hits
	top.profile.totalTime += dt
	t.stack = t.stack[:len(t.stack)-1]
	return dt, nil
}

// AddExternalMeasurements registers time measured elsewhere, e.g. by worker
// processes, under a profile with the given name. An empty name adds to the
// currently active profile instead.
func (t *TickTock) AddExternalMeasurements(name string, seconds float64, hits int) error {
	if name == "" {
		p := t.activeProfile()
		if p == nil {
			return ErrNoProfile
		}
		p.hits += hits
		p.totalTime += seconds
		return nil
	}
	t.Profile(name, hits)
	p := t.stack[len(t.stack)-1].profile
	if _, err := t.EndProfile(name); err != nil {
		return err
	}
	// EndProfile measured ~0s for the synthetic section; the real time is
	// the externally supplied one.
	p.totalTime += seconds
	return nil
}

// Reset clears all profiles and stopwatches.
func (t *TickTock) Reset() error {
	if len(t.stack) > 0 {
		return ErrActive
	}
	*t = *New()
	return nil
}

// Fuse adds the measurements of other into t. Both instances must hold the
// same profile tree and have no active profiling.
func (t *TickTock) Fuse(other *TickTock) error {
	if len(t.stack) > 0 || len(other.stack) > 0 {
		return ErrActive
	}
	pairs, err := matchProfiles(t, other)
	if err != nil {
		return err
	}
	for i, mine := range pairs.mine {
		mine.hits += pairs.theirs[i].hits
		mine.totalTime += pairs.theirs[i].totalTime
	}
	return nil
}

// FuseMultiple combines distinct TickTock instances into a new one, leaving
// the inputs untouched.
func FuseMultiple(tts ...*TickTock) (*TickTock, error) {
	if len(tts) == 0 {
		return New(), nil
	}
	seen := make(map[*TickTock]struct{}, len(tts))
	for _, tt := range tts {
		if _, dup := seen[tt]; dup {
			return nil, ErrSameInstance
		}
		seen[tt] = struct{}{}
	}
	fused := tts[0].clone()
	for _, tt := range tts[1:] {
		if err := fused.Fuse(tt); err != nil {
			return nil, err
		}
	}
	return fused, nil
}

// StatsByName returns the hits and total seconds of the first profile with
// the given name. Names are not unique across the tree, so check that the
// right profile is found when reusing names.
func (t *TickTock) StatsByName(name string) (hits int, seconds float64, err error) {
	var found *Profile
	t.walk(func(p *Profile) {
		if found == nil && p.Name == name {
			found = p
		}
	})
	if found == nil {
		return 0, 0, fmt.Errorf("ticktock: no profile named %q", name)
	}
	return found.hits, found.totalTime, nil
}

// Stringify renders the profile tree as a table. A zero unit selects a
// suitable unit per row.
func (t *TickTock) Stringify(unit TimeUnit) (string, error) {
	if len(t.stack) > 0 {
		return "", ErrActive
	}

	table := format.NewTable()
	table.AddHeader("Profile", "Total time", "Percentage", "Hits", "Average")
	var totalTime float64
	for _, p := range t.Profiles {
		totalTime += p.Sum()
	}
	t.walk(func(p *Profile) {
		sumUnit, meanUnit := unit, unit.NextSmaller()
		if unit.IsZero() {
			sumUnit, meanUnit = suitableUnit(p.Sum()), suitableUnit(p.Mean())
		}
		parentSum := totalTime
		if p.Parent != nil {
			parentSum = p.Parent.Sum()
		}
		var pct float64
		if parentSum > 0 {
			pct = 100 * p.Sum() / parentSum
		}
		pctCol := fmt.Sprintf("%.2f", pct)
		if p.Depth > 0 {
			pctCol += " <"
			for i := 1; i < p.Depth; i++ {
				pctCol += "--"
			}
		}
		table.AddRowAligned([]any{
			indent(p.Depth) + p.Name,
			sumUnit.Format(p.Sum()),
			pctCol,
			format.Commas(int64(p.Hits())),
			meanUnit.Format(p.Mean()),
		}, []bool{true, false, false, false, false})
	})
	return table.String(), nil
}

func (t *TickTock) String() string {
	s, err := t.Stringify(TimeUnit{})
	if err != nil {
		return err.Error()
	}
	return s
}

func (t *TickTock) activeProfile() *Profile {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1].profile
}

func (t *TickTock) walk(fn func(*Profile)) {
	for _, p := range t.Profiles {
		p.Walk(fn)
	}
}

func (t *TickTock) clone() *TickTock {
	out := New()
	var copyTree func(p *Profile, parent *Profile) *Profile
	copyTree = func(p, parent *Profile) *Profile {
		cp := &Profile{
			Name:      p.Name,
			Depth:     p.Depth,
			Parent:    parent,
			hits:      p.hits,
			totalTime: p.totalTime,
		}
		out.profileIDs[profileKey{cp.Name, cp.Depth, parent}] = cp
		for _, child := range p.Children {
			cp.Children = append(cp.Children, copyTree(child, cp))
		}
		return cp
	}
	for _, p := range t.Profiles {
		out.Profiles = append(out.Profiles, copyTree(p, nil))
	}
	return out
}

type profilePairs struct {
	mine, theirs []*Profile
}

// matchProfiles pairs up the two trees in depth-first order, failing when
// their shapes or names differ.
func matchProfiles(a, b *TickTock) (profilePairs, error) {
	var pairs profilePairs
	a.walk(func(p *Profile) { pairs.mine = append(pairs.mine, p) })
	b.walk(func(p *Profile) { pairs.theirs = append(pairs.theirs, p) })
	if len(pairs.mine) != len(pairs.theirs) {
		return pairs, ErrMismatch
	}
	for i, p := range pairs.mine {
		q := pairs.theirs[i]
		if p.Name != q.Name || p.Depth != q.Depth {
			return pairs, fmt.Errorf("%w: %q vs %q", ErrMismatch, p.Name, q.Name)
		}
	}
	return pairs, nil
}

func indent(depth int) string {
	buf := make([]byte, 2*depth)
	for i := range buf {
		buf[i] = ' '
	}
	return string(buf)
}
