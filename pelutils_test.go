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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimestamps(t *testing.T) {
	ts := GetTimestamp()
	parsed, err := time.ParseInLocation(TimestampLayout, ts, time.Local)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), parsed, time.Minute)

	fts := GetTimestampForFiles()
	_, err = time.ParseInLocation(FileTimestampLayout, fts, time.Local)
	require.NoError(t, err)
	require.NotContains(t, fts, " ")
	require.NotContains(t, fts, ":")

	tod := GetTimeOfDay()
	_, err = time.Parse("15:04:05.000", tod)
	require.NoError(t, err)

	ftod := GetTimeOfDayForFiles()
	_, err = time.Parse("15-04-05", ftod)
	require.NoError(t, err)
	require.NotContains(t, ftod, ":")
}

func TestBinarySearch(t *testing.T) {
	xs := []int{1, 3, 3, 7, 10, 20}
	for want, x := range map[int]int{0: 1, 3: 7, 4: 10, 5: 20} {
		i, ok := BinarySearch(x, xs)
		require.True(t, ok, "x=%d", x)
		require.Equal(t, want, i, "x=%d", x)
	}
	// Duplicates give the first index.
	i, ok := BinarySearch(3, xs)
	require.True(t, ok)
	require.Equal(t, 1, i)

	for _, x := range []int{0, 2, 8, 21} {
		_, ok := BinarySearch(x, xs)
		require.False(t, ok, "x=%d", x)
	}
	_, ok = BinarySearch(1, nil)
	require.False(t, ok)

	si, ok := BinarySearch("b", []string{"a", "b", "c"})
	require.True(t, ok)
	require.Equal(t, 1, si)
}

func TestSplitPath(t *testing.T) {
	sep := string(filepath.Separator)
	require.Equal(t, []string{"a", "b", "c"}, SplitPath(filepath.Join("a", "b", "c")))
	require.Equal(t, []string{"", "a", "b"}, SplitPath(sep+filepath.Join("a", "b")))
	require.Equal(t, []string{""}, SplitPath(sep))
	require.Equal(t, []string{"a"}, SplitPath("a"+sep))
}

func TestExceptKeys(t *testing.T) {
	m := map[string]int{"a": 1, "b": 2, "c": 3}
	got := ExceptKeys(m, "b", "nope")
	require.Equal(t, map[string]int{"a": 1, "c": 3}, got)
	// The input map is untouched.
	require.Len(t, m, 3)
}

func TestTempEnv(t *testing.T) {
	const existing, fresh = "PELUTILS_TEST_EXISTING", "PELUTILS_TEST_FRESH"
	require.NoError(t, os.Setenv(existing, "before"))
	defer os.Unsetenv(existing)
	require.NoError(t, os.Unsetenv(fresh))

	restore := TempEnv(map[string]string{existing: "during", fresh: "new"})
	require.Equal(t, "during", os.Getenv(existing))
	require.Equal(t, "new", os.Getenv(fresh))

	restore()
	require.Equal(t, "before", os.Getenv(existing))
	_, ok := os.LookupEnv(fresh)
	require.False(t, ok)
}

func TestHardwareInfo(t *testing.T) {
	info := GetHardwareInfo()
	require.Greater(t, info.Threads, 0)
	require.NotEmpty(t, info.OS)
	require.NotEmpty(t, info.Arch)
	require.NotEmpty(t, info.String())
}

func TestGetRepoResolvesHead(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "refs", "heads"), 0o755))
	const sha = "0123456789abcdef0123456789abcdef01234567"
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "refs", "heads", "main"), []byte(sha+"\n"), 0o644))

	// Found from a nested directory.
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	repo, commit, err := GetRepo(nested)
	require.NoError(t, err)
	require.Equal(t, dir, repo)
	require.Equal(t, sha, commit)

	// Detached HEAD holds the SHA directly.
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte(sha+"\n"), 0o644))
	_, commit, err = GetRepo(dir)
	require.NoError(t, err)
	require.Equal(t, sha, commit)

	// Packed refs are searched when the loose ref is gone.
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/packed\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "packed-refs"),
		[]byte("# pack-refs with: peeled fully-peeled sorted\n"+sha+" refs/heads/packed\n"), 0o644))
	_, commit, err = GetRepo(dir)
	require.NoError(t, err)
	require.Equal(t, sha, commit)
}

func TestGetRepoNotFound(t *testing.T) {
	_, _, err := GetRepo(t.TempDir())
	require.ErrorIs(t, err, ErrNoRepo)
}
