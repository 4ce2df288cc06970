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
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoRepo is returned by GetRepo when no enclosing git repository exists.
var ErrNoRepo = errors.New("no git repository found")

// GetRepo returns the absolute path of the enclosing git repository along
// with the commit SHA of HEAD. The repository is found by walking upwards
// from path, or from the working directory if path is empty.
func GetRepo(path string) (repo string, commit string, err error) {
	if path == "" {
		if path, err = os.Getwd(); err != nil {
			return "", "", err
		}
	}
	if path, err = filepath.Abs(path); err != nil {
		return "", "", err
	}
	for {
		gitDir := filepath.Join(path, ".git")
		if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
			commit, err := resolveHead(gitDir)
			if err != nil {
				return "", "", err
			}
			return path, commit, nil
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", "", ErrNoRepo
		}
		path = parent
	}
}

// resolveHead reads .git/HEAD and follows a symbolic ref to its SHA, falling
// back to packed-refs for refs that have been packed away.
func resolveHead(gitDir string) (string, error) {
	head, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(string(head))
	if !strings.HasPrefix(content, "ref: ") {
		// Detached HEAD contains the SHA directly.
		return content, nil
	}
	ref := strings.TrimPrefix(content, "ref: ")
	if sha, err := os.ReadFile(filepath.Join(gitDir, filepath.FromSlash(ref))); err == nil {
		return strings.TrimSpace(string(sha)), nil
	}
	packed, err := os.ReadFile(filepath.Join(gitDir, "packed-refs"))
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(packed), "\n") {
		if strings.HasSuffix(line, " "+ref) {
			return strings.SplitN(line, " ", 2)[0], nil
		}
	}
	return "", errors.New("unable to resolve ref " + ref)
}
