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

package parse

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DocumentFilename is the file written into job directories to document how
// the job was started.
const DocumentFilename = "used-config.toml"

// JobDescription holds the final value of every declared parameter for one
// job, along with the job's name and output directory.
type JobDescription struct {
	Name     string
	Location string
	// ExplicitArgs holds the normalized names of parameters that were
	// given explicitly, on the command line or in the config file.
	ExplicitArgs map[string]struct{}

	values     map[string]any
	docContent string
}

// value panics on unknown names: asking for an undeclared parameter is a
// programming error, not an input error.
func (j *JobDescription) value(name string) any {
	v, ok := j.values[normalizeName(name)]
	if !ok {
		panic(fmt.Sprintf("parse: no such job argument %q", name))
	}
	return v
}

// Str returns a string parameter. It panics when the parameter does not
// exist or has a different kind; the sibling accessors behave the same.
func (j *JobDescription) Str(name string) string    { return j.value(name).(string) }
func (j *JobDescription) Int(name string) int       { return j.value(name).(int) }
func (j *JobDescription) Float(name string) float64 { return j.value(name).(float64) }
func (j *JobDescription) Bool(name string) bool     { return j.value(name).(bool) }

func (j *JobDescription) Strs(name string) []string    { return j.value(name).([]string) }
func (j *JobDescription) Ints(name string) []int       { return j.value(name).([]int) }
func (j *JobDescription) Floats(name string) []float64 { return j.value(name).([]float64) }

// Explicit reports whether the parameter was given explicitly rather than
// falling back to its default.
func (j *JobDescription) Explicit(name string) bool {
	_, ok := j.ExplicitArgs[normalizeName(name)]
	return ok
}

// Todict returns all parameter values plus the job name and location.
func (j *JobDescription) Todict() map[string]any {
	out := make(map[string]any, len(j.values)+2)
	for k, v := range j.values {
		out[k] = v
	}
	out["name"] = j.Name
	out["location"] = j.Location
	return out
}

func (j *JobDescription) String() string {
	d := j.Todict()
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := "JobDescription{"
	for i, k := range keys {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %v", k, d[k])
	}
	return s + "}"
}

// PrepareDirectory wipes and recreates the job directory, leaving a fresh
// documentation file in it.
func (j *JobDescription) PrepareDirectory() error {
	if err := os.RemoveAll(j.Location); err != nil {
		return err
	}
	if err := os.MkdirAll(j.Location, 0o755); err != nil {
		return err
	}
	return j.WriteDocumentation()
}

// WriteDocumentation appends the run documentation to used-config.toml in
// the job directory, creating directory and file as needed.
func (j *JobDescription) WriteDocumentation() error {
	if err := os.MkdirAll(j.Location, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(j.Location, DocumentFilename), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(j.docContent); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
