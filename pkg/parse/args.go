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
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrBadName    = errors.New("parse: invalid argument name")
	ErrBadAbbrv   = errors.New("parse: abbreviation must be a single alpha character")
	ErrReserved   = errors.New("parse: argument name or abbreviation is reserved")
	ErrConflict   = errors.New("parse: conflicting arguments")
	ErrBadDefault = errors.New("parse: default value does not match argument kind")
	ErrBadNargs   = errors.New("parse: nargs must be NargsAny, 0 or positive")
)

// Kind is the value type of an argument.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// NargsAny accepts any number of values for a slice argument.
const NargsAny = -1

// Arg is a command-line parameter declaration: Argument, Option or Flag.
type Arg interface {
	argName() string
	argAbbrv() string
	argHelp() string
	validate() error
}

// Argument is a required value; parsing fails when it is given neither on
// the command line nor in a config file.
type Argument struct {
	Name  string
	Abbrv string
	Help  string
	Kind  Kind
	// Nargs is 0 for a single value, NargsAny for any number of values or
	// n>0 for exactly n values.
	Nargs int
}

// Option is an optional value with a default.
type Option struct {
	Name    string
	Abbrv   string
	Help    string
	Kind    Kind
	Default any
	Nargs   int
}

// Flag is a boolean that defaults to false and becomes true when given.
type Flag struct {
	Name  string
	Abbrv string
	Help  string
}

func (a Argument) argName() string  { return a.Name }
func (a Argument) argAbbrv() string { return a.Abbrv }
func (a Argument) argHelp() string  { return a.Help }

func (o Option) argName() string  { return o.Name }
func (o Option) argAbbrv() string { return o.Abbrv }
func (o Option) argHelp() string  { return o.Help }

func (f Flag) argName() string  { return f.Name }
func (f Flag) argAbbrv() string { return f.Abbrv }
func (f Flag) argHelp() string  { return f.Help }

func (a Argument) validate() error {
	if err := validateNameAbbrv(a.Name, a.Abbrv); err != nil {
		return err
	}
	return validateNargs(a.Nargs)
}

func (o Option) validate() error {
	if err := validateNameAbbrv(o.Name, o.Abbrv); err != nil {
		return err
	}
	if err := validateNargs(o.Nargs); err != nil {
		return err
	}
	if o.Default == nil {
		return nil
	}
	if _, err := convertValue(o.Default, o.Kind, o.Nargs, o.Name); err != nil {
		return fmt.Errorf("%w: %s", ErrBadDefault, o.Name)
	}
	return nil
}

func (f Flag) validate() error {
	return validateNameAbbrv(f.Name, f.Abbrv)
}

func validateNameAbbrv(name, abbrv string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrBadName)
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: dashes are prepended automatically: %q", ErrBadName, name)
	}
	if strings.ContainsFunc(name, unicode.IsSpace) {
		return fmt.Errorf("%w: name contains whitespace: %q", ErrBadName, name)
	}
	if abbrv != "" {
		runes := []rune(abbrv)
		if len(runes) != 1 || !unicode.IsLetter(runes[0]) {
			return fmt.Errorf("%w: %q", ErrBadAbbrv, abbrv)
		}
	}
	return nil
}

func validateNargs(nargs int) error {
	if nargs < NargsAny {
		return fmt.Errorf("%w: %d", ErrBadNargs, nargs)
	}
	return nil
}

// normalizeName maps dashes to underscores so "batch-size" and "batch_size"
// refer to the same argument.
func normalizeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// swapCaseRune flips the case of an ASCII letter for abbreviation fallback.
func swapCaseRune(r rune) rune {
	switch {
	case unicode.IsLower(r):
		return unicode.ToUpper(r)
	case unicode.IsUpper(r):
		return unicode.ToLower(r)
	default:
		return r
	}
}

// convertValue coerces a value from a config file or a default into the
// declared kind, returning int, float64, string, bool or a slice thereof.
func convertValue(v any, kind Kind, nargs int, name string) (any, error) {
	if nargs == 0 {
		return convertScalar(v, kind, name)
	}
	items, ok := anySlice(v)
	if !ok {
		return nil, fmt.Errorf("parse: %s expects a list of values, got %T", name, v)
	}
	switch kind {
	case KindString:
		return convertSlice[string](items, kind, name)
	case KindInt:
		return convertSlice[int](items, kind, name)
	case KindFloat:
		return convertSlice[float64](items, kind, name)
	default:
		return convertSlice[bool](items, kind, name)
	}
}

func anySlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		return genericToAny(s), true
	case []int:
		return genericToAny(s), true
	case []int64:
		return genericToAny(s), true
	case []float64:
		return genericToAny(s), true
	case []bool:
		return genericToAny(s), true
	default:
		return nil, false
	}
}

func genericToAny[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func convertSlice[T any](items []any, kind Kind, name string) ([]T, error) {
	out := make([]T, len(items))
	for i, item := range items {
		v, err := convertScalar(item, kind, name)
		if err != nil {
			return nil, err
		}
		out[i] = v.(T)
	}
	return out, nil
}

func convertScalar(v any, kind Kind, name string) (any, error) {
	switch kind {
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("parse: %s expects a %s value, got %T", name, kind, v)
}
