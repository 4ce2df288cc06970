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

// Package parse declares job parameters once and fills them from the
// command line and optionally a TOML config file. Each run of a program is
// described by one or more jobs: a named output directory plus the final
// value of every declared parameter, merged with the precedence
//
//	declared defaults < config file values < explicit command-line flags
//
// A config file can describe several jobs at once through its sections,
// with top-level keys shared by all of them.
package parse

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/peleiden/pelutils"
)

var (
	ErrMissingLocation  = errors.New("parse: missing location argument")
	ErrExtraPositional  = errors.New("parse: unexpected positional argument")
	ErrMissingArgument  = errors.New("parse: missing required argument")
	ErrEncoding         = errors.New("parse: config encoding suffix is not supported, files must be UTF-8")
	ErrUnknownKey       = errors.New("parse: unknown key in config file")
	ErrUnknownSection   = errors.New("parse: unknown config section")
	ErrMultipleSections = errors.New("parse: config file has multiple sections but the parser expects a single job")
	ErrNargsCount       = errors.New("parse: wrong number of values")
)

const (
	sectionSeparator  = ":"
	encodingSeparator = "::"
	// defaultSection is the pseudo-section holding top-level config keys.
	defaultSection = "DEFAULT"
)

var reservedNames = map[string]struct{}{
	"location": {},
	"name":     {},
	"config":   {},
	"help":     {},
}

// Parser validates parameter declarations and parses jobs from command
// lines. Use one Parser per program entry point.
type Parser struct {
	description  string
	multipleJobs bool
	// args maps normalized names to user declarations in declaration order.
	args   map[string]Arg
	order  []string
	abbrvs map[string]string
	// nameAbbrv is the auto-assigned shorthand of the reserved --name.
	nameAbbrv string
}

// NewParser builds a parser for the given parameter declarations. With
// multipleJobs, a config file section becomes one job each and job
// directories are nested under the location argument.
func NewParser(description string, multipleJobs bool, args ...Arg) (*Parser, error) {
	p := &Parser{
		description:  description,
		multipleJobs: multipleJobs,
		args:         make(map[string]Arg, len(args)),
		abbrvs:       make(map[string]string, len(args)),
	}

	for _, arg := range args {
		if err := arg.validate(); err != nil {
			return nil, err
		}
		if _, reserved := reservedNames[normalizeName(arg.argName())]; reserved {
			return nil, fmt.Errorf("%w: %q", ErrReserved, arg.argName())
		}
		norm := normalizeName(arg.argName())
		if _, dup := p.args[norm]; dup {
			return nil, fmt.Errorf("%w: %q ('-' and '_' count as the same)", ErrConflict, arg.argName())
		}
		p.args[norm] = arg
		p.order = append(p.order, norm)
	}

	// Abbreviations: explicit ones are claimed first, then the reserved
	// location and name arguments, then the remaining arguments get their
	// first letter with a case-swapped fallback.
	used := map[string]bool{"h": true, "c": true}
	for _, norm := range p.order {
		abbrv := p.args[norm].argAbbrv()
		if abbrv == "" {
			continue
		}
		if used[abbrv] {
			return nil, fmt.Errorf("%w: abbreviation %q", ErrConflict, abbrv)
		}
		used[abbrv] = true
		p.abbrvs[norm] = abbrv
	}
	autoAbbrv := func(norm string) string {
		r := []rune(norm)[0]
		if s := string(r); !used[s] {
			used[s] = true
			return s
		}
		if s := string(swapCaseRune(r)); !used[s] {
			used[s] = true
			return s
		}
		return ""
	}
	used["l"] = true // claimed by location
	p.nameAbbrv = autoAbbrv("name")
	for _, norm := range p.order {
		if _, has := p.abbrvs[norm]; has {
			continue
		}
		if abbrv := autoAbbrv(norm); abbrv != "" {
			p.abbrvs[norm] = abbrv
		}
	}
	return p, nil
}

// Parse parses a command line, excluding the program name, into jobs.
// Without MultipleJobs exactly one job is returned.
func (p *Parser) Parse(argv []string) ([]*JobDescription, error) {
	fs := pflag.NewFlagSet(p.description, pflag.ContinueOnError)
	fs.SortFlags = false
	name := fs.StringP("name", p.nameAbbrv, "", "Name of the job")
	config := fs.StringP("config", "c", "",
		"Path to TOML config file, optionally suffixed with :section filters")
	for _, norm := range p.order {
		p.register(fs, norm)
	}
	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	switch positional := fs.Args(); len(positional) {
	case 1:
	case 0:
		return nil, ErrMissingLocation
	default:
		return nil, fmt.Errorf("%w: %q", ErrExtraPositional, fs.Args()[1])
	}
	location := fs.Args()[0]

	explicit := make(map[string]struct{})
	cliValues := make(map[string]any, len(p.order))
	for _, norm := range p.order {
		if fs.Changed(p.args[norm].argName()) {
			explicit[norm] = struct{}{}
		}
		v, err := p.cliValue(fs, norm)
		if err != nil {
			return nil, err
		}
		cliValues[norm] = v
	}
	if fs.Changed("name") {
		explicit["name"] = struct{}{}
	}

	doc := p.docContent(argv)
	var jobs []*JobDescription
	if *config == "" {
		jobName := *name
		if jobName == "" {
			jobName = pelutils.GetTimestampForFiles()
		}
		job := &JobDescription{
			Name:         jobName,
			Location:     p.jobLocation(location, jobName),
			ExplicitArgs: explicit,
			values:       cliValues,
			docContent:   doc,
		}
		for _, norm := range p.order {
			if _, isArg := p.args[norm].(Argument); isArg {
				if _, given := explicit[norm]; !given {
					return nil, fmt.Errorf("%w: %q", ErrMissingArgument, p.args[norm].argName())
				}
			}
		}
		jobs = append(jobs, job)
	} else {
		var err error
		if jobs, err = p.parseConfigJobs(*config, location, *name, explicit, cliValues, doc); err != nil {
			return nil, err
		}
	}

	for _, job := range jobs {
		if err := p.checkNargs(job); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func (p *Parser) jobLocation(location, jobName string) string {
	if p.multipleJobs {
		return filepath.Join(location, jobName)
	}
	return location
}

// parseConfigJobs builds one job per selected config section, merging values
// with the documented precedence.
func (p *Parser) parseConfigJobs(
	configArg, location, cliName string,
	explicit map[string]struct{},
	cliValues map[string]any,
	doc string,
) ([]*JobDescription, error) {
	if strings.Contains(configArg, encodingSeparator) {
		return nil, fmt.Errorf("%w: %q", ErrEncoding, configArg)
	}
	parts := strings.Split(configArg, sectionSeparator)
	path := parts[0]
	filter := make(map[string]struct{}, len(parts)-1)
	for _, section := range parts[1:] {
		filter[section] = struct{}{}
	}

	defaults, sections, order, err := p.readConfig(path)
	if err != nil {
		return nil, err
	}
	for section := range filter {
		if _, ok := sections[section]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
		}
	}
	if len(filter) > 0 {
		for _, section := range order {
			if _, keep := filter[section]; !keep {
				delete(sections, section)
			}
		}
		order = slicesFilter(order, func(s string) bool {
			_, keep := filter[s]
			return keep
		})
	}
	if len(order) == 0 {
		// Only top-level keys: the whole file is one unnamed job.
		order = []string{defaultSection}
		sections[defaultSection] = map[string]any{}
	}
	if len(order) > 1 && !p.multipleJobs {
		return nil, fmt.Errorf("%w: %s", ErrMultipleSections, path)
	}

	_, nameGiven := explicit["name"]
	var jobs []*JobDescription
	for _, section := range order {
		jobName := section
		if p.multipleJobs {
			if section == defaultSection && nameGiven {
				jobName = cliName
			}
		} else if nameGiven {
			jobName = cliName
		}

		values := make(map[string]any, len(p.order))
		explicitArgs := make(map[string]struct{})
		// Options and Flags always get a value, so jobs built from a config
		// file expose the same keys as jobs built from the command line
		// alone. The pflag value is the declared default or the type's zero.
		for _, norm := range p.order {
			if _, isArg := p.args[norm].(Argument); isArg {
				continue
			}
			values[norm] = cliValues[norm]
		}
		for norm, v := range defaults {
			values[norm] = v
			explicitArgs[norm] = struct{}{}
		}
		for norm, v := range sections[section] {
			values[norm] = v
			explicitArgs[norm] = struct{}{}
		}
		for norm := range explicit {
			explicitArgs[norm] = struct{}{}
			if _, isUserArg := p.args[norm]; isUserArg {
				values[norm] = cliValues[norm]
			}
		}

		for _, norm := range p.order {
			if _, isArg := p.args[norm].(Argument); isArg {
				if _, ok := values[norm]; !ok {
					return nil, fmt.Errorf("%w: %q in job %q", ErrMissingArgument, p.args[norm].argName(), jobName)
				}
			}
		}
		jobs = append(jobs, &JobDescription{
			Name:         jobName,
			Location:     p.jobLocation(location, jobName),
			ExplicitArgs: explicitArgs,
			values:       values,
			docContent:   doc,
		})
	}
	return jobs, nil
}

// readConfig decodes the TOML file into shared top-level values and one
// value map per section, preserving section order.
func (p *Parser) readConfig(path string) (defaults map[string]any, sections map[string]map[string]any, order []string, err error) {
	var raw map[string]any
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse: reading config %s: %w", path, err)
	}

	defaults = make(map[string]any)
	sections = make(map[string]map[string]any)
	for key, value := range raw {
		if table, isTable := value.(map[string]any); isTable {
			converted, err := p.convertSection(table, key)
			if err != nil {
				return nil, nil, nil, err
			}
			sections[key] = converted
			continue
		}
		norm, v, err := p.convertConfigValue(key, value, defaultSection)
		if err != nil {
			return nil, nil, nil, err
		}
		defaults[norm] = v
	}
	for _, key := range md.Keys() {
		if len(key) == 1 {
			if _, isSection := sections[key[0]]; isSection {
				order = append(order, key[0])
			}
		}
	}
	return defaults, sections, order, nil
}

func (p *Parser) convertSection(table map[string]any, section string) (map[string]any, error) {
	out := make(map[string]any, len(table))
	for key, value := range table {
		norm, v, err := p.convertConfigValue(key, value, section)
		if err != nil {
			return nil, err
		}
		out[norm] = v
	}
	return out, nil
}

func (p *Parser) convertConfigValue(key string, value any, section string) (string, any, error) {
	norm := normalizeName(key)
	arg, ok := p.args[norm]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q in section %q", ErrUnknownKey, key, section)
	}
	var (
		kind  Kind
		nargs int
	)
	switch a := arg.(type) {
	case Argument:
		kind, nargs = a.Kind, a.Nargs
	case Option:
		kind, nargs = a.Kind, a.Nargs
	case Flag:
		kind = KindBool
	}
	v, err := convertValue(value, kind, nargs, key)
	if err != nil {
		return "", nil, err
	}
	return norm, v, nil
}

// register adds one declared argument to the flag set. Slice arguments use
// pflag's repeated/comma-separated flag syntax.
func (p *Parser) register(fs *pflag.FlagSet, norm string) {
	arg := p.args[norm]
	name, abbrv, help := arg.argName(), p.abbrvs[norm], arg.argHelp()

	var (
		kind  Kind
		nargs int
		def   any
	)
	switch a := arg.(type) {
	case Flag:
		fs.BoolP(name, abbrv, false, help)
		return
	case Argument:
		kind, nargs = a.Kind, a.Nargs
	case Option:
		kind, nargs = a.Kind, a.Nargs
		if a.Default != nil {
			def, _ = convertValue(a.Default, kind, nargs, name)
		}
	}

	if nargs == 0 {
		switch kind {
		case KindString:
			fs.StringP(name, abbrv, strDef(def), help)
		case KindInt:
			fs.IntP(name, abbrv, scalarDef[int](def), help)
		case KindFloat:
			fs.Float64P(name, abbrv, scalarDef[float64](def), help)
		case KindBool:
			fs.BoolP(name, abbrv, scalarDef[bool](def), help)
		}
		return
	}
	switch kind {
	case KindString:
		fs.StringSliceP(name, abbrv, sliceDef[string](def), help)
	case KindInt:
		fs.IntSliceP(name, abbrv, sliceDef[int](def), help)
	case KindFloat:
		fs.Float64SliceP(name, abbrv, sliceDef[float64](def), help)
	case KindBool:
		fs.BoolSliceP(name, abbrv, sliceDef[bool](def), help)
	}
}

func (p *Parser) cliValue(fs *pflag.FlagSet, norm string) (any, error) {
	arg := p.args[norm]
	name := arg.argName()
	var (
		kind  Kind
		nargs int
	)
	switch a := arg.(type) {
	case Flag:
		return fs.GetBool(name)
	case Argument:
		kind, nargs = a.Kind, a.Nargs
	case Option:
		kind, nargs = a.Kind, a.Nargs
	}
	if nargs == 0 {
		switch kind {
		case KindString:
			return fs.GetString(name)
		case KindInt:
			return fs.GetInt(name)
		case KindFloat:
			return fs.GetFloat64(name)
		default:
			return fs.GetBool(name)
		}
	}
	switch kind {
	case KindString:
		return fs.GetStringSlice(name)
	case KindInt:
		return fs.GetIntSlice(name)
	case KindFloat:
		return fs.GetFloat64Slice(name)
	default:
		return fs.GetBoolSlice(name)
	}
}

// defaultValue returns an Option's default or a Flag's false, nil for
// Arguments and defaultless Options.
func (p *Parser) defaultValue(norm string) any {
	switch a := p.args[norm].(type) {
	case Flag:
		return false
	case Option:
		if a.Default == nil {
			return nil
		}
		v, _ := convertValue(a.Default, a.Kind, a.Nargs, a.Name)
		return v
	default:
		return nil
	}
}

// checkNargs enforces exact value counts after all sources are merged.
func (p *Parser) checkNargs(job *JobDescription) error {
	for _, norm := range p.order {
		var nargs int
		switch a := p.args[norm].(type) {
		case Argument:
			nargs = a.Nargs
		case Option:
			nargs = a.Nargs
		default:
			continue
		}
		if nargs <= 0 {
			continue
		}
		if n := sliceLen(job.values[norm]); n != nargs {
			return fmt.Errorf("%w: %q in job %q should have %d values but has %d",
				ErrNargsCount, p.args[norm].argName(), job.Name, nargs, n)
		}
	}
	return nil
}

func sliceLen(v any) int {
	switch s := v.(type) {
	case []string:
		return len(s)
	case []int:
		return len(s)
	case []float64:
		return len(s)
	case []bool:
		return len(s)
	default:
		return 0
	}
}

// docContent renders the documentation block appended to used-config.toml:
// the command line that was run plus the declared defaults, all as comments.
func (p *Parser) docContent(argv []string) string {
	var sb strings.Builder
	sb.WriteString("# CLI command\n")
	sb.WriteString("# " + strings.Join(append([]string{filepath.Base(os.Args[0])}, argv...), " ") + "\n")
	sb.WriteString("# Default values\n")
	for _, norm := range p.order {
		if v := p.defaultValue(norm); v != nil {
			sb.WriteString(fmt.Sprintf("# %s = %v\n", p.args[norm].argName(), v))
		}
	}
	return sb.String()
}

func strDef(def any) string {
	if s, ok := def.(string); ok {
		return s
	}
	return ""
}

func scalarDef[T any](def any) T {
	var zero T
	if v, ok := def.(T); ok {
		return v
	}
	return zero
}

func sliceDef[T any](def any) []T {
	if v, ok := def.([]T); ok {
		return v
	}
	return nil
}

func slicesFilter(s []string, keep func(string) bool) []string {
	out := s[:0]
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
