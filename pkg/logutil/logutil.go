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

// Package logutil provides a leveled logger that writes every record both to
// a colored console sink and to an optional, optionally rotated log file.
// Records are laid out in aligned columns with multi-line messages
// hang-indented under the first line:
//
//	2022-01-31 12:00:00.000    INFO        first line
//	                                       second line
package logutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/peleiden/pelutils"
)

var (
	ErrCollecting = errors.New("logutil: logger cannot be reconfigured while collecting")
	ErrBadInput   = errors.New("logutil: input not parsable as yes/no")
)

const spacing = "    "

// Config configures a Logger.
type Config struct {
	// FilePath is the log file; empty means console only. Missing parent
	// directories are created.
	FilePath string
	// Append keeps an existing log file instead of truncating it.
	Append bool
	// PrintLevel is the minimum level echoed to the console. The zero
	// value is InfoLevel; SilentLevel disables the console.
	PrintLevel Level
	// DefaultSep joins the arguments of a single logging call, "\n" when
	// empty.
	DefaultSep string
	// Rotation is "" for none, "year"/"month"/"day"/"hour" for time-based
	// rotation, or a size such as "1 GB", "500 MB" or "20 kB".
	Rotation string
	// ConsoleOut overrides the console sink, mainly for tests.
	ConsoleOut io.Writer
	// Stdin overrides the input source of Input, mainly for tests.
	Stdin io.Reader
}

// Logger writes leveled, column-aligned records. The zero value works as a
// console-only logger with default settings; call Configure to attach a
// file. A Logger is safe for concurrent use.
type Logger struct {
	mu         sync.Mutex
	configured bool
	sep        string
	printLevel zap.AtomicLevel
	// window is a temporary level floor installed by Level, nil when off.
	window  *Level
	console io.Writer
	stdin   *bufio.Reader
	sink    fileSink

	collecting     bool
	collectedFile  []string
	collectedPrint []string
}

// New returns a Logger with the given configuration.
func New(cfg Config) (*Logger, error) {
	l := &Logger{}
	if err := l.Configure(cfg); err != nil {
		return nil, err
	}
	return l, nil
}

// Configure (re)configures the logger. Reconfiguration is allowed at any
// time except while collecting.
func (l *Logger) Configure(cfg Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.collecting {
		return ErrCollecting
	}

	l.sink = nil
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return err
		}
		sink, err := newFileSink(cfg.FilePath, cfg.Rotation)
		if err != nil {
			return err
		}
		if !cfg.Append {
			if err := os.Remove(sink.ActiveFile()); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
		// Touch the file so an empty run still leaves a log behind.
		if _, err := sink.Write(nil); err != nil {
			return err
		}
		l.sink = sink
	}

	l.sep = cfg.DefaultSep
	if l.sep == "" {
		l.sep = "\n"
	}
	l.printLevel = zap.NewAtomicLevelAt(cfg.PrintLevel)
	l.console = cfg.ConsoleOut
	if l.console == nil {
		l.console = color.Output
	}
	stdin := cfg.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	l.stdin = bufio.NewReader(stdin)
	l.configured = true
	return nil
}

// ensureLocked installs console-only defaults on a zero Logger.
func (l *Logger) ensureLocked() {
	if !l.configured {
		l.sep = "\n"
		l.printLevel = zap.NewAtomicLevelAt(InfoLevel)
		l.console = color.Output
		l.stdin = bufio.NewReader(os.Stdin)
		l.configured = true
	}
}

type printMode int

const (
	printByLevel printMode = iota
	printNever
)

func (l *Logger) log(level Level, withInfo bool, mode printMode, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLocked()
	if l.window != nil && level < *l.window {
		return
	}

	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprint(arg)
	}
	msg := strings.Join(parts, l.sep)
	plain, colored := formatRecord(level, withInfo, msg)

	doPrint := mode == printByLevel && l.printLevel.Enabled(level)
	if l.collecting {
		l.collectedFile = append(l.collectedFile, plain)
		if doPrint {
			l.collectedPrint = append(l.collectedPrint, colored)
		}
		return
	}
	if l.sink != nil {
		l.sink.Write([]byte(plain + "\n")) //nolint:errcheck
	}
	if doPrint {
		fmt.Fprintln(l.console, colored)
	}
}

// formatRecord lays the message out in columns, once plain for the file and
// once colored for the console. Continuation lines hang under the message
// column; withInfo=false drops the timestamp and level but keeps alignment.
func formatRecord(level Level, withInfo bool, msg string) (plain, colored string) {
	ts := pelutils.GetTimestamp()
	hang := strings.Repeat(" ", len(ts)) + spacing + strings.Repeat(" ", maxLevelLen) + spacing + " "
	lines := strings.Split(msg, "\n")

	var pb, cb strings.Builder
	if withInfo && msg != "" {
		name := levelName(level)
		padded := name + strings.Repeat(" ", maxLevelLen-len(name))
		first := strings.TrimRight(lines[0], " ")
		pb.WriteString(ts + spacing + padded + spacing + " " + first)
		cb.WriteString(timestampColor.Sprint(ts) + spacing + colorLevel(level, padded) + spacing + " " + first)
	} else {
		first := strings.TrimRight(hang+lines[0], " ")
		pb.WriteString(first)
		cb.WriteString(first)
	}
	for _, line := range lines[1:] {
		s := "\n" + strings.TrimRight(hang+line, " ")
		if strings.TrimSpace(s) == "" {
			s = "\n"
		}
		pb.WriteString(s)
		cb.WriteString(s)
	}
	return pb.String(), cb.String()
}

// Log logs the arguments joined by the default separator at the given level.
func (l *Logger) Log(level Level, args ...any) {
	l.log(level, true, printByLevel, args...)
}

// LogNoInfo logs without the timestamp and level columns, keeping the
// message aligned with ordinary records.
func (l *Logger) LogNoInfo(level Level, args ...any) {
	l.log(level, false, printByLevel, args...)
}

func (l *Logger) Debug(args ...any)    { l.log(DebugLevel, true, printByLevel, args...) }
func (l *Logger) Info(args ...any)     { l.log(InfoLevel, true, printByLevel, args...) }
func (l *Logger) Warning(args ...any)  { l.log(WarningLevel, true, printByLevel, args...) }
func (l *Logger) Error(args ...any)    { l.log(ErrorLevel, true, printByLevel, args...) }
func (l *Logger) Critical(args ...any) { l.log(CriticalLevel, true, printByLevel, args...) }

// Section logs a section header preceded by a blank line.
func (l *Logger) Section(args ...any) {
	l.log(SectionLevel, false, printByLevel, "")
	l.log(SectionLevel, true, printByLevel, args...)
}

// Level raises the level floor until the returned restore function is
// called; records below lv are dropped entirely in between.
//
//	restore := log.Level(logutil.WarningLevel)
//	defer restore()
func (l *Logger) Level(lv Level) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.window = &lv
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.window = nil
	}
}

// NoLog disables all logging until the returned restore function is called.
func (l *Logger) NoLog() func() {
	return l.Level(SilentLevel)
}

// Collect starts buffering records so that logging from concurrent jobs can
// be written as one contiguous block. Flush writes and clears the buffer.
func (l *Logger) Collect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLocked()
	l.collecting = true
}

// Flush writes collected records in one batch and leaves collect mode.
func (l *Logger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var err error
	if len(l.collectedFile) > 0 && l.sink != nil {
		_, err = l.sink.Write([]byte(strings.Join(l.collectedFile, "\n") + "\n"))
	}
	if len(l.collectedPrint) > 0 {
		fmt.Fprintln(l.console, strings.Join(l.collectedPrint, "\n"))
	}
	l.collectedFile = nil
	l.collectedPrint = nil
	l.collecting = false
	return err
}

// LogError logs a non-nil error together with the current stack trace at
// Critical and returns the error unchanged.
func (l *Logger) LogError(err error) error {
	if err == nil {
		return nil
	}
	stack := zap.Stack("stacktrace").String
	l.log(CriticalLevel, true, printByLevel,
		fmt.Sprintf("%T was raised with the following stacktrace:", err), err.Error(), stack)
	return err
}

// WrapErr runs fn and logs any returned error with its stack trace before
// passing it on.
func (l *Logger) WrapErr(fn func() error) error {
	return l.LogError(fn())
}

// Input prompts on the console and returns one line of user input. Both the
// prompt and the response go to the log file only.
func (l *Logger) Input(prompt string) (string, error) {
	l.log(InfoLevel, true, printNever, fmt.Sprintf("Prompt: %q", prompt))
	l.mu.Lock()
	fmt.Fprint(l.console, prompt)
	line, err := l.stdin.ReadString('\n')
	l.mu.Unlock()
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	l.log(InfoLevel, true, printNever, fmt.Sprintf("Input:  %q", line))
	return line, nil
}

// ParseBoolInput interprets a yes/no answer; any prefix of "yes" or "no"
// counts regardless of case, and an empty answer gives the default.
func ParseBoolInput(answer string, def bool) (bool, error) {
	answer = strings.ToLower(strings.TrimSpace(answer))
	switch {
	case answer == "":
		return def, nil
	case strings.HasPrefix("yes", answer):
		return true, nil
	case strings.HasPrefix("no", answer):
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrBadInput, answer)
}

// LogRepo logs the enclosing git repository and its HEAD commit at Debug,
// which is handy for tying experiment logs to code versions.
func (l *Logger) LogRepo() {
	repo, commit, err := pelutils.GetRepo("")
	if err != nil {
		l.Debug("Unable to find repository that code was executed in")
		return
	}
	l.Debug("Executing in repository: "+repo, "Commit: "+commit)
}
