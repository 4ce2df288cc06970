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

package logutil

import (
	"github.com/fatih/color"
	"go.uber.org/zap/zapcore"
)

// Level is the record severity, ordered Debug < Info < Warning < Error <
// Critical < Section. Section outranks everything so that section headers
// survive any level window.
type Level = zapcore.Level

const (
	DebugLevel    Level = zapcore.DebugLevel
	InfoLevel     Level = zapcore.InfoLevel
	WarningLevel  Level = zapcore.WarnLevel
	ErrorLevel    Level = zapcore.ErrorLevel
	CriticalLevel Level = zapcore.DPanicLevel
	// SectionLevel sits above all builtin zapcore levels.
	SectionLevel Level = zapcore.Level(6)

	// SilentLevel is above every loggable level; use it as PrintLevel to
	// silence the console entirely.
	SilentLevel Level = SectionLevel + 1
)

// maxLevelLen is the width of the level column.
const maxLevelLen = len("CRITICAL")

func levelName(lv Level) string {
	switch lv {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarningLevel:
		return "WARNING"
	case ErrorLevel:
		return "ERROR"
	case CriticalLevel:
		return "CRITICAL"
	case SectionLevel:
		return "SECTION"
	default:
		return lv.CapitalString()
	}
}

var (
	timestampColor = color.New(color.FgHiCyan)
	levelColors    = map[Level]*color.Color{
		DebugLevel:    color.New(color.FgHiBlue),
		InfoLevel:     color.New(color.FgGreen),
		WarningLevel:  color.New(color.FgYellow),
		ErrorLevel:    color.New(color.FgRed),
		CriticalLevel: color.New(color.FgHiRed),
		SectionLevel:  color.New(color.FgHiYellow),
	}
)

func colorLevel(lv Level, s string) string {
	if c, ok := levelColors[lv]; ok {
		return c.Sprint(s)
	}
	return s
}
