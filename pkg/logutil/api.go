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

var global = &Logger{}

// Global returns the process-wide logger used by the package-level
// functions.
func Global() *Logger {
	return global
}

// Setup configures the global logger.
func Setup(cfg Config) error {
	return global.Configure(cfg)
}

func Debug(args ...any)    { global.Debug(args...) }
func Info(args ...any)     { global.Info(args...) }
func Warning(args ...any)  { global.Warning(args...) }
func Error(args ...any)    { global.Error(args...) }
func Critical(args ...any) { global.Critical(args...) }
func Section(args ...any)  { global.Section(args...) }

// LogError logs err with a stack trace on the global logger.
func LogError(err error) error {
	return global.LogError(err)
}
