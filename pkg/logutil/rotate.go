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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// ErrRotation is returned for rotation commands that are neither a time unit
// (year, month, day, hour) nor a size such as "1 GB", "500 MB" or "20 kB".
var ErrRotation = errors.New("logutil: invalid rotation command")

var sizeRotationRe = regexp.MustCompile(`^(\d+)\s*([a-zA-Z]+)$`)

var sizeUnitBytes = map[string]int64{
	"GB": 1e9,
	"MB": 1e6,
	"kB": 1e3,
}

type timeUnit string

const (
	rotateYear  timeUnit = "year"
	rotateMonth timeUnit = "month"
	rotateDay   timeUnit = "day"
	rotateHour  timeUnit = "hour"
)

// fileSink appends one formatted record to the log file, rotating first when
// needed.
type fileSink interface {
	Write(p []byte) (n int, err error)
	// ActiveFile returns the path records currently go to.
	ActiveFile() string
}

// newFileSink parses the rotation command and builds the matching sink.
func newFileSink(path, rotation string) (fileSink, error) {
	rotation = strings.TrimSpace(rotation)
	if rotation == "" {
		return &plainSink{path: path}, nil
	}
	switch unit := timeUnit(rotation); unit {
	case rotateYear, rotateMonth, rotateDay, rotateHour:
		return &timeSink{path: path, unit: unit, now: time.Now}, nil
	}

	m := sizeRotationRe.FindStringSubmatch(rotation)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrRotation, rotation)
	}
	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || value <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive in %q", ErrRotation, rotation)
	}
	unitBytes, ok := sizeUnitBytes[m[2]]
	if !ok {
		return nil, fmt.Errorf("%w: unknown unit %q", ErrRotation, m[2])
	}
	// lumberjack counts megabytes, so smaller limits round up to 1 MB.
	maxMB := int((value*unitBytes + 1e6 - 1) / 1e6)
	return &sizeSink{
		path: path,
		lj: &lumberjack.Logger{
			Filename: path,
			MaxSize:  maxMB,
		},
	}, nil
}

// plainSink appends to a single file, opening it per write so that external
// rotation or deletion of the file never wedges the logger.
type plainSink struct {
	path string
}

func (s *plainSink) ActiveFile() string { return s.path }

func (s *plainSink) Write(p []byte) (int, error) {
	return appendFile(s.path, p)
}

// sizeSink delegates rotation to lumberjack.
type sizeSink struct {
	path string
	lj   *lumberjack.Logger
}

func (s *sizeSink) ActiveFile() string { return s.path }

func (s *sizeSink) Write(p []byte) (int, error) {
	return s.lj.Write(p)
}

// timeSink stamps the current period into the file name, e.g.
// log.20220131.log for day rotation, switching files when the period rolls
// over.
type timeSink struct {
	path string
	unit timeUnit
	now  func() time.Time
}

func (s *timeSink) ActiveFile() string {
	ext := filepath.Ext(s.path)
	base := strings.TrimSuffix(s.path, ext)
	return base + "." + s.stamp() + ext
}

func (s *timeSink) stamp() string {
	now := s.now()
	switch s.unit {
	case rotateYear:
		return now.Format("2006")
	case rotateMonth:
		return now.Format("200601")
	case rotateDay:
		return now.Format("20060102")
	default:
		return now.Format("20060102_15")
	}
}

func (s *timeSink) Write(p []byte) (int, error) {
	return appendFile(s.ActiveFile(), p)
}

func appendFile(path string, p []byte) (int, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := f.Write(p)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
