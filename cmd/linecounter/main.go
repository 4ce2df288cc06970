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

// linecounter counts non-blank lines per file extension under one or more
// directories and prints the result as a table sorted by line count.
//
//	linecounter out --dirs src,tests --extensions .go,.py --log
package main

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/peleiden/pelutils/pkg/concurrent"
	"github.com/peleiden/pelutils/pkg/format"
	"github.com/peleiden/pelutils/pkg/logutil"
	"github.com/peleiden/pelutils/pkg/parse"
	"github.com/peleiden/pelutils/pkg/ticktock"
)

func main() {
	parser, err := parse.NewParser("Count non-blank lines per file extension", false,
		parse.Option{Name: "dirs", Kind: parse.KindString, Nargs: parse.NargsAny, Default: []string{"."},
			Help: "Directories to search"},
		parse.Option{Name: "extensions", Kind: parse.KindString, Nargs: parse.NargsAny,
			Help: "Only count files with these extensions, e.g. .go,.py"},
		parse.Flag{Name: "log", Help: "Also write a log file to the job directory"},
	)
	if err != nil {
		logutil.Critical(err)
		os.Exit(1)
	}
	jobs, err := parser.Parse(os.Args[1:])
	if err != nil {
		logutil.Critical(err)
		os.Exit(1)
	}
	if err := run(jobs[0]); err != nil {
		os.Exit(1)
	}
}

func run(job *parse.JobDescription) error {
	cfg := logutil.Config{}
	if job.Bool("log") {
		cfg.FilePath = filepath.Join(job.Location, "linecounter.log")
	}
	if err := logutil.Setup(cfg); err != nil {
		return logutil.LogError(err)
	}
	log := logutil.Global()
	log.LogRepo()

	tt := ticktock.New()
	endTotal := tt.MustProfile("Count lines")

	var extensions map[string]struct{}
	if job.Explicit("extensions") {
		extensions = make(map[string]struct{})
		for _, ext := range job.Strs("extensions") {
			extensions[strings.ToLower(ext)] = struct{}{}
		}
	}

	endCollect := tt.MustProfile("Collect files")
	var files []string
	for _, dir := range job.Strs("dirs") {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if extensions != nil {
				if _, ok := extensions[strings.ToLower(filepath.Ext(path))]; !ok {
					return nil
				}
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return logutil.LogError(err)
		}
	}
	endCollect()
	log.Info(format.Commas(int64(len(files))) + " files found")

	type count struct {
		files, lines int64
	}
	var (
		mu       sync.Mutex
		byExt    = make(map[string]*count)
		endCount = tt.MustProfile("Count")
	)
	err := concurrent.ForEach(len(files), runtime.GOMAXPROCS(0), func(i int) error {
		lines, err := countLines(files[i])
		if err != nil {
			// Unreadable files are reported but do not fail the run.
			log.Warning("Skipping " + files[i] + ": " + err.Error())
			return nil
		}
		ext := strings.ToLower(filepath.Ext(files[i]))
		if ext == "" {
			ext = "(none)"
		}
		mu.Lock()
		c, ok := byExt[ext]
		if !ok {
			c = &count{}
			byExt[ext] = c
		}
		c.files++
		c.lines += lines
		mu.Unlock()
		return nil
	})
	endCount()
	if err != nil {
		return logutil.LogError(err)
	}
	endTotal()

	exts := make([]string, 0, len(byExt))
	var totalFiles, totalLines int64
	for ext, c := range byExt {
		exts = append(exts, ext)
		totalFiles += c.files
		totalLines += c.lines
	}
	sort.Slice(exts, func(i, j int) bool {
		return byExt[exts[i]].lines > byExt[exts[j]].lines
	})

	table := format.NewTable()
	table.AddHeader("Extension", "Files", "Lines")
	for _, ext := range exts {
		table.AddRow(ext, format.Commas(byExt[ext].files), format.Commas(byExt[ext].lines))
	}
	table.AddHline()
	table.AddRow("Total", format.Commas(totalFiles), format.Commas(totalLines))

	log.Section("Line counts")
	log.LogNoInfo(logutil.InfoLevel, table.String())
	log.Debug(tt.String())
	return nil
}

// countLines counts the lines of a file that contain non-whitespace.
func countLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var n int64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if len(strings.TrimSpace(sc.Text())) > 0 {
			n++
		}
	}
	return n, sc.Err()
}
