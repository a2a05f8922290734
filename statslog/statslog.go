// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package statslog reads resource usage logs recorded by polling
// "docker stats" while a benchmark runs.
//
// Each line of a log has four comma-separated fields:
//
//	2024-03-01T10:00:05,153.20%,182.4MiB / 7.675GiB,2.32%
//
// giving the sample time, the CPU usage of the container (100% per
// core), the used and total memory, and the memory percentage, which
// is ignored.
package statslog

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/frameworkbench/wrkstat/benchunit"
)

// A Sample is one resource usage observation.
type Sample struct {
	Time time.Time
	// CPU is the CPU usage in percent, from 0 to 100 times the
	// number of cores.
	CPU float64
	// Memory is the used memory in MiB.
	Memory float64
}

// A SyntaxError reports a malformed log line.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
	Err      error
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s:%d: %s: %v", e.FileName, e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Parse parses the log in data, read from fileName, and returns its
// samples in file order. Blank lines are skipped. If any line is
// malformed, Parse returns a *SyntaxError and no samples.
func Parse(fileName string, data []byte) ([]Sample, error) {
	var samples []Sample
	s := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}
		sample, msg, err := parseLine(text)
		if msg != "" {
			return nil, &SyntaxError{fileName, line, msg, err}
		}
		samples = append(samples, sample)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%s:%d: %w", fileName, line, err)
	}
	return samples, nil
}

// parseLine parses one log line. On failure it returns a non-empty
// message and the underlying error, if any.
func parseLine(text string) (s Sample, msg string, err error) {
	f := strings.Split(text, ",")
	if len(f) != 4 {
		return s, fmt.Sprintf("want 4 fields, got %d", len(f)), nil
	}
	for i := range f {
		f[i] = strings.TrimSpace(f[i])
	}

	if s.Time, err = benchunit.ParseTimestamp(f[0]); err != nil {
		return s, "bad time field", err
	}
	if s.CPU, err = benchunit.ParsePercent(f[1]); err != nil {
		return s, "bad cpu field", err
	}

	used, _, ok := strings.Cut(f[2], " / ")
	if !ok {
		return s, "bad memory field", &benchunit.FormatError{Kind: "memory", Token: f[2]}
	}
	if s.Memory, err = benchunit.ParseMemory(strings.TrimSpace(used)); err != nil {
		return s, "bad memory field", err
	}
	if s.CPU < 0 || s.Memory < 0 {
		return s, "negative usage", nil
	}
	return s, "", nil
}
