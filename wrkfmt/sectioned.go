// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrkfmt

import (
	"fmt"
	"strings"

	"github.com/frameworkbench/wrkstat/benchunit"
)

const (
	frameworkPrefix = "Starting tests for "
	startPrefix     = "Start "
	endPrefix       = "End test "
)

// scanSectioned reads the next "Start ... End test" section.
func (r *Reader) scanSectioned() bool {
	for r.next() {
		line := r.text
		if rest, ok := strings.CutPrefix(line, frameworkPrefix); ok {
			f := strings.Fields(rest)
			if len(f) == 0 {
				r.err = r.newSyntaxError("missing framework name", nil)
				return false
			}
			r.framework = f[0]
			continue
		}
		if !strings.HasPrefix(line, startPrefix) {
			continue
		}
		res, err := r.readSection()
		if err != nil {
			r.err = err
			return false
		}
		r.result = res
		return true
	}
	return r.finish()
}

// readSection reads one test section. The current line is its
// "Start <test> <time>" marker.
func (r *Reader) readSection() (*Result, error) {
	f := strings.Fields(r.text)
	if len(f) != 3 {
		return nil, r.newSyntaxError("malformed test marker", nil)
	}
	test, startTime := f[1], f[2]
	if r.framework == "" {
		return nil, r.newSyntaxError(fmt.Sprintf("test %s started before any %q line", test, strings.TrimSpace(frameworkPrefix)), nil)
	}
	res := &Result{
		Framework: r.framework,
		Path:      normalizePath(test),
		StartTime: startTime,
		File:      r.fileName,
		Line:      r.line,
	}
	unterminated := &SyntaxError{r.fileName, res.Line, fmt.Sprintf("test %s has no %q marker", test, strings.TrimSpace(endPrefix)), nil}

	var block []string
	for {
		if !r.next() {
			if err := r.s.Err(); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
			}
			return nil, unterminated
		}
		if end, ok := strings.CutPrefix(r.text, endPrefix); ok {
			res.EndTime = strings.TrimSpace(end)
			if res.EndTime == "" {
				return nil, r.newSyntaxError("malformed end marker", nil)
			}
			break
		}
		if strings.HasPrefix(r.text, startPrefix) || strings.HasPrefix(r.text, frameworkPrefix) {
			return nil, unterminated
		}
		block = append(block, r.text)
	}

	if err := parseBlock(res, block); err != nil {
		line := res.Line
		if err.idx >= 0 {
			line += 1 + err.idx
		}
		return nil, &SyntaxError{r.fileName, line, err.msg, err.err}
	}
	if err := res.Validate(); err != nil {
		return nil, &SyntaxError{r.fileName, res.Line, "invalid result for test " + test, err}
	}
	return res, nil
}

// A blockError is a parse failure at line idx of a wrk block, or of
// the whole block if idx is -1.
type blockError struct {
	idx int
	msg string
	err error
}

// parseBlock parses the output of one wrk run into res.
func parseBlock(res *Result, lines []string) *blockError {
	var haveLatency, haveRPS bool
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Latency Distribution"):
			// Rows continue until a line without a percent sign.
			for i+1 < len(lines) && strings.Contains(lines[i+1], "%") {
				i++
				row := strings.Fields(lines[i])
				if len(row) != 2 {
					return &blockError{i, "malformed latency distribution row", nil}
				}
				pct, err := benchunit.ParsePercent(row[0])
				if err != nil {
					return &blockError{i, "malformed latency distribution row", err}
				}
				lat, err := benchunit.ParseTime(row[1])
				if err != nil {
					return &blockError{i, "malformed latency distribution row", err}
				}
				res.Distribution = append(res.Distribution, Percentile{pct, lat})
			}

		case f[0] == "Latency":
			var err error
			res.LatencyMean, res.LatencyStdev, res.LatencyMax, res.LatencyStdevPct, err = parseThreadStats(f, benchunit.ParseTime)
			if err != nil {
				return &blockError{i, "malformed Latency line", err}
			}
			haveLatency = true

		case f[0] == "Req/Sec":
			var err error
			res.RPSMean, res.RPSStdev, res.RPSMax, res.RPSStdevPct, err = parseThreadStats(f, benchunit.ParseCount)
			if err != nil {
				return &blockError{i, "malformed Req/Sec line", err}
			}
			haveRPS = true

		case strings.Contains(line, " requests in "):
			// 128000 requests in 10.00s, 20.00MB read
			f = strings.Fields(strings.ReplaceAll(line, ",", ""))
			if len(f) < 4 {
				return &blockError{i, "malformed summary line", nil}
			}
			var err error
			if res.Requests, err = benchunit.ParseCount(f[0]); err != nil {
				return &blockError{i, "malformed summary line", err}
			}
			if res.Duration, err = benchunit.ParseTime(f[3]); err != nil {
				return &blockError{i, "malformed summary line", err}
			}
			if len(f) >= 6 && f[5] == "read" {
				if res.BytesReceived, err = benchunit.ParseBytes(f[4]); err != nil {
					return &blockError{i, "malformed summary line", err}
				}
			}

		case f[0] == "Requests/sec:":
			if len(f) != 2 {
				return &blockError{i, "malformed Requests/sec line", nil}
			}
			var err error
			if res.RequestsPerSec, err = benchunit.ParseCount(f[1]); err != nil {
				return &blockError{i, "malformed Requests/sec line", err}
			}

		case f[0] == "Transfer/sec:":
			if len(f) != 2 {
				return &blockError{i, "malformed Transfer/sec line", nil}
			}
			var err error
			if res.TransferPerSec, err = benchunit.ParseBytes(f[1]); err != nil {
				return &blockError{i, "malformed Transfer/sec line", err}
			}

		case strings.HasPrefix(line, "Socket errors:"):
			if err := parseSocketErrors(line, &res.Errors); err != nil {
				return &blockError{i, "malformed Socket errors line", err}
			}

		case strings.HasPrefix(line, "Non-2xx or 3xx responses:"):
			n, err := benchunit.ParseInt(f[len(f)-1])
			if err != nil {
				return &blockError{i, "malformed Non-2xx line", err}
			}
			res.Errors.Status = n

		case f[0] == "Running" && len(f) >= 3 && f[len(f)-2] == "@":
			res.URL = f[len(f)-1]
		}
	}

	if !haveLatency {
		return &blockError{-1, "missing Latency line", nil}
	}
	if !haveRPS {
		return &blockError{-1, "missing Req/Sec line", nil}
	}
	res.LatencyP90, _ = res.Percentile(90)
	res.LatencyP99, _ = res.Percentile(99)
	return nil
}

// parseThreadStats parses a wrk thread statistics line of the form
//
//	<label> <avg> <stdev> <max> <+/- stdev%>
func parseThreadStats(f []string, parse func(string) (float64, error)) (avg, stdev, max, stdevPct float64, err error) {
	if len(f) != 5 {
		err = fmt.Errorf("want 4 values, got %d", len(f)-1)
		return
	}
	if avg, err = parse(f[1]); err != nil {
		return
	}
	if stdev, err = parse(f[2]); err != nil {
		return
	}
	if max, err = parse(f[3]); err != nil {
		return
	}
	stdevPct, err = benchunit.ParsePercent(f[4])
	return
}

// parseSocketErrors parses
//
//	Socket errors: connect 1, read 2, write 3, timeout 4
func parseSocketErrors(line string, e *Errors) error {
	f := strings.Fields(strings.ReplaceAll(line, ",", ""))
	if len(f) != 10 {
		return fmt.Errorf("want 4 counters, got %d fields", len(f)-2)
	}
	for i, c := range []struct {
		label string
		dst   *int64
	}{
		{"connect", &e.Connect},
		{"read", &e.Read},
		{"write", &e.Write},
		{"timeout", &e.Timeout},
	} {
		if f[2+2*i] != c.label {
			return fmt.Errorf("want %q counter, got %q", c.label, f[2+2*i])
		}
		n, err := benchunit.ParseInt(f[3+2*i])
		if err != nil {
			return err
		}
		*c.dst = n
	}
	return nil
}
