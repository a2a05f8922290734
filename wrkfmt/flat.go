// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrkfmt

import (
	"fmt"
	"math"
	"strings"

	"github.com/frameworkbench/wrkstat/benchunit"
)

// flatFields maps each flat-dialect field name to the function that
// stores its value in a Result.
var flatFields = map[string]func(r *Result, val string) error{
	"framework":  func(r *Result, v string) error { r.Framework = v; return nil },
	"path":       func(r *Result, v string) error { r.Path = normalizePath(v); return nil },
	"start_time": func(r *Result, v string) error { r.StartTime = v; return nil },
	"end_time":   func(r *Result, v string) error { r.EndTime = v; return nil },

	"latency_mean":          func(r *Result, v string) error { return micros(&r.LatencyMean, v) },
	"latency_min":           func(r *Result, v string) error { return micros(&r.LatencyMin, v) },
	"latency_max":           func(r *Result, v string) error { return micros(&r.LatencyMax, v) },
	"latency_stdev":         func(r *Result, v string) error { return micros(&r.LatencyStdev, v) },
	"latency_percentile_90": func(r *Result, v string) error { return micros(&r.LatencyP90, v) },
	"latency_percentile_99": func(r *Result, v string) error { return micros(&r.LatencyP99, v) },
	"duration":              func(r *Result, v string) error { return micros(&r.Duration, v) },

	"requests_num":   func(r *Result, v string) error { return number(&r.Requests, v) },
	"bytes_received": func(r *Result, v string) error { return number(&r.BytesReceived, v) },
	"rps":            func(r *Result, v string) error { return number(&r.RequestsPerSec, v) },

	"errors_connect": func(r *Result, v string) error { return count(&r.Errors.Connect, v) },
	"errors_read":    func(r *Result, v string) error { return count(&r.Errors.Read, v) },
	"errors_write":   func(r *Result, v string) error { return count(&r.Errors.Write, v) },
	"errors_timeout": func(r *Result, v string) error { return count(&r.Errors.Timeout, v) },
	"errors_status":  func(r *Result, v string) error { return count(&r.Errors.Status, v) },
}

// requiredFlatFields must appear in every flat block.
var requiredFlatFields = []string{"framework", "path", "start_time", "end_time"}

// micros parses a time value. wrk's Lua API reports times in
// microseconds, so a bare number is taken to be microseconds.
func micros(dst *float64, v string) (err error) {
	if v != "" && isDigit(v[len(v)-1]) {
		v += "us"
	}
	*dst, err = benchunit.ParseTime(v)
	return
}

func number(dst *float64, v string) (err error) {
	*dst, err = benchunit.ParseCount(v)
	return
}

// count parses an error counter. The Lua hook may print counters as
// floats, but they must be whole and non-negative.
func count(dst *int64, v string) error {
	f, err := benchunit.ParseCount(v)
	if err != nil {
		return err
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return &benchunit.FormatError{Kind: "count", Token: v}
	}
	*dst = int64(f)
	return nil
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// cutField splits a "field: value" line. The field must be non-empty
// and contain no spaces.
func cutField(line string) (key, val string, ok bool) {
	key, val, ok = strings.Cut(line, ":")
	if !ok || key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, strings.TrimSpace(val), true
}

// scanFlat reads the next block of a flat report.
func (r *Reader) scanFlat() bool {
	var res *Result
	var seen map[string]bool
	for r.next() {
		line := strings.TrimSpace(r.text)
		if line == "" {
			if res != nil {
				return r.endFlat(res, seen)
			}
			continue
		}
		key, val, ok := cutField(line)
		if !ok {
			r.err = r.newSyntaxError("expected field: value", nil)
			return false
		}
		set, ok := flatFields[key]
		if !ok {
			r.err = r.newSyntaxError(fmt.Sprintf("unknown field %q", key), nil)
			return false
		}
		if res == nil {
			res = &Result{File: r.fileName, Line: r.line}
			seen = make(map[string]bool)
		}
		if seen[key] {
			r.err = r.newSyntaxError(fmt.Sprintf("duplicate field %q", key), nil)
			return false
		}
		seen[key] = true
		if err := set(res, val); err != nil {
			r.err = r.newSyntaxError("bad "+key, err)
			return false
		}
	}
	if err := r.s.Err(); err != nil {
		return r.finish()
	}
	if res != nil {
		// Final block without a trailing blank line.
		return r.endFlat(res, seen)
	}
	return false
}

// endFlat checks a complete block and makes it the current result.
func (r *Reader) endFlat(res *Result, seen map[string]bool) bool {
	for _, key := range requiredFlatFields {
		if !seen[key] {
			r.err = &SyntaxError{r.fileName, res.Line, fmt.Sprintf("block is missing field %q", key), nil}
			return false
		}
	}
	if err := res.Validate(); err != nil {
		r.err = &SyntaxError{r.fileName, res.Line, "invalid result", err}
		return false
	}
	r.result = res
	return true
}
