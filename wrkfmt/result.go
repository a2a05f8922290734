// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wrkfmt reads the reports written by the HTTP benchmarking
// tool wrk and the scripts that drive it.
//
// Two report dialects are supported and told apart by their content:
//
// The sectioned dialect is wrk's own human-readable output, framed by
// marker lines written by the driving script:
//
//	Starting tests for <framework> ...
//	Start <test> <start-time>
//	Running 10s test @ http://localhost:8000/users
//	  ...wrk --latency output...
//	End test <end-time>
//
// The flat dialect is written by a wrk Lua done() hook. It is a
// sequence of blank-line separated blocks of "field: value" lines,
// one block per run, with latencies and durations in microseconds.
//
// Both dialects produce the same Result, with all times normalized to
// seconds.
//
// The reader is modeled on bufio.Scanner; see Reader.
package wrkfmt

import (
	"fmt"
	"sort"
	"time"

	"github.com/frameworkbench/wrkstat/benchunit"
)

// A Result is one completed wrk run against one endpoint of one
// framework.
//
// A Result is not modified after it is returned by a Reader. Derived
// values are computed by methods.
type Result struct {
	Framework string `json:"framework"`
	// Path is the endpoint under test, without a query string or
	// leading "/".
	Path string `json:"path"`
	// URL is the target URL reported by wrk, if known.
	URL string `json:"url,omitempty"`

	// StartTime and EndTime are the textual bounds of the run, as
	// written by the driving script. See Window.
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	// Latency statistics, in seconds.
	LatencyMean     float64 `json:"latency_mean"`
	LatencyMin      float64 `json:"latency_min"`
	LatencyMax      float64 `json:"latency_max"`
	LatencyStdev    float64 `json:"latency_stdev"`
	LatencyStdevPct float64 `json:"latency_stdev_percent"`
	LatencyP90      float64 `json:"latency_percentile_90"`
	LatencyP99      float64 `json:"latency_percentile_99"`

	// Distribution is wrk's latency distribution table, in
	// increasing order of Percent, if the report had one.
	Distribution []Percentile `json:"latency_distribution,omitempty"`

	// Per-thread requests/sec statistics.
	RPSMean     float64 `json:"rps_avg"`
	RPSMax      float64 `json:"rps_max"`
	RPSStdev    float64 `json:"rps_stdev"`
	RPSStdevPct float64 `json:"rps_stdev_percent"`

	// RequestsPerSec and TransferPerSec are the headline rates
	// printed by wrk. TransferPerSec is in bytes/sec.
	RequestsPerSec float64 `json:"requests_per_sec"`
	TransferPerSec float64 `json:"transfer_per_sec"`

	Requests      float64 `json:"requests_num"`
	BytesReceived float64 `json:"bytes_received"`
	// Duration is the length of the run in seconds.
	Duration float64 `json:"duration_sec"`

	Errors Errors `json:"errors"`

	// File and Line record where this Result was read from.
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// A Percentile is one row of a latency distribution.
type Percentile struct {
	Percent float64 `json:"percent"`
	Latency float64 `json:"latency"` // seconds
}

// Errors counts failed requests by category.
type Errors struct {
	Connect int64 `json:"connect"`
	Read    int64 `json:"read"`
	Write   int64 `json:"write"`
	Timeout int64 `json:"timeout"`
	// Status counts responses with a non-2xx/3xx status.
	Status int64 `json:"status"`
}

// Total returns the sum of all error counters.
func (e Errors) Total() int64 {
	return e.Connect + e.Read + e.Write + e.Timeout + e.Status
}

// Pos returns the file name and line number of a Result that was read
// by a Reader. For Results that were not read from a file, it returns
// "", 0.
func (r *Result) Pos() (fileName string, line int) {
	return r.File, r.Line
}

// Clone makes a copy of Result that shares no state with r.
func (r *Result) Clone() *Result {
	r2 := *r
	r2.Distribution = append([]Percentile(nil), r.Distribution...)
	return &r2
}

// Percentile returns the latency at pct percent from the latency
// distribution, and whether the distribution has that row.
func (r *Result) Percentile(pct float64) (float64, bool) {
	for _, p := range r.Distribution {
		if p.Percent == pct {
			return p.Latency, true
		}
	}
	return 0, false
}

// Window parses StartTime and EndTime. It fails with a
// *benchunit.FormatError if either is malformed, and fails if the
// run ends before it starts.
func (r *Result) Window() (start, end time.Time, err error) {
	start, err = benchunit.ParseTimestamp(r.StartTime)
	if err != nil {
		return
	}
	end, err = benchunit.ParseTimestamp(r.EndTime)
	if err != nil {
		return
	}
	if end.Before(start) {
		err = fmt.Errorf("run ends at %s before it starts at %s", r.EndTime, r.StartTime)
	}
	return
}

// Rate returns the mean request rate over the whole run, in requests
// per second. Duration must be positive.
func (r *Result) Rate() (float64, error) {
	if r.Duration <= 0 {
		return 0, fmt.Errorf("duration %v is not positive", r.Duration)
	}
	return r.Requests / r.Duration, nil
}

// Validate checks the invariants of a parsed Result: counts are
// non-negative and latency percentiles do not decrease as the
// percentile increases.
func (r *Result) Validate() error {
	counts := []struct {
		name string
		v    float64
	}{
		{"requests", r.Requests},
		{"bytes received", r.BytesReceived},
		{"duration", r.Duration},
		{"connect errors", float64(r.Errors.Connect)},
		{"read errors", float64(r.Errors.Read)},
		{"write errors", float64(r.Errors.Write)},
		{"timeout errors", float64(r.Errors.Timeout)},
		{"status errors", float64(r.Errors.Status)},
	}
	for _, c := range counts {
		if c.v < 0 {
			return fmt.Errorf("negative %s: %v", c.name, c.v)
		}
	}

	if !sort.SliceIsSorted(r.Distribution, func(i, j int) bool {
		return r.Distribution[i].Percent < r.Distribution[j].Percent
	}) {
		return fmt.Errorf("latency distribution is not in percentile order")
	}
	for i := 1; i < len(r.Distribution); i++ {
		prev, cur := r.Distribution[i-1], r.Distribution[i]
		if cur.Latency < prev.Latency {
			return fmt.Errorf("%v%% latency %v is below %v%% latency %v", cur.Percent, cur.Latency, prev.Percent, prev.Latency)
		}
	}
	if r.LatencyP99 != 0 && r.LatencyP99 < r.LatencyP90 {
		return fmt.Errorf("99%% latency %v is below 90%% latency %v", r.LatencyP99, r.LatencyP90)
	}
	return nil
}
