// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataset groups benchmark results by endpoint and attaches
// the resource usage measured while each one ran.
//
// A Dataset is the only artifact handed to report renderers, so every
// derived value they need is computed here.
package dataset

import (
	"fmt"
	"time"

	"github.com/frameworkbench/wrkstat/correlate"
	"github.com/frameworkbench/wrkstat/statslog"
	"github.com/frameworkbench/wrkstat/wrkfmt"
)

// A Dataset is a set of benchmark results grouped by endpoint.
type Dataset struct {
	// Endpoints is in the order each endpoint was first seen.
	Endpoints []*Group `json:"endpoints"`
}

// A Group is every result for one endpoint.
type Group struct {
	Path string `json:"path"`
	// Entries has one Entry per framework, in input order.
	Entries []Entry `json:"entries"`
}

// An Entry is one benchmark result together with its derived values.
type Entry struct {
	wrkfmt.Result
	correlate.Usage

	// Start and End are the resolved bounds of the run.
	Start time.Time `json:"window_start"`
	End   time.Time `json:"window_end"`

	// Throughput is Requests / Duration, in requests per second.
	Throughput float64 `json:"throughput"`
	// ErrorCount is the total of all error counters.
	ErrorCount int64 `json:"errors_total"`
}

// A DivisionError reports a result whose throughput is undefined
// because its duration is not positive.
type DivisionError struct {
	Requests float64
	Duration float64
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("cannot compute throughput of %v requests over %vs", e.Requests, e.Duration)
}

// A DuplicateError reports two results for the same framework and
// endpoint.
type DuplicateError struct {
	Framework, Path string
	// First and Second are the positions of the two results.
	First, Second string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: duplicate result for %s %s (first at %s)", e.Second, e.Framework, e.Path, e.First)
}

// Aggregate builds a Dataset from results, correlating each result
// with samples. Results are grouped by Path, in order of first
// appearance, and keep their relative order within a group.
//
// Each framework may appear at most once per endpoint; a second
// result for the same pair is a *DuplicateError.
//
// Aggregate fails if any result cannot be fully resolved; it never
// returns a partial Dataset.
func Aggregate(results []*wrkfmt.Result, samples []statslog.Sample) (*Dataset, error) {
	type key struct{ framework, path string }
	d := &Dataset{Endpoints: []*Group{}}
	groups := make(map[string]*Group)
	seen := make(map[key]*wrkfmt.Result)
	for _, r := range results {
		k := key{r.Framework, r.Path}
		if prev := seen[k]; prev != nil {
			return nil, &DuplicateError{r.Framework, r.Path, pos(prev), pos(r)}
		}
		seen[k] = r
		e, err := newEntry(r, samples)
		if err != nil {
			return nil, fmt.Errorf("%s: %s %s: %w", pos(r), r.Framework, r.Path, err)
		}
		g := groups[r.Path]
		if g == nil {
			g = &Group{Path: r.Path}
			groups[r.Path] = g
			d.Endpoints = append(d.Endpoints, g)
		}
		g.Entries = append(g.Entries, e)
	}
	return d, nil
}

func newEntry(r *wrkfmt.Result, samples []statslog.Sample) (Entry, error) {
	start, end, err := r.Window()
	if err != nil {
		return Entry{}, err
	}
	usage, err := correlate.Window(start, end, samples)
	if err != nil {
		return Entry{}, err
	}
	tput, err := r.Rate()
	if err != nil {
		return Entry{}, &DivisionError{r.Requests, r.Duration}
	}
	return Entry{
		Result:     *r.Clone(),
		Usage:      usage,
		Start:      start,
		End:        end,
		Throughput: tput,
		ErrorCount: r.Errors.Total(),
	}, nil
}

func pos(r *wrkfmt.Result) string {
	file, line := r.Pos()
	if file == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// Group returns the group for endpoint path, or nil if there is none.
func (d *Dataset) Group(path string) *Group {
	for _, g := range d.Endpoints {
		if g.Path == path {
			return g
		}
	}
	return nil
}

// Len returns the total number of entries in d.
func (d *Dataset) Len() int {
	n := 0
	for _, g := range d.Endpoints {
		n += len(g.Entries)
	}
	return n
}
