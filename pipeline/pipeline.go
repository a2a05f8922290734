// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline turns a directory of wrk reports and resource
// logs into a Dataset.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/frameworkbench/wrkstat/dataset"
	"github.com/frameworkbench/wrkstat/inputs"
	"github.com/frameworkbench/wrkstat/statslog"
	"github.com/frameworkbench/wrkstat/wrkfmt"
)

// Options configures Load.
type Options struct {
	// Dir is the directory holding the input files.
	Dir string
	// ReportSuffix and LogSuffix select wrk reports and resource
	// logs by file name. Neither may be a suffix of the other, so
	// no file is read as both.
	ReportSuffix string
	LogSuffix    string
	// Workers bounds the number of files parsed at once. If it is
	// not positive, GOMAXPROCS is used.
	Workers int
	// Logger receives progress messages. If nil, nothing is logged.
	Logger *slog.Logger
}

// DefaultOptions returns the options for loading dir with the
// default file suffixes.
func DefaultOptions(dir string) Options {
	return Options{
		Dir:          dir,
		ReportSuffix: ".txt",
		LogSuffix:    ".log",
		Workers:      runtime.GOMAXPROCS(0),
	}
}

// Load reads every report and resource log in opts.Dir, correlates
// them, and aggregates the results.
//
// Files are parsed concurrently, but results are merged in sorted
// file name order, so the Dataset does not depend on scheduling. The
// first error stops all remaining work.
func Load(ctx context.Context, opts Options) (*dataset.Dataset, error) {
	if strings.HasSuffix(opts.ReportSuffix, opts.LogSuffix) || strings.HasSuffix(opts.LogSuffix, opts.ReportSuffix) {
		return nil, fmt.Errorf("report suffix %q and log suffix %q overlap", opts.ReportSuffix, opts.LogSuffix)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	reports, err := inputs.ReadDir(opts.Dir, opts.ReportSuffix)
	if err != nil {
		return nil, err
	}
	logs, err := inputs.ReadDir(opts.Dir, opts.LogSuffix)
	if err != nil {
		return nil, err
	}
	reportNames, logNames := inputs.Names(reports), inputs.Names(logs)

	// Each worker writes only its own slot.
	results := make([][]*wrkfmt.Result, len(reportNames))
	samples := make([][]statslog.Sample, len(logNames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range reportNames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rs, err := wrkfmt.Parse(name, []byte(reports[name]))
			if err != nil {
				return err
			}
			logger.Debug("parsed report", "file", name, "results", len(rs))
			results[i] = rs
			return nil
		})
	}
	for i, name := range logNames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ss, err := statslog.Parse(name, []byte(logs[name]))
			if err != nil {
				return err
			}
			logger.Debug("parsed resource log", "file", name, "samples", len(ss))
			samples[i] = ss
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var allResults []*wrkfmt.Result
	for _, rs := range results {
		allResults = append(allResults, rs...)
	}
	var allSamples []statslog.Sample
	for _, ss := range samples {
		allSamples = append(allSamples, ss...)
	}

	d, err := dataset.Aggregate(allResults, allSamples)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded dataset",
		"dir", opts.Dir,
		"reports", len(reportNames),
		"logs", len(logNames),
		"results", len(allResults),
		"samples", len(allSamples),
		"endpoints", len(d.Endpoints))
	return d, nil
}
