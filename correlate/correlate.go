// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package correlate joins resource usage samples to the time window
// of a benchmark run.
//
// Samples are treated as instantaneous points: each sample inside the
// window counts once, regardless of how far apart samples are.
package correlate

import (
	"fmt"
	"time"

	"github.com/aclements/go-moremath/stats"

	"github.com/frameworkbench/wrkstat/statslog"
)

// Usage summarizes the resource samples recorded during one run.
type Usage struct {
	CPUMean      float64 `json:"cpu_avg_percent"`
	CPUMedian    float64 `json:"cpu_median_percent"`
	MemoryMedian float64 `json:"memory_median_mb"`
	MemoryMax    float64 `json:"memory_max_mb"`
	// Samples is the number of samples inside the window.
	Samples int `json:"samples"`
}

// An EmptyWindowError reports a benchmark window that contains no
// resource samples. Reporting zero usage instead would be
// indistinguishable from a measured idle server.
type EmptyWindowError struct {
	Start, End time.Time
}

func (e *EmptyWindowError) Error() string {
	return fmt.Sprintf("no resource samples between %s and %s", e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// Window summarizes the samples whose time lies in [start, end],
// inclusive at both ends. samples need not be sorted.
//
// If no sample lies in the window, Window returns an
// *EmptyWindowError.
func Window(start, end time.Time, samples []statslog.Sample) (Usage, error) {
	if end.Before(start) {
		return Usage{}, fmt.Errorf("window ends at %s before it starts at %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	var cpu, mem []float64
	for _, s := range samples {
		if s.Time.Before(start) || s.Time.After(end) {
			continue
		}
		cpu = append(cpu, s.CPU)
		mem = append(mem, s.Memory)
	}
	if len(cpu) == 0 {
		return Usage{}, &EmptyWindowError{start, end}
	}

	_, memMax := stats.Bounds(mem)
	return Usage{
		CPUMean:      stats.Mean(cpu),
		CPUMedian:    median(cpu),
		MemoryMedian: median(mem),
		MemoryMax:    memMax,
		Samples:      len(cpu),
	}, nil
}

// median returns the middle value of xs, or the mean of the two
// middle values if len(xs) is even.
func median(xs []float64) float64 {
	return stats.Sample{Xs: xs}.Quantile(0.5)
}
