// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/aclements/go-gg/table"
)

// A Row is the flattened form of one Entry.
type Row struct {
	Endpoint   string
	Framework  string
	Requests   float64
	Duration   float64
	Throughput float64

	LatencyMean float64
	LatencyMax  float64
	LatencyP90  float64
	LatencyP99  float64

	Errors int64

	CPUMean      float64
	CPUMedian    float64
	MemoryMedian float64
	MemoryMax    float64
	Samples      int
}

// Rows returns one Row per entry of d, grouped by endpoint.
func (d *Dataset) Rows() []Row {
	rows := make([]Row, 0, d.Len())
	for _, g := range d.Endpoints {
		for _, e := range g.Entries {
			rows = append(rows, Row{
				Endpoint:     g.Path,
				Framework:    e.Framework,
				Requests:     e.Requests,
				Duration:     e.Duration,
				Throughput:   e.Throughput,
				LatencyMean:  e.LatencyMean,
				LatencyMax:   e.LatencyMax,
				LatencyP90:   e.LatencyP90,
				LatencyP99:   e.LatencyP99,
				Errors:       e.ErrorCount,
				CPUMean:      e.CPUMean,
				CPUMedian:    e.CPUMedian,
				MemoryMedian: e.MemoryMedian,
				MemoryMax:    e.MemoryMax,
				Samples:      e.Samples,
			})
		}
	}
	return rows
}

// Table returns the rows of d as a table whose columns are named
// after the fields of Row.
func (d *Dataset) Table() *table.Table {
	return table.TableFromStructs(d.Rows())
}

var csvColumns = []struct {
	name string
	val  func(r *Row) string
}{
	{"endpoint", func(r *Row) string { return r.Endpoint }},
	{"framework", func(r *Row) string { return r.Framework }},
	{"requests", func(r *Row) string { return strof(r.Requests) }},
	{"duration_sec", func(r *Row) string { return strof(r.Duration) }},
	{"throughput", func(r *Row) string { return strof(r.Throughput) }},
	{"latency_mean", func(r *Row) string { return strof(r.LatencyMean) }},
	{"latency_max", func(r *Row) string { return strof(r.LatencyMax) }},
	{"latency_percentile_90", func(r *Row) string { return strof(r.LatencyP90) }},
	{"latency_percentile_99", func(r *Row) string { return strof(r.LatencyP99) }},
	{"errors_total", func(r *Row) string { return strconv.FormatInt(r.Errors, 10) }},
	{"cpu_avg_percent", func(r *Row) string { return strof(r.CPUMean) }},
	{"cpu_median_percent", func(r *Row) string { return strof(r.CPUMedian) }},
	{"memory_median_mb", func(r *Row) string { return strof(r.MemoryMedian) }},
	{"memory_max_mb", func(r *Row) string { return strof(r.MemoryMax) }},
	{"samples", func(r *Row) string { return strconv.Itoa(r.Samples) }},
}

// WriteCSV writes d to w as CSV with a header row, one row per entry.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	rec := make([]string, len(csvColumns))
	for i, c := range csvColumns {
		rec[i] = c.name
	}
	if err := cw.Write(rec); err != nil {
		return err
	}
	for _, r := range d.Rows() {
		for i, c := range csvColumns {
			rec[i] = c.val(&r)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// strof formats x in the shortest form that parses back to x.
func strof(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
