// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package correlate

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/frameworkbench/wrkstat/statslog"
)

func clock(h, m, s int) time.Time {
	return time.Date(2024, 3, 1, h, m, s, 0, time.UTC)
}

func TestWindowBoundaries(t *testing.T) {
	samples := []statslog.Sample{
		{Time: clock(9, 59, 59), CPU: 1000, Memory: 1000},
		{Time: clock(10, 0, 5), CPU: 100, Memory: 200},
		{Time: clock(10, 0, 10), CPU: 300, Memory: 100},
		{Time: clock(10, 0, 11), CPU: 1000, Memory: 1000},
	}
	got, err := Window(clock(10, 0, 0), clock(10, 0, 10), samples)
	if err != nil {
		t.Fatal(err)
	}
	want := Usage{CPUMean: 200, CPUMedian: 200, MemoryMedian: 150, MemoryMax: 200, Samples: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestWindowUnsorted(t *testing.T) {
	samples := []statslog.Sample{
		{Time: clock(10, 0, 3), CPU: 50, Memory: 30},
		{Time: clock(10, 0, 1), CPU: 10, Memory: 10},
		{Time: clock(10, 0, 9), CPU: 1000, Memory: 1000},
		{Time: clock(10, 0, 2), CPU: 30, Memory: 20},
	}
	got, err := Window(clock(10, 0, 0), clock(10, 0, 5), samples)
	if err != nil {
		t.Fatal(err)
	}
	want := Usage{CPUMean: 30, CPUMedian: 30, MemoryMedian: 20, MemoryMax: 30, Samples: 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	// Window must not reorder its input.
	if samples[0].CPU != 50 || samples[1].CPU != 10 {
		t.Errorf("Window modified its input: %v", samples)
	}
}

func TestWindowSinglePoint(t *testing.T) {
	samples := []statslog.Sample{{Time: clock(10, 0, 0), CPU: 12.5, Memory: 64}}
	got, err := Window(clock(10, 0, 0), clock(10, 0, 0), samples)
	if err != nil {
		t.Fatal(err)
	}
	want := Usage{CPUMean: 12.5, CPUMedian: 12.5, MemoryMedian: 64, MemoryMax: 64, Samples: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestWindowEmpty(t *testing.T) {
	samples := []statslog.Sample{
		{Time: clock(9, 0, 0), CPU: 10, Memory: 10},
	}
	for _, s := range [][]statslog.Sample{nil, samples} {
		_, err := Window(clock(10, 0, 0), clock(10, 0, 10), s)
		var ew *EmptyWindowError
		if !errors.As(err, &ew) {
			t.Fatalf("want *EmptyWindowError, got %v", err)
		}
		if !ew.Start.Equal(clock(10, 0, 0)) || !ew.End.Equal(clock(10, 0, 10)) {
			t.Errorf("error window [%v, %v]", ew.Start, ew.End)
		}
	}
}

func TestWindowInverted(t *testing.T) {
	samples := []statslog.Sample{{Time: clock(10, 0, 5), CPU: 1, Memory: 1}}
	_, err := Window(clock(10, 0, 10), clock(10, 0, 0), samples)
	if err == nil {
		t.Fatal("want error for inverted window")
	}
	var ew *EmptyWindowError
	if errors.As(err, &ew) {
		t.Errorf("inverted window reported as empty: %v", err)
	}
}

func TestMedian(t *testing.T) {
	for _, test := range []struct {
		xs   []float64
		want float64
	}{
		{[]float64{5}, 5},
		{[]float64{3, 1, 2}, 2},
		{[]float64{4, 1, 3, 2}, 2.5},
		{[]float64{10, 20}, 15},
	} {
		if got := median(test.xs); got != test.want {
			t.Errorf("median(%v) = %v, want %v", test.xs, got, test.want)
		}
	}
}
