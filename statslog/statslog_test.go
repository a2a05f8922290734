// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package statslog

import (
	"errors"
	"testing"
	"time"

	"github.com/frameworkbench/wrkstat/benchunit"
	"github.com/google/go-cmp/cmp"
)

func at(sec int) time.Time {
	return time.Date(2024, 3, 1, 10, 0, sec, 0, time.UTC)
}

func TestParse(t *testing.T) {
	const log = `2024-03-01T10:00:00,153.20%,182.5MiB / 7.675GiB,2.32%
2024-03-01T10:00:01, 0.00% ,0B / 0B,0.00%

2024-03-01T10:00:02,400.5%,1.5GiB / 7.675GiB,19.54%
`
	got, err := Parse("server.log", []byte(log))
	if err != nil {
		t.Fatal(err)
	}
	want := []Sample{
		{at(0), 153.2, 182.5},
		{at(1), 0, 0},
		{at(2), 400.5, 1536},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmpty(t *testing.T) {
	got, err := Parse("empty.log", nil)
	if err != nil || len(got) != 0 {
		t.Errorf("Parse(empty) = %v, %v", got, err)
	}
}

func TestParseErrors(t *testing.T) {
	for _, test := range []struct {
		name   string
		in     string
		line   int
		msg    string
		format *benchunit.FormatError
	}{
		{"unsupported unit", "2024-03-01T10:00:00,1%,128MB / 1GiB,1%", 1, "bad memory field",
			&benchunit.FormatError{Kind: "memory", Token: "128MB"}},
		{"no separator", "2024-03-01T10:00:00,1%,128MiB,1%", 1, "bad memory field",
			&benchunit.FormatError{Kind: "memory", Token: "128MiB"}},
		{"cpu without percent", "2024-03-01T10:00:00,1.5,12MiB / 1GiB,1%", 1, "bad cpu field",
			&benchunit.FormatError{Kind: "percent", Token: "1.5"}},
		{"bad time", "ok\n", 1, "want 4 fields, got 1", nil},
		{"time field", "10:00,1%,12MiB / 1GiB,1%", 1, "bad time field",
			&benchunit.FormatError{Kind: "timestamp", Token: "10:00"}},
		{"second line", "2024-03-01T10:00:00,1%,12MiB / 1GiB,1%\n2024-03-01T10:00:01,1%,12MiB / 1GiB\n", 2, "want 4 fields, got 3", nil},
		{"negative", "2024-03-01T10:00:00,-1%,12MiB / 1GiB,1%", 1, "negative usage", nil},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, err := Parse("s.log", []byte(test.in))
			if got != nil {
				t.Errorf("want no samples, got %v", got)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("want *SyntaxError, got %v", err)
			}
			if se.FileName != "s.log" || se.Line != test.line || se.Msg != test.msg {
				t.Errorf("got %s:%d: %s, want s.log:%d: %s", se.FileName, se.Line, se.Msg, test.line, test.msg)
			}
			if test.format == nil {
				return
			}
			var fe *benchunit.FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("want *benchunit.FormatError in chain of %v", err)
			}
			if fe.Kind != test.format.Kind || fe.Token != test.format.Token {
				t.Errorf("got FormatError{%s %q}, want {%s %q}", fe.Kind, fe.Token, test.format.Kind, test.format.Token)
			}
		})
	}
}
