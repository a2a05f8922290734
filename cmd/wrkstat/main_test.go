// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/frameworkbench/wrkstat/dataset"
	"github.com/frameworkbench/wrkstat/inputs"
)

var runDir = filepath.Join("testdata", "run")

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	t.Logf("wrkstat %s", strings.Join(args, " "))
	err = wrkstat(&out, &errOut, args)
	return out.String(), errOut.String(), err
}

func TestTable(t *testing.T) {
	output := filepath.Join(t.TempDir(), "results.json")
	stdout, stderr, err := run(t, "--table", "-o", output, runDir)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	compare(t, "table.stdout", []byte(stdout))
	if stderr != "" {
		t.Errorf("unexpected stderr:\n%s", stderr)
	}
}

func TestOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.json")
	csvFile := filepath.Join(dir, "out.csv")
	stdout, _, err := run(t, "-o", output, "--csv", csvFile, "-j", "2", runDir)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if stdout != "" {
		t.Errorf("unexpected stdout without --table:\n%s", stdout)
	}

	d, err := dataset.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, g := range d.Endpoints {
		for _, e := range g.Entries {
			got = append(got, g.Path+"/"+e.Framework)
		}
	}
	want := []string{"users/django-gunicorn-sync", "users/go-pgx", "devices/go-pgx"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dataset mismatch (-want +got):\n%s", diff)
	}

	f, err := os.Open(csvFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 || recs[0][0] != "endpoint" || recs[3][0] != "devices" {
		t.Errorf("unexpected CSV:\n%v", recs)
	}
}

func TestVerbose(t *testing.T) {
	output := filepath.Join(t.TempDir(), "results.json")
	_, stderr, err := run(t, "-v", "-j", "1", "-o", output, runDir)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for _, want := range []string{
		"level=DEBUG msg=\"parsed report\" file=django.txt results=1\n",
		"level=DEBUG msg=\"parsed report\" file=go-pgx.txt results=2\n",
		"level=DEBUG msg=\"parsed resource log\" file=docker-late.log samples=1\n",
		"level=INFO msg=\"loaded dataset\" dir=" + runDir + " reports=2 logs=2 results=3 samples=5 endpoints=2\n",
		"level=INFO msg=\"wrote dataset\"",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr lacks %q:\n%s", want, stderr)
		}
	}
	if strings.Contains(stderr, "time=") {
		t.Errorf("log records carry timestamps:\n%s", stderr)
	}
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{{}, {"a", "b"}} {
		_, stderr, err := run(t, args...)
		if !errors.Is(err, errUsage) {
			t.Errorf("wrkstat %v: want usage error, got %v", args, err)
		}
		if !strings.HasPrefix(stderr, "usage: wrkstat [flags] dir\n") || !strings.Contains(stderr, "--report-suffix") {
			t.Errorf("wrkstat %v: bad usage message:\n%s", args, stderr)
		}
	}
	if _, _, err := run(t, "--no-such-flag", runDir); err == nil {
		t.Errorf("unknown flag accepted")
	}
}

func TestErrors(t *testing.T) {
	output := filepath.Join(t.TempDir(), "results.json")
	_, _, err := run(t, "-o", output, filepath.Join("testdata", "missing"))
	var fe *inputs.FileSystemError
	if !errors.As(err, &fe) {
		t.Errorf("want *inputs.FileSystemError, got %v", err)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("output written despite failure")
	}

	// Selecting the logs as reports makes every log fail to parse.
	_, _, err = run(t, "-o", output, "--report-suffix", ".log", "--log-suffix", ".none", runDir)
	if err == nil || !strings.Contains(err.Error(), "unrecognized report format") {
		t.Errorf("want report format error, got %v", err)
	}
}

func compare(t *testing.T, name string, got []byte) {
	t.Helper()

	wantPath := filepath.Join("testdata", name)
	want, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(want, got) {
		return
	}
	t.Errorf("%s mismatch (-want +got):\n%s", name, cmp.Diff(string(want), string(got)))

	// Write a "got" file for reference.
	gotPath := wantPath + ".got"
	if err := os.WriteFile(gotPath, got, 0666); err != nil {
		t.Fatalf("error writing %s: %s", gotPath, err)
	}
}
