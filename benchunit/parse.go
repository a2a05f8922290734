// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchunit parses the unit-suffixed numbers printed by wrk
// and by container resource monitors, and normalizes them to base
// units: seconds for time, plain numbers for counts, MiB for memory,
// and bytes for transfer sizes.
//
// Every parser reports a *FormatError naming the offending token if
// the token does not match its grammar.
package benchunit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// A FormatError reports a token that does not match the grammar of
// the quantity it was expected to hold.
type FormatError struct {
	// Kind names the quantity or field being parsed, such as
	// "time", "percent" or "memory".
	Kind string
	// Token is the raw text that failed to parse.
	Token string
	// Err is the underlying conversion error, if any.
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s %q: %v", e.Kind, e.Token, e.Err)
	}
	return fmt.Sprintf("unrecognized %s %q", e.Kind, e.Token)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// A suffix is a unit suffix and the factor that converts a value in
// that unit to the base unit. If exp is non-zero, the factor is
// exactly 10^exp and is applied by shifting the decimal exponent of
// the number, which keeps values such as "12.3ms" exactly equal to
// the float64 literal 0.0123.
type suffix struct {
	s      string
	exp    int
	factor float64
}

// Order matters: longer suffixes that end in a shorter one must come
// first ("ms" before "s").
var timeSuffixes = []suffix{
	{"us", -6, 0},
	{"µs", -6, 0},
	{"ms", -3, 0},
	{"s", 0, 1},
	{"m", 0, 60},
	{"h", 0, 3600},
}

var countSuffixes = []suffix{
	{"k", 3, 0},
	{"M", 6, 0},
	{"G", 9, 0},
}

var memorySuffixes = []suffix{
	{"KiB", 0, 1.0 / 1024},
	{"MiB", 0, 1},
	{"GiB", 0, 1024},
}

var byteSuffixes = []suffix{
	{"KB", 0, 1 << 10},
	{"MB", 0, 1 << 20},
	{"GB", 0, 1 << 30},
	{"TB", 0, 1 << 40},
	{"B", 0, 1},
}

// ParseTime parses a wrk duration such as "500ms", "250us" or "2s"
// and returns it in seconds. wrk also prints "m" and "h" for long
// durations. A suffix is required.
func ParseTime(tok string) (float64, error) {
	return parseSuffixed("time", tok, timeSuffixes, false)
}

// ParseCount parses a wrk count such as "3.20k" or "300.00". The
// metric suffixes "k", "M" and "G" scale by powers of 1000; a bare
// number is returned unmodified.
func ParseCount(tok string) (float64, error) {
	return parseSuffixed("count", tok, countSuffixes, true)
}

// ParsePercent parses a percentage such as "85.25%" and returns
// 85.25. The token must end in "%".
func ParsePercent(tok string) (float64, error) {
	num, ok := strings.CutSuffix(tok, "%")
	if !ok {
		return 0, &FormatError{Kind: "percent", Token: tok}
	}
	return parseNumber("percent", tok, num, 0, 1)
}

// ParseMemory parses a container memory figure such as "123.4MiB"
// and returns it in MiB. The monitor prints zero as the literal "0B".
func ParseMemory(tok string) (float64, error) {
	if tok == "0B" {
		return 0, nil
	}
	return parseSuffixed("memory", tok, memorySuffixes, false)
}

// ParseBytes parses a wrk transfer size such as "20.05MB" and returns
// it in bytes. wrk scales sizes by powers of 1024.
func ParseBytes(tok string) (float64, error) {
	return parseSuffixed("bytes", tok, byteSuffixes, false)
}

// ParseInt parses a non-negative decimal integer, as used by wrk's
// error counters.
func ParseInt(tok string) (int64, error) {
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, &FormatError{Kind: "count", Token: tok, Err: err.(*strconv.NumError).Err}
	}
	if n < 0 {
		return 0, &FormatError{Kind: "count", Token: tok}
	}
	return n, nil
}

// TimeLayout is the timestamp layout written by the benchmark
// scripts, in local wall-clock time without a zone.
const TimeLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses a timestamp in TimeLayout. RFC 3339
// timestamps are also accepted.
func ParseTimestamp(tok string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, tok)
	if err == nil {
		return t, nil
	}
	if t, err2 := time.Parse(time.RFC3339Nano, tok); err2 == nil {
		return t, nil
	}
	return time.Time{}, &FormatError{Kind: "timestamp", Token: tok, Err: err}
}

func parseSuffixed(kind, tok string, suffixes []suffix, bare bool) (float64, error) {
	for _, sfx := range suffixes {
		if num, ok := strings.CutSuffix(tok, sfx.s); ok {
			return parseNumber(kind, tok, num, sfx.exp, sfx.factor)
		}
	}
	if bare && tok != "" && isDigit(tok[len(tok)-1]) {
		return parseNumber(kind, tok, tok, 0, 1)
	}
	return 0, &FormatError{Kind: kind, Token: tok}
}

// parseNumber parses num, the numeric part of tok, and scales it by
// 10^exp if exp is non-zero, otherwise by factor.
func parseNumber(kind, tok, num string, exp int, factor float64) (float64, error) {
	if num == "" || !isDigit(num[len(num)-1]) {
		return 0, &FormatError{Kind: kind, Token: tok}
	}
	if exp != 0 && !strings.ContainsAny(num, "eE") {
		num += "e" + strconv.Itoa(exp)
		factor = 1
	} else if exp != 0 {
		factor = math.Pow10(exp)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, &FormatError{Kind: kind, Token: tok, Err: err.(*strconv.NumError).Err}
	}
	return v * factor, nil
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
