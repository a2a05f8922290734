// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrkfmt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// A Dialect identifies one of the report formats understood by
// Reader.
type Dialect int

const (
	// Unknown means no record marker has been seen yet.
	Unknown Dialect = iota
	// Sectioned is wrk's human-readable output framed by
	// "Start"/"End test" marker lines.
	Sectioned
	// Flat is blank-line separated "field: value" blocks.
	Flat
)

func (d Dialect) String() string {
	switch d {
	case Unknown:
		return "Unknown"
	case Sectioned:
		return "Sectioned"
	case Flat:
		return "Flat"
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// A Reader reads wrk reports.
//
// Its API is modeled on bufio.Scanner. Unlike a bufio.Scanner, a
// Reader stops at the first malformed record: a partially parsed
// report is never returned.
//
// To construct a new Reader, either call NewReader, or call Reset on
// a zeroed Reader.
type Reader struct {
	s        *bufio.Scanner
	fileName string
	err      error

	// text is the current line and line is its 1-based number.
	text string
	line int
	// peeked holds lines consumed from s while sniffing the
	// dialect that have not yet been returned by next.
	peeked []string

	dialect Dialect
	sniffed bool

	// framework is the framework under test in a sectioned
	// report.
	framework string

	result *Result
}

// A SyntaxError represents a syntax error on a particular line of a
// report.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
	// Err is the underlying error, typically a
	// *benchunit.FormatError, or nil.
	Err error
}

func (e *SyntaxError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s:%d: %s: %v", e.FileName, e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// NewReader constructs a reader to parse wrk reports from r.
// fileName is used in error messages and in Result.File.
func NewReader(r io.Reader, fileName string) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName)
	return reader
}

// Reset resets the reader to begin reading from a new input.
func (r *Reader) Reset(ior io.Reader, fileName string) {
	if fileName == "" {
		fileName = "<unknown>"
	}
	*r = Reader{
		s:        bufio.NewScanner(ior),
		fileName: fileName,
		peeked:   r.peeked[:0],
	}
}

// newSyntaxError returns a *SyntaxError at the Reader's current line.
func (r *Reader) newSyntaxError(msg string, err error) *SyntaxError {
	return &SyntaxError{r.fileName, r.line, msg, err}
}

// next advances to the next input line.
func (r *Reader) next() bool {
	if len(r.peeked) > 0 {
		r.text = r.peeked[0]
		r.peeked = r.peeked[1:]
		r.line++
		return true
	}
	if r.s.Scan() {
		r.text = r.s.Text()
		r.line++
		return true
	}
	return false
}

// sniff reads ahead until a line identifies the dialect of the input.
func (r *Reader) sniff() {
	r.sniffed = true
	blank := true
	for r.s.Scan() {
		line := r.s.Text()
		r.peeked = append(r.peeked, line)
		if d := sniffLine(line); d != Unknown {
			r.dialect = d
			return
		}
		if strings.TrimSpace(line) != "" {
			blank = false
		}
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s: %w", r.fileName, err)
		return
	}
	if !blank {
		r.err = &SyntaxError{r.fileName, 1, "unrecognized report format", nil}
	}
}

// Sniff reports the dialect of a report, or Unknown if data contains
// no record marker of either dialect.
func Sniff(data []byte) Dialect {
	s := bufio.NewScanner(bytes.NewReader(data))
	for s.Scan() {
		if d := sniffLine(s.Text()); d != Unknown {
			return d
		}
	}
	return Unknown
}

func sniffLine(line string) Dialect {
	if strings.HasPrefix(line, frameworkPrefix) {
		return Sectioned
	}
	if strings.HasPrefix(line, startPrefix) && len(strings.Fields(line)) == 3 {
		return Sectioned
	}
	if key, _, ok := cutField(strings.TrimSpace(line)); ok {
		if _, ok := flatFields[key]; ok {
			return Flat
		}
	}
	return Unknown
}

// Scan advances the reader to the next result and reports whether a
// result was read. The caller should use the Result method to get the
// result. If Scan reaches EOF, encounters a malformed record, or an
// I/O error occurs, it returns false, in which case the caller should
// use the Err method to check for errors.
func (r *Reader) Scan() bool {
	r.result = nil
	if r.err != nil {
		return false
	}
	if !r.sniffed {
		r.sniff()
		if r.err != nil {
			return false
		}
	}
	switch r.dialect {
	case Sectioned:
		return r.scanSectioned()
	case Flat:
		return r.scanFlat()
	}
	return false
}

// finish records any I/O error at EOF and returns false.
func (r *Reader) finish() bool {
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
	}
	return false
}

// Result returns the result that was just read by Scan, or nil if
// Scan returned false. Each call to Scan produces a new Result, so
// the caller may retain it.
func (r *Reader) Result() *Result {
	return r.result
}

// Err returns the first error that stopped Scan: a *SyntaxError for
// malformed input, or an I/O error. It returns nil at EOF.
func (r *Reader) Err() error {
	return r.err
}

// Dialect returns the dialect of the input. It is Unknown until the
// first call to Scan.
func (r *Reader) Dialect() Dialect {
	return r.dialect
}

// Parse parses every result in data, which was read from fileName.
// It returns no results if any part of data is malformed.
func Parse(fileName string, data []byte) ([]*Result, error) {
	r := NewReader(bytes.NewReader(data), fileName)
	var out []*Result
	for r.Scan() {
		out = append(out, r.Result())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// normalizePath strips the query string and leading separators from
// an endpoint path, so "/users?id=1" becomes "users".
func normalizePath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return strings.TrimLeft(p, "/")
}
