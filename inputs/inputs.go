// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inputs loads raw benchmark inputs from a results directory.
//
// It performs no parsing. Files are selected by name suffix only, and
// either every matching file is read or the call fails.
package inputs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// A FileSystemError reports a directory or file that could not be
// read.
type FileSystemError struct {
	Op   string // "list" or "read"
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// ReadDir returns the contents of every regular file in dir whose
// name ends in suffix, keyed by file name (not path). Symbolic links
// are followed. Directories, devices, pipes and sockets are skipped,
// and sub-directories are not descended into.
//
// If dir cannot be listed, or any matching file cannot be read,
// ReadDir returns a *FileSystemError and no files.
func ReadDir(dir, suffix string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &FileSystemError{"list", dir, err}
	}
	files := make(map[string]string)
	for _, ent := range entries {
		name := ent.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		path := filepath.Join(dir, name)
		mode := ent.Type()
		if mode&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				return nil, &FileSystemError{"read", path, err}
			}
			mode = info.Mode().Type()
		}
		if !mode.IsRegular() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &FileSystemError{"read", path, err}
		}
		files[name] = string(data)
	}
	return files, nil
}

// Names returns the file names in files in sorted order. This is the
// order in which inputs are processed, so results discovered in
// earlier files come first.
func Names(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
