// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Encode writes d to w as indented JSON.
func (d *Dataset) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Decode reads a Dataset written by Encode.
func Decode(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	d := new(Dataset)
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	return d, nil
}

// WriteFile encodes d to the named file, creating or truncating it.
func (d *Dataset) WriteFile(name string) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return d.Encode(f)
}

// ReadFile decodes the Dataset in the named file.
func ReadFile(name string) (*Dataset, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
