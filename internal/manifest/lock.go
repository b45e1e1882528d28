// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package manifest

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// LockedPackage is one pinned entry in a lockfile.
type LockedPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Source  string `toml:"source,omitempty"`
}

// Lock is the parsed lockfile: the fully pinned package set a prior
// resolution produced.
type Lock struct {
	Package []LockedPackage `toml:"package"`
}

// ParseLock decodes a lockfile document.
func ParseLock(data []byte) (*Lock, error) {
	var l Lock
	if err := toml.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(err, "decoding lockfile")
	}
	return &l, nil
}

// Encode re-serializes the lockfile.
func (l *Lock) Encode() ([]byte, error) {
	return toml.Marshal(l)
}
