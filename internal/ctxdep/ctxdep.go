// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ctxdep locates a project's manifest: given a starting
// directory, it walks upward until it finds one, the same upward search
// golang-dep's findProjectRoot performs for its own manifest file.
package ctxdep

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/kbknapp/go-outdated/internal/manifest"
	"github.com/kbknapp/go-outdated/internal/xerrors"
)

// FindProjectRoot walks upward from `from` looking for a manifest file,
// returning the containing directory.
func FindProjectRoot(from string) (string, error) {
	for {
		mp := filepath.Join(from, manifest.ManifestName)
		if _, err := os.Stat(mp); err == nil {
			return from, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(from)
		if parent == from {
			return "", &xerrors.ConfigError{Msg: "no manifest found in this directory or any parent"}
		}
		from = parent
	}
}

// Project is a loaded manifest plus the lockfile, if one exists, and the
// absolute root directory they were found in.
type Project struct {
	Root     string
	Manifest *manifest.Manifest
	Lock     *manifest.Lock
}

// Load resolves a project root (the directory of manifestPath when one is
// given, otherwise an upward search from cwd, or from the process working
// directory when cwd is empty) and parses its manifest and lockfile.
func Load(manifestPath, cwd string) (*Project, error) {
	var root string
	var err error

	if manifestPath != "" {
		root = filepath.Dir(manifestPath)
	} else {
		start := cwd
		if start == "" {
			start, err = os.Getwd()
			if err != nil {
				return nil, errors.Wrap(err, "getting working directory")
			}
		}
		root, err = FindProjectRoot(start)
		if err != nil {
			return nil, err
		}
	}

	mp := manifestPath
	if mp == "" {
		mp = filepath.Join(root, manifest.ManifestName)
	}

	data, err := os.ReadFile(mp)
	if err != nil {
		return nil, &xerrors.ParseError{Path: mp, Err: err}
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, &xerrors.ParseError{Path: mp, Err: err}
	}

	p := &Project{Root: root, Manifest: m}

	lp := filepath.Join(root, manifest.LockName)
	if lockData, err := os.ReadFile(lp); err == nil {
		lock, err := manifest.ParseLock(lockData)
		if err != nil {
			return nil, &xerrors.ParseError{Path: lp, Err: err}
		}
		p.Lock = lock
	} else if !os.IsNotExist(err) {
		return nil, &xerrors.ParseError{Path: lp, Err: err}
	}

	return p, nil
}
