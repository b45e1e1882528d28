// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package manifest parses and serializes a project's declarative manifest
// and lockfile. The manifest mirrors a Cargo.toml-shaped document: a
// package table plus three dependency tables (normal/dev/build), an
// optional workspace table, and a features table mapping a feature name
// to the list of other features/optional-dependencies it turns on.
//
// Each dependency entry can be written two ways in TOML — a bare version
// string, or a table carrying version/path/package-rename/optional/
// features/default-features — so DependencyValue normalizes both shapes,
// the same toProps/possibleProps duality the teacher's JSON manifest uses.
package manifest

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	ManifestName = "Manifest.toml"
	LockName     = "Manifest.lock"
)

// DependencyValue is the normalized form of one dependency table entry.
type DependencyValue struct {
	Version         string
	Path            string
	Package         string // rename: manifest key differs from the registry name
	Optional        bool
	Features        []string
	DefaultFeatures bool // true unless default-features = false was given
}

// Manifest is the parsed project manifest.
type Manifest struct {
	PackageName    string
	PackageVersion string

	Dependencies      map[string]DependencyValue
	DevDependencies   map[string]DependencyValue
	BuildDependencies map[string]DependencyValue

	// Target holds per-platform-predicate dependency tables, e.g.
	// target.'cfg(windows)'.dependencies.
	Target map[string]TargetTable

	Workspace *WorkspaceTable
	Features  map[string][]string

	// raw keeps the full decoded document so unknown keys survive a
	// rewrite-and-reserialize round trip untouched.
	raw map[string]interface{}
}

// TargetTable is the set of dependency tables scoped to one platform predicate.
type TargetTable struct {
	Dependencies      map[string]DependencyValue
	DevDependencies   map[string]DependencyValue
	BuildDependencies map[string]DependencyValue
}

// WorkspaceTable lists the workspace's member package paths.
type WorkspaceTable struct {
	Members []string
}

// Parse decodes a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding manifest")
	}

	m := &Manifest{raw: raw, Features: map[string][]string{}}

	if pkg, ok := raw["package"].(map[string]interface{}); ok {
		if name, ok := pkg["name"].(string); ok {
			m.PackageName = name
		}
		if v, ok := pkg["version"].(string); ok {
			m.PackageVersion = v
		}
	}

	var err error
	if m.Dependencies, err = decodeDepTable(raw["dependencies"]); err != nil {
		return nil, err
	}
	if m.DevDependencies, err = decodeDepTable(raw["dev-dependencies"]); err != nil {
		return nil, err
	}
	if m.BuildDependencies, err = decodeDepTable(raw["build-dependencies"]); err != nil {
		return nil, err
	}

	if ws, ok := raw["workspace"].(map[string]interface{}); ok {
		wt := &WorkspaceTable{}
		if members, ok := ws["members"].([]interface{}); ok {
			for _, v := range members {
				if s, ok := v.(string); ok {
					wt.Members = append(wt.Members, s)
				}
			}
		}
		m.Workspace = wt
	}

	if feat, ok := raw["features"].(map[string]interface{}); ok {
		for name, v := range feat {
			if list, ok := v.([]interface{}); ok {
				for _, item := range list {
					if s, ok := item.(string); ok {
						m.Features[name] = append(m.Features[name], s)
					}
				}
			}
		}
	}

	if tgt, ok := raw["target"].(map[string]interface{}); ok {
		m.Target = map[string]TargetTable{}
		for platform, v := range tgt {
			inner, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			tt := TargetTable{}
			if tt.Dependencies, err = decodeDepTable(inner["dependencies"]); err != nil {
				return nil, err
			}
			if tt.DevDependencies, err = decodeDepTable(inner["dev-dependencies"]); err != nil {
				return nil, err
			}
			if tt.BuildDependencies, err = decodeDepTable(inner["build-dependencies"]); err != nil {
				return nil, err
			}
			m.Target[platform] = tt
		}
	}

	return m, nil
}

func decodeDepTable(raw interface{}) (map[string]DependencyValue, error) {
	tbl, ok := raw.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	out := make(map[string]DependencyValue, len(tbl))
	for name, v := range tbl {
		dv, err := decodeDependencyValue(name, v)
		if err != nil {
			return nil, err
		}
		out[name] = dv
	}
	return out, nil
}

// decodeDependencyValue normalizes either TOML shape a dependency entry
// can take: a bare version string, or a table with version/path/package/
// optional/features/default-features keys.
func decodeDependencyValue(name string, v interface{}) (DependencyValue, error) {
	switch t := v.(type) {
	case string:
		return DependencyValue{Version: t, DefaultFeatures: true}, nil
	case map[string]interface{}:
		dv := DependencyValue{DefaultFeatures: true}
		if s, ok := t["version"].(string); ok {
			dv.Version = s
		}
		if s, ok := t["path"].(string); ok {
			dv.Path = s
		}
		if s, ok := t["package"].(string); ok {
			dv.Package = s
		}
		if b, ok := t["optional"].(bool); ok {
			dv.Optional = b
		}
		if b, ok := t["default-features"].(bool); ok {
			dv.DefaultFeatures = b
		}
		if list, ok := t["features"].([]interface{}); ok {
			for _, item := range list {
				if s, ok := item.(string); ok {
					dv.Features = append(dv.Features, s)
				}
			}
		}
		return dv, nil
	default:
		return DependencyValue{}, fmt.Errorf("dependency %q has an unrecognized shape", name)
	}
}

// Encode re-serializes m, honoring any in-place edits to its public
// fields by writing them back into the raw document before marshaling —
// this is how internal/sandbox rewrites requirements without disturbing
// unrelated manifest content.
func (m *Manifest) Encode() ([]byte, error) {
	m.syncRawFromFields()
	return toml.Marshal(m.raw)
}

func (m *Manifest) syncRawFromFields() {
	if m.raw == nil {
		m.raw = map[string]interface{}{}
	}
	encodeDepTable(m.raw, "dependencies", m.Dependencies)
	encodeDepTable(m.raw, "dev-dependencies", m.DevDependencies)
	encodeDepTable(m.raw, "build-dependencies", m.BuildDependencies)

	if m.Target != nil {
		tgt := map[string]interface{}{}
		for platform, tt := range m.Target {
			inner := map[string]interface{}{}
			encodeDepTable(inner, "dependencies", tt.Dependencies)
			encodeDepTable(inner, "dev-dependencies", tt.DevDependencies)
			encodeDepTable(inner, "build-dependencies", tt.BuildDependencies)
			tgt[platform] = inner
		}
		m.raw["target"] = tgt
	}
}

func encodeDepTable(raw map[string]interface{}, key string, deps map[string]DependencyValue) {
	if deps == nil {
		return
	}
	tbl := map[string]interface{}{}
	for name, dv := range deps {
		tbl[name] = encodeDependencyValue(dv)
	}
	raw[key] = tbl
}

func encodeDependencyValue(dv DependencyValue) interface{} {
	// A bare version with nothing else to say collapses back to a string,
	// matching how a human would have written it.
	if dv.Path == "" && dv.Package == "" && !dv.Optional && len(dv.Features) == 0 && dv.DefaultFeatures {
		return dv.Version
	}
	tbl := map[string]interface{}{}
	if dv.Version != "" {
		tbl["version"] = dv.Version
	}
	if dv.Path != "" {
		tbl["path"] = dv.Path
	}
	if dv.Package != "" {
		tbl["package"] = dv.Package
	}
	if dv.Optional {
		tbl["optional"] = true
	}
	if !dv.DefaultFeatures {
		tbl["default-features"] = false
	}
	if len(dv.Features) > 0 {
		tbl["features"] = dv.Features
	}
	return tbl
}
