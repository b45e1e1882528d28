// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package graph holds the data model the rest of go-outdated is built
// around: PackageId, PackageRecord, DependencyEdge, and the elaborated
// Workspace graph they compose into (component C2 of the design). A
// Workspace is never resolved by this package — a resolve.Resolver builds
// and populates it, and this package only indexes and queries it.
package graph

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/kbknapp/go-outdated/internal/xerrors"
)

// Version is a comparable wrapper around a parsed semantic version. It is
// stored as its canonical string so PackageId (which embeds it) stays a
// valid, hashable map key; Semver() re-parses on demand.
type Version struct {
	raw string
}

// ParseVersion parses s as a semantic version.
func ParseVersion(s string) (Version, error) {
	if _, err := semver.NewVersion(s); err != nil {
		return Version{}, errors.Wrapf(err, "invalid version %q", s)
	}
	return Version{raw: s}, nil
}

// MustParseVersion is ParseVersion but panics on error; for tests and
// constants built from literals known to be valid.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string { return v.raw }

// Semver returns the parsed semver.Version. Panics if v is the zero
// Version; callers are expected to only hold Versions built via
// ParseVersion/MustParseVersion.
func (v Version) Semver() *semver.Version {
	sv, err := semver.NewVersion(v.raw)
	if err != nil {
		panic(errors.Wrapf(err, "Version %q became unparsable after construction", v.raw))
	}
	return sv
}

// IsPrerelease reports whether v carries a pre-release channel marker.
func (v Version) IsPrerelease() bool {
	return v.Semver().Prerelease() != ""
}

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool {
	return v.Semver().LessThan(o.Semver())
}

// Equal reports whether v and o are the same version.
func (v Version) Equal(o Version) bool {
	return v.raw == o.raw || v.Semver().Equal(o.Semver())
}

// PackageId identifies one resolved package instance: name, resolved
// version, and the registry source it came from. It is intentionally a
// plain comparable struct so it can be used directly as a map key.
type PackageId struct {
	Name    string
	Version Version
	Source  string
}

func (id PackageId) String() string {
	return fmt.Sprintf("%s@%s", id.Name, id.Version)
}

// DependencyKind classifies an edge the way the manifest declares it.
type DependencyKind uint8

const (
	KindNormal DependencyKind = iota
	KindDevelopment
	KindBuild
)

func (k DependencyKind) String() string {
	switch k {
	case KindDevelopment:
		return "Development"
	case KindBuild:
		return "Build"
	default:
		return "Normal"
	}
}

// DependencyEdge is one outgoing dependency declared by a package.
type DependencyEdge struct {
	To          PackageId
	Kind        DependencyKind
	Platform    string // target-platform predicate; empty means unconditional
	Optional    bool
	Features    []string
	Requirement string // the textual requirement as written in the manifest
}

// PackageRecord is one resolved node plus the manifest-level metadata
// needed to rewrite and re-query it.
type PackageRecord struct {
	ID           PackageId
	ManifestPath string
	IsWorkspace  bool
}

// Workspace is the elaborated dependency graph: every resolved package,
// keyed by its PackageId (never by name alone, since compat/latest
// re-resolutions can pin different versions of the same package), plus
// the adjacency each package declares.
type Workspace struct {
	Packages         map[PackageId]PackageRecord
	Adjacency        map[PackageId][]DependencyEdge
	WorkspaceMembers map[PackageId]bool
	WorkspaceMode    bool
	RootManifestPath string

	// StatusCache is populated by internal/status and keyed by a
	// deterministic fingerprint of the full root-to-node traversal path,
	// not by leaf PackageId, because the same leaf can be reached by
	// distinct paths with distinct statuses in workspace mode.
	StatusCache map[string]interface{}
}

// NewWorkspace returns an empty, ready-to-populate Workspace.
func NewWorkspace() *Workspace {
	return &Workspace{
		Packages:         map[PackageId]PackageRecord{},
		Adjacency:        map[PackageId][]DependencyEdge{},
		WorkspaceMembers: map[PackageId]bool{},
		StatusCache:      map[string]interface{}{},
	}
}

// DetermineRoot picks the package to report on when not in workspace mode:
// the explicit --root package if named (a workspace member, or failing
// that a direct dependency of the sole member), else the sole workspace
// member if there is exactly one, else an error demanding --root or
// --workspace.
func (w *Workspace) DetermineRoot(rootName string) (PackageId, error) {
	if rootName != "" {
		if id, err := w.FindMember(rootName); err == nil {
			return id, nil
		}
		if len(w.WorkspaceMembers) == 1 {
			var sole PackageId
			for id := range w.WorkspaceMembers {
				sole = id
			}
			return w.FindDirectDependency(sole, rootName)
		}
		return PackageId{}, &xerrors.ConfigError{
			Msg: fmt.Sprintf("workspace member %q not found", rootName),
		}
	}
	if len(w.WorkspaceMembers) == 1 {
		for id := range w.WorkspaceMembers {
			return id, nil
		}
	}
	if len(w.WorkspaceMembers) == 0 {
		return PackageId{}, xerrors.ErrNoWorkspace
	}
	return PackageId{}, &xerrors.ConfigError{
		Msg: "multiple workspace members present; specify --root or --workspace",
	}
}

// FindMember resolves a workspace member by name.
func (w *Workspace) FindMember(name string) (PackageId, error) {
	for id := range w.WorkspaceMembers {
		if id.Name == name {
			return id, nil
		}
	}
	return PackageId{}, &xerrors.ConfigError{
		Msg: fmt.Sprintf("workspace member %q not found", name),
	}
}

// FindContainedPackage finds a package (member or not) by name whose
// manifest path falls under the workspace root.
func (w *Workspace) FindContainedPackage(root, name string) (PackageId, error) {
	for id, rec := range w.Packages {
		if id.Name == name && rec.ManifestPath != "" && hasPrefix(rec.ManifestPath, root) {
			return id, nil
		}
	}
	return PackageId{}, &xerrors.ConfigError{
		Msg: fmt.Sprintf("cannot find package %q in workspace", name),
	}
}

// FindDirectDependency resolves name to a PackageId that "of" directly
// depends on, falling back to a graph-wide search by name when no direct
// edge of "of" matches (matching the teacher's "direct first, then whole
// graph" fallback).
func (w *Workspace) FindDirectDependency(of PackageId, name string) (PackageId, error) {
	for _, e := range w.Adjacency[of] {
		if e.To.Name == name {
			return e.To, nil
		}
	}
	for id := range w.Packages {
		if id.Name == name {
			return id, nil
		}
	}
	return PackageId{}, &xerrors.ConfigError{
		Msg: fmt.Sprintf("direct dependency %q not found for package %q", name, of.Name),
	}
}

func hasPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if len(path) < len(prefix) {
		return false
	}
	return path[:len(prefix)] == prefix
}
