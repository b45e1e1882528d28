// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package status implements component C5, the differential BFS that walks
// the current, compat, and latest workspaces with synchronized cursors
// and produces a PkgStatus per visited node. The reporter (internal/report)
// re-walks the current graph under the same depth-bound and cycle-break
// rules and reads the statuses this package stores in
// Workspace.StatusCache.
package status

import (
	"strings"

	"github.com/kbknapp/go-outdated/internal/graph"
)

// Status is the per-resolution outcome for one node: unchanged, removed
// from that resolution entirely, or present at a different version.
type Status struct {
	Kind    StatusKind
	Version graph.Version
}

type StatusKind uint8

const (
	Unchanged StatusKind = iota
	Removed
	Changed
)

// FromVersions mirrors pkg_status.rs's Status::from_versions: to==nil means
// the package vanished from that resolution; otherwise it's Unchanged iff
// the versions compare equal, Changed otherwise.
func FromVersions(from graph.Version, to *graph.Version) Status {
	if to == nil {
		return Status{Kind: Removed}
	}
	if from.Equal(*to) {
		return Status{Kind: Unchanged}
	}
	return Status{Kind: Changed, Version: *to}
}

// IsChanged reports whether this status represents an actual difference
// worth reporting (anything but Unchanged).
func (s Status) IsChanged() bool { return s.Kind != Unchanged }

func (s Status) String() string {
	switch s.Kind {
	case Removed:
		return "Removed"
	case Changed:
		return s.Version.String()
	default:
		return "---"
	}
}

// PkgStatus bundles the compat and latest outcomes for one node.
type PkgStatus struct {
	Compat Status
	Latest Status
}

// IsChanged reports whether either half of the pair differs from current.
func (p PkgStatus) IsChanged() bool { return p.Compat.IsChanged() || p.Latest.IsChanged() }

// cursor is one BFS frontier element: the root-to-node path (for cycle
// detection and cache keying) plus the matching node, if any, in the
// compat and latest graphs.
type cursor struct {
	path   []graph.PackageId
	curr   graph.PackageId
	compat *graph.PackageId
	latest *graph.PackageId
	depth  int
}

// PathKey returns a deterministic fingerprint for a traversal path, used
// to key Workspace.StatusCache — never the leaf PackageId alone, since two
// distinct paths can reach the same leaf with distinct statuses.
func PathKey(path []graph.PackageId) string {
	var b strings.Builder
	for i, id := range path {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(id.String())
	}
	return b.String()
}

// Resolve walks curr, compat, and latest from root with synchronized
// cursors, matching children by name (resolved versions can legitimately
// differ across the three graphs) and populates curr.StatusCache keyed by
// PathKey. depth is the maximum depth visited: nodes at that depth get a
// status but their children are not expanded. depth<=0 means unbounded
// (internal/optset uses -1 for that).
func Resolve(curr, compat, latest *graph.Workspace, root graph.PackageId, depth int) map[string]PkgStatus {
	out := map[string]PkgStatus{}

	var compatRoot, latestRoot *graph.PackageId
	if id, ok := findByName(compat, root.Name); ok {
		compatRoot = &id
	}
	if id, ok := findByName(latest, root.Name); ok {
		latestRoot = &id
	}

	queue := []cursor{{path: []graph.PackageId{root}, curr: root, compat: compatRoot, latest: latestRoot, depth: 0}}

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		key := PathKey(c.path)
		out[key] = statusFor(c)
		curr.StatusCache[key] = out[key]

		if depth > 0 && c.depth >= depth {
			continue
		}

		for _, edge := range curr.Adjacency[c.curr] {
			if inPath(c.path, edge.To) {
				continue // cycle break
			}

			var childCompat, childLatest *graph.PackageId
			if c.compat != nil {
				if id, ok := findChildByName(compat, *c.compat, edge.To.Name); ok {
					childCompat = &id
				}
			}
			if c.latest != nil {
				if id, ok := findChildByName(latest, *c.latest, edge.To.Name); ok {
					childLatest = &id
				}
			}

			next := append(append([]graph.PackageId{}, c.path...), edge.To)
			queue = append(queue, cursor{
				path:   next,
				curr:   edge.To,
				compat: childCompat,
				latest: childLatest,
				depth:  c.depth + 1,
			})
		}
	}

	return out
}

func statusFor(c cursor) PkgStatus {
	var compatVersion, latestVersion *graph.Version
	if c.compat != nil {
		v := c.compat.Version
		compatVersion = &v
	}
	if c.latest != nil {
		v := c.latest.Version
		latestVersion = &v
	}
	return PkgStatus{
		Compat: FromVersions(c.curr.Version, compatVersion),
		Latest: FromVersions(c.curr.Version, latestVersion),
	}
}

func findByName(w *graph.Workspace, name string) (graph.PackageId, bool) {
	for id := range w.Packages {
		if id.Name == name {
			return id, true
		}
	}
	for id := range w.WorkspaceMembers {
		if id.Name == name {
			return id, true
		}
	}
	return graph.PackageId{}, false
}

func findChildByName(w *graph.Workspace, parent graph.PackageId, name string) (graph.PackageId, bool) {
	for _, e := range w.Adjacency[parent] {
		if e.To.Name == name {
			return e.To, true
		}
	}
	return graph.PackageId{}, false
}

func inPath(path []graph.PackageId, id graph.PackageId) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}
