// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbknapp/go-outdated/internal/graph"
	"github.com/kbknapp/go-outdated/internal/optset"
	"github.com/kbknapp/go-outdated/internal/status"
)

func idv(name, v string) graph.PackageId {
	return graph.PackageId{Name: name, Version: graph.MustParseVersion(v)}
}

func verPtr(v string) *graph.Version {
	ver := graph.MustParseVersion(v)
	return &ver
}

func TestCollectSkipsUnchangedAndWorkspaceMembers(t *testing.T) {
	w := graph.NewWorkspace()
	w.WorkspaceMode = true
	root := idv("widget", "0.1.0")
	memberChild := idv("sibling", "0.1.0")
	leftPad := idv("left-pad", "1.0.0")
	rightPad := idv("right-pad", "2.0.0")

	w.WorkspaceMembers[root] = true
	w.WorkspaceMembers[memberChild] = true

	w.Adjacency[root] = []graph.DependencyEdge{
		{To: memberChild, Kind: graph.KindNormal},
		{To: leftPad, Kind: graph.KindNormal},
		{To: rightPad, Kind: graph.KindDevelopment},
	}

	changed := status.PkgStatus{
		Compat: status.FromVersions(leftPad.Version, verPtr("1.0.0")),
		Latest: status.FromVersions(leftPad.Version, verPtr("1.5.0")),
	}
	unchanged := status.PkgStatus{
		Compat: status.FromVersions(rightPad.Version, verPtr("2.0.0")),
		Latest: status.FromVersions(rightPad.Version, verPtr("2.0.0")),
	}

	w.StatusCache[status.PathKey([]graph.PackageId{root, leftPad})] = changed
	w.StatusCache[status.PathKey([]graph.PackageId{root, rightPad})] = unchanged

	rows := Collect(w, root, optset.Options{}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "left-pad", rows[0].Name)
	assert.Equal(t, "---", rows[0].Compat)
	assert.Equal(t, "1.5.0", rows[0].Latest)
	require.NotNil(t, rows[0].Kind)
	assert.Equal(t, "Normal", *rows[0].Kind)
}

func TestCollectPrunesIgnoredSubtree(t *testing.T) {
	w := graph.NewWorkspace()
	root := idv("widget", "0.1.0")
	leftPad := idv("left-pad", "1.0.0")
	transitive := idv("deep-pad", "1.0.0")
	w.Adjacency[root] = []graph.DependencyEdge{{To: leftPad, Kind: graph.KindNormal}}
	w.Adjacency[leftPad] = []graph.DependencyEdge{{To: transitive, Kind: graph.KindNormal}}

	changed := status.PkgStatus{
		Compat: status.FromVersions(leftPad.Version, verPtr("1.2.0")),
		Latest: status.FromVersions(leftPad.Version, verPtr("1.5.0")),
	}
	w.StatusCache[status.PathKey([]graph.PackageId{root, leftPad})] = changed

	rows := Collect(w, root, optset.Options{Ignore: []string{"left-pad"}}, nil)
	assert.Empty(t, rows)
}

func TestCollectSkipsChildrenDroppedFromSandbox(t *testing.T) {
	w := graph.NewWorkspace()
	root := idv("widget", "0.1.0")
	leftPad := idv("left-pad", "1.0.0")
	w.Adjacency[root] = []graph.DependencyEdge{{To: leftPad, Kind: graph.KindNormal}}

	changed := status.PkgStatus{
		Compat: status.FromVersions(leftPad.Version, verPtr("1.2.0")),
		Latest: status.FromVersions(leftPad.Version, verPtr("1.5.0")),
	}
	w.StatusCache[status.PathKey([]graph.PackageId{root, leftPad})] = changed

	rows := Collect(w, root, optset.Options{}, map[string]bool{"left-pad": true})
	assert.Empty(t, rows)
}

func TestCollectDisambiguatesTransitiveLabelOutsideWorkspaceMode(t *testing.T) {
	w := graph.NewWorkspace()
	root := idv("widget", "0.1.0")
	leftPad := idv("left-pad", "1.0.0")
	deepPad := idv("deep-pad", "1.0.0")
	w.Adjacency[root] = []graph.DependencyEdge{{To: leftPad, Kind: graph.KindNormal}}
	w.Adjacency[leftPad] = []graph.DependencyEdge{{To: deepPad, Kind: graph.KindNormal}}

	unchangedLeftPad := status.PkgStatus{
		Compat: status.FromVersions(leftPad.Version, verPtr("1.0.0")),
		Latest: status.FromVersions(leftPad.Version, verPtr("1.0.0")),
	}
	changedDeepPad := status.PkgStatus{
		Compat: status.FromVersions(deepPad.Version, verPtr("1.1.0")),
		Latest: status.FromVersions(deepPad.Version, verPtr("1.2.0")),
	}
	w.StatusCache[status.PathKey([]graph.PackageId{root, leftPad})] = unchangedLeftPad
	w.StatusCache[status.PathKey([]graph.PackageId{root, leftPad, deepPad})] = changedDeepPad

	rows := Collect(w, root, optset.Options{}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "left-pad->deep-pad", rows[0].Name)
}

func TestWriteListPrintsUpToDateMessageWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	WriteList(&buf, nil, optset.ColorNever, false)
	assert.Contains(t, buf.String(), "All dependencies are up to date, yay!")
}

func TestWriteListSuppressesMessageWhenContinued(t *testing.T) {
	var buf bytes.Buffer
	WriteList(&buf, nil, optset.ColorNever, true)
	assert.Empty(t, buf.String())
}

func TestWriteListRendersRows(t *testing.T) {
	var buf bytes.Buffer
	kind := "Normal"
	rows := []Row{{Name: "left-pad", Project: "1.0.0", Compat: "1.2.0", Latest: "1.5.0", Kind: &kind}}
	WriteList(&buf, rows, optset.ColorNever, false)
	out := buf.String()
	assert.Contains(t, out, "left-pad")
	assert.Contains(t, out, "1.2.0")
	assert.Contains(t, out, "1.5.0")
	assert.Contains(t, out, "---") // platform is nil
}

func TestWriteJSONEncodesNullKindForRootRow(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{{Name: "widget", Project: "0.1.0", Compat: "0.2.0", Latest: "0.3.0"}}
	require.NoError(t, WriteJSON(&buf, "widget", rows))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "widget", decoded["crate_name"])
	deps := decoded["dependencies"].([]interface{})
	require.Len(t, deps, 1)
	dep := deps[0].(map[string]interface{})
	assert.Nil(t, dep["kind"])
}

func TestWriteJSONEncodesEmptyDependenciesAsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, "widget", nil))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "widget", decoded["crate_name"])
	assert.Equal(t, []interface{}{}, decoded["dependencies"])
}
