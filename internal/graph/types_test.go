// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOrdering(t *testing.T) {
	v1 := MustParseVersion("1.2.3")
	v2 := MustParseVersion("1.3.0")
	assert.True(t, v1.Less(v2))
	assert.False(t, v2.Less(v1))
	assert.True(t, v1.Equal(MustParseVersion("1.2.3")))
}

func TestVersionPrerelease(t *testing.T) {
	assert.True(t, MustParseVersion("2.0.0-beta.1").IsPrerelease())
	assert.False(t, MustParseVersion("2.0.0").IsPrerelease())
}

func TestParseVersionInvalid(t *testing.T) {
	_, err := ParseVersion("not-a-version")
	require.Error(t, err)
}

func TestPackageIdIsMapKey(t *testing.T) {
	m := map[PackageId]int{}
	id := PackageId{Name: "foo", Version: MustParseVersion("1.0.0"), Source: "registry"}
	m[id] = 1
	same := PackageId{Name: "foo", Version: MustParseVersion("1.0.0"), Source: "registry"}
	assert.Equal(t, 1, m[same])
}

func TestDetermineRootSingleMember(t *testing.T) {
	w := NewWorkspace()
	id := PackageId{Name: "root", Version: MustParseVersion("0.1.0")}
	w.WorkspaceMembers[id] = true

	got, err := w.DetermineRoot("")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestDetermineRootRequiresSelectionWhenAmbiguous(t *testing.T) {
	w := NewWorkspace()
	w.WorkspaceMembers[PackageId{Name: "a", Version: MustParseVersion("0.1.0")}] = true
	w.WorkspaceMembers[PackageId{Name: "b", Version: MustParseVersion("0.1.0")}] = true

	_, err := w.DetermineRoot("")
	require.Error(t, err)
}

func TestDetermineRootFallsBackToDirectDependencyOfSoleMember(t *testing.T) {
	w := NewWorkspace()
	root := PackageId{Name: "widget", Version: MustParseVersion("0.1.0")}
	dep := PackageId{Name: "left-pad", Version: MustParseVersion("1.0.0")}
	w.WorkspaceMembers[root] = true
	w.Adjacency[root] = []DependencyEdge{{To: dep}}

	got, err := w.DetermineRoot("left-pad")
	require.NoError(t, err)
	assert.Equal(t, dep, got)
}

func TestFindDirectDependencyFallsBackToGraph(t *testing.T) {
	w := NewWorkspace()
	root := PackageId{Name: "root", Version: MustParseVersion("0.1.0")}
	dep := PackageId{Name: "leaf", Version: MustParseVersion("2.0.0")}
	w.Packages[dep] = PackageRecord{ID: dep}

	got, err := w.FindDirectDependency(root, "leaf")
	require.NoError(t, err)
	assert.Equal(t, dep, got)
}
