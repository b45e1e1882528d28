// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbknapp/go-outdated/internal/graph"
	"github.com/kbknapp/go-outdated/internal/manifest"
	"github.com/kbknapp/go-outdated/internal/optset"
)

type fakeClient struct {
	versions map[string][]graph.Version
}

func (f *fakeClient) Versions(_ context.Context, name, _ string) ([]graph.Version, error) {
	return f.versions[name], nil
}

func TestResolveSinglePackageUsesLockWhenPresent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, manifest.ManifestName), []byte(`
[package]
name = "widget"
version = "0.1.0"

[dependencies]
left-pad = "^1.0.0"
`), 0o644))

	m, err := manifest.Parse(mustRead(t, filepath.Join(root, manifest.ManifestName)))
	require.NoError(t, err)

	lock, err := manifest.ParseLock([]byte(`
[[package]]
name = "left-pad"
version = "1.2.0"
`))
	require.NoError(t, err)

	r := &Greedy{Client: &fakeClient{}}
	w, err := r.Resolve(context.Background(), root, m, lock, optset.Options{AllFeatures: true})
	require.NoError(t, err)

	rootID := graph.PackageId{Name: "widget", Version: graph.MustParseVersion("0.1.0")}
	require.Contains(t, w.Adjacency, rootID)
	require.Len(t, w.Adjacency[rootID], 1)
	assert.Equal(t, "1.2.0", w.Adjacency[rootID][0].To.Version.String())
}

func TestResolveFallsBackToRegistryWithoutLock(t *testing.T) {
	root := t.TempDir()
	m, err := manifest.Parse([]byte(`
[package]
name = "widget"
version = "0.1.0"

[dependencies]
left-pad = "^1.0.0"
`))
	require.NoError(t, err)

	client := &fakeClient{versions: map[string][]graph.Version{
		"left-pad": {graph.MustParseVersion("1.0.0"), graph.MustParseVersion("1.5.0"), graph.MustParseVersion("2.0.0")},
	}}

	r := &Greedy{Client: client}
	w, err := r.Resolve(context.Background(), root, m, nil, optset.Options{AllFeatures: true})
	require.NoError(t, err)

	rootID := graph.PackageId{Name: "widget", Version: graph.MustParseVersion("0.1.0")}
	assert.Equal(t, "1.5.0", w.Adjacency[rootID][0].To.Version.String())
}

func TestResolveReadsUnpublishedPathDependencyFromDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, manifest.ManifestName), []byte(`
[package]
name = "widget"
version = "0.1.0"

[dependencies]
local-helper = { path = "../local-helper" }
`), 0o644))

	siblingDir := filepath.Join(filepath.Dir(root), "local-helper")
	require.NoError(t, os.MkdirAll(siblingDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(siblingDir, manifest.ManifestName), []byte(`
[package]
name = "local-helper"
version = "0.3.0"
`), 0o644))

	m, err := manifest.Parse(mustRead(t, filepath.Join(root, manifest.ManifestName)))
	require.NoError(t, err)

	r := &Greedy{Client: &fakeClient{}}
	w, err := r.Resolve(context.Background(), root, m, nil, optset.Options{AllFeatures: true})
	require.NoError(t, err)

	rootID := graph.PackageId{Name: "widget", Version: graph.MustParseVersion("0.1.0")}
	require.Len(t, w.Adjacency[rootID], 1)
	assert.Equal(t, "local-helper", w.Adjacency[rootID][0].To.Name)
	assert.Equal(t, "0.3.0", w.Adjacency[rootID][0].To.Version.String())
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
