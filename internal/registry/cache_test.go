// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package registry

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbknapp/go-outdated/internal/graph"
)

type erroringClient struct{}

func (erroringClient) Versions(context.Context, string, string) ([]graph.Version, error) {
	return nil, errors.New("network unreachable")
}

type fakeClient struct {
	versions map[string][]graph.Version
}

func (f *fakeClient) Versions(_ context.Context, name, _ string) ([]graph.Version, error) {
	return f.versions[name], nil
}

func TestCachedClientPersistsAndServesOffline(t *testing.T) {
	dir := t.TempDir()
	online := &fakeClient{versions: map[string][]graph.Version{
		"left-pad": {graph.MustParseVersion("1.0.0"), graph.MustParseVersion("1.5.0")},
	}}

	cached := NewCachedClient(online, dir, false)
	versions, err := cached.Versions(context.Background(), "left-pad", "")
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	offline := NewCachedClient(online, dir, true)
	got, err := offline.Versions(context.Background(), "left-pad", "")
	require.NoError(t, err)
	assert.Equal(t, versions, got)
}

func TestCachedClientOfflineMissErrors(t *testing.T) {
	dir := t.TempDir()
	offline := NewCachedClient(&fakeClient{}, dir, true)
	_, err := offline.Versions(context.Background(), "left-pad", "")
	assert.Error(t, err)
}

func TestCachePathRejectsTraversalOutsideCacheDir(t *testing.T) {
	dir := t.TempDir()
	c := NewCachedClient(&fakeClient{}, dir, false)

	path := c.cachePath("../../../../tmp/evil")
	versionsDir := filepath.Join(dir, "versions")
	assert.True(t, strings.HasPrefix(path, versionsDir+string(filepath.Separator)))
}

func TestCachedClientFallsBackToStaleCacheOnFailure(t *testing.T) {
	dir := t.TempDir()
	online := &fakeClient{versions: map[string][]graph.Version{
		"left-pad": {graph.MustParseVersion("1.0.0")},
	}}
	cached := NewCachedClient(online, dir, false)
	_, err := cached.Versions(context.Background(), "left-pad", "")
	require.NoError(t, err)

	failing := NewCachedClient(erroringClient{}, dir, false)
	versions, err := failing.Versions(context.Background(), "left-pad", "")
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}
