// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbknapp/go-outdated/internal/graph"
)

func TestHTTPClientVersions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"versions":["1.0.0","1.1.0","2.0.0-beta.1"]}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL)
	versions, err := client.Versions(context.Background(), "widget", "registry")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "1.0.0", versions[0].String())
}

func TestHTTPClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL)
	_, err := client.Versions(context.Background(), "missing", "registry")
	require.Error(t, err)
}

func TestOfflineClientServesCache(t *testing.T) {
	c := &OfflineClient{Cache: map[string][]graph.Version{
		"widget": {graph.MustParseVersion("1.0.0")},
	}}
	versions, err := c.Versions(context.Background(), "widget", "registry")
	require.NoError(t, err)
	assert.Len(t, versions, 1)

	_, err = c.Versions(context.Background(), "unknown", "registry")
	assert.Error(t, err)
}
