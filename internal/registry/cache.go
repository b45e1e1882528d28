// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/kbknapp/go-outdated/internal/graph"
	"github.com/kbknapp/go-outdated/internal/xerrors"
	"github.com/kbknapp/go-outdated/internal/xlog"
)

// CachedClient wraps a SourceClient with an on-disk version cache under
// GOOUTDATED_HOME, the registry-cache analogue of golang-dep's source
// manager cache. Successful queries are persisted for --offline runs;
// failed queries fall back to whatever was last cached rather than
// failing outright.
type CachedClient struct {
	Inner    SourceClient
	CacheDir string
	Offline  bool
}

// NewCachedClient returns a disk-backed wrapper around inner. cacheDir is
// not touched here; its versions subdirectory is created on the first
// successful query that gets persisted.
func NewCachedClient(inner SourceClient, cacheDir string, offline bool) *CachedClient {
	return &CachedClient{Inner: inner, CacheDir: cacheDir, Offline: offline}
}

func (c *CachedClient) Versions(ctx context.Context, name, source string) ([]graph.Version, error) {
	if c.Offline {
		versions, err := c.readCache(name)
		if err != nil {
			return nil, &xerrors.RegistryError{Package: name, Err: errors.New("not available offline")}
		}
		return versions, nil
	}

	versions, err := c.Inner.Versions(ctx, name, source)
	if err != nil {
		if cached, cerr := c.readCache(name); cerr == nil {
			xlog.Warn("registry query for %s failed, using cached versions: %v", name, err)
			return cached, nil
		}
		return nil, err
	}

	if lerr := c.writeCache(ctx, name, versions); lerr != nil {
		xlog.Vlogf("could not persist registry cache for %s: %v", name, lerr)
	}
	return versions, nil
}

// cachePath derives the on-disk cache file for a dependency name.
// Manifests can declare arbitrary strings as dependency names, so the
// name is base64-encoded rather than joined into the path verbatim —
// otherwise a name like "../../etc/cron.d/x" would escape CacheDir.
func (c *CachedClient) cachePath(name string) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(name))
	return filepath.Join(c.CacheDir, "versions", encoded+".json")
}

func (c *CachedClient) readCache(name string) ([]graph.Version, error) {
	data, err := os.ReadFile(c.cachePath(name))
	if err != nil {
		return nil, err
	}
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]graph.Version, 0, len(raw))
	for _, s := range raw {
		if v, err := graph.ParseVersion(s); err == nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *CachedClient) writeCache(ctx context.Context, name string, versions []graph.Version) error {
	path := c.cachePath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lock := NewCacheLock(c.CacheDir)
	if err := lock.Lock(ctx); err != nil {
		return err
	}
	defer lock.Unlock()

	raw := make([]string, len(versions))
	for i, v := range versions {
		raw[i] = v.String()
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
