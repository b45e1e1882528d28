// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package registry implements component C4, querying a package registry
// for the set of published versions of a dependency and picking the
// compat/latest candidates out of that set (internal/registry/channel.go).
//
// The registry itself is a small interface rather than a concrete client
// tied to one ecosystem's wire format, because the spec this tool
// generalizes from talks to exactly one registry (crates.io); a client
// with the same shape but genuinely pluggable transport is the idiomatic
// Go rendition. HTTPClient is the reference implementation.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/kbknapp/go-outdated/internal/graph"
	"github.com/kbknapp/go-outdated/internal/xerrors"
)

// SourceClient fetches the published version list for one package.
type SourceClient interface {
	Versions(ctx context.Context, name, source string) ([]graph.Version, error)
}

// HTTPClient is a generic JSON-over-HTTP SourceClient: GET
// {BaseURL}/{name}/versions returning {"versions": ["1.0.0", ...]}.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPClient returns a client with sane timeouts for a CLI tool that
// must not hang indefinitely on a slow or unreachable registry.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type versionsResponse struct {
	Versions []string `json:"versions"`
}

func (c *HTTPClient) Versions(ctx context.Context, name, source string) ([]graph.Version, error) {
	url := fmt.Sprintf("%s/%s/versions", c.BaseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &xerrors.RegistryError{Package: name, Err: err}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &xerrors.RegistryError{Package: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &xerrors.RegistryError{Package: name, Err: fmt.Errorf("registry returned %s", resp.Status)}
	}

	var vr versionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, &xerrors.RegistryError{Package: name, Err: errors.Wrap(err, "decoding versions response")}
	}

	out := make([]graph.Version, 0, len(vr.Versions))
	for _, s := range vr.Versions {
		gv, err := graph.ParseVersion(s)
		if err != nil {
			continue // a malformed release on the registry shouldn't abort the whole query
		}
		out = append(out, gv)
	}
	return out, nil
}

// OfflineClient serves only what's already in a pre-populated in-memory
// cache, erroring on anything else. The CLI's --offline flag does not use
// it; that flag is served by CachedClient's on-disk cache.
type OfflineClient struct {
	Cache map[string][]graph.Version
}

func (c *OfflineClient) Versions(_ context.Context, name, _ string) ([]graph.Version, error) {
	v, ok := c.Cache[name]
	if !ok {
		return nil, &xerrors.RegistryError{Package: name, Err: fmt.Errorf("not available offline")}
	}
	return v, nil
}
