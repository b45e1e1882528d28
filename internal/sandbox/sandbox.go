// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sandbox implements component C3: building an isolated, writable
// copy of the workspace manifests so a resolver can be re-run twice
// (compat and latest) without ever touching the user's own project files.
package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/kbknapp/go-outdated/internal/graph"
	"github.com/kbknapp/go-outdated/internal/manifest"
	"github.com/kbknapp/go-outdated/internal/optset"
	"github.com/kbknapp/go-outdated/internal/registry"
	"github.com/kbknapp/go-outdated/internal/xlog"
)

// TempProject is a scoped sandbox: a directory tree mirroring the
// workspace-member-reachable manifests, safe to rewrite and re-resolve.
// Its lifetime must be released on every exit path, success or error —
// callers defer Release() immediately after a successful New call.
type TempProject struct {
	Root       string
	sourceRoot string
	cacheDir   string

	// manifests maps the sandbox copy's manifest path back to the
	// original source path it was copied from.
	manifests map[string]string

	// Skipped collects path dependencies dropped from the sandbox rather
	// than rewritten to an absolute path, when WorkspaceOnly scoping
	// excludes them. Status entries for skipped dependencies are
	// suppressed by the caller.
	Skipped map[string]bool

	released bool
}

// New materializes a sandbox from every manifest file found under
// sourceRoot outside cacheDir (the registry cache, the analogue of
// CARGO_HOME), copying each one's whole directory. Manifests are found by
// walking the directory tree, not by following dependencies, so a
// manifest under sourceRoot is copied whether or not any workspace member
// depends on it.
func New(sourceRoot, cacheDir string) (*TempProject, error) {
	root := filepath.Join(os.TempDir(), "go-outdated-"+uuid.NewString())
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating sandbox root")
	}

	tp := &TempProject{
		Root:       root,
		sourceRoot: sourceRoot,
		cacheDir:   cacheDir,
		manifests:  map[string]string{},
		Skipped:    map[string]bool{},
	}

	paths, err := manifestPaths(sourceRoot, cacheDir)
	if err != nil {
		tp.Release()
		return nil, err
	}

	for _, src := range paths {
		rel, err := filepath.Rel(sourceRoot, src)
		if err != nil {
			tp.Release()
			return nil, err
		}
		dest := filepath.Join(root, rel)
		if err := copyDir(filepath.Dir(src), filepath.Dir(dest)); err != nil {
			tp.Release()
			return nil, errors.Wrapf(err, "copying manifest directory for %s", src)
		}
		tp.manifests[dest] = src

		if err := stripBuildTriggers(dest); err != nil {
			tp.Release()
			return nil, err
		}
	}

	return tp, nil
}

// Release removes the sandbox directory. Safe to call multiple times.
func (tp *TempProject) Release() error {
	if tp.released {
		return nil
	}
	tp.released = true
	return os.RemoveAll(tp.Root)
}

// manifestPaths walks sourceRoot collecting every manifest file, skipping
// anything under cacheDir — mirrors the original's manifest_paths DFS,
// expressed as a directory walk since this tool has no in-process
// package-graph to recurse over yet (that's built from the result).
func manifestPaths(sourceRoot, cacheDir string) ([]string, error) {
	var out []string
	err := godirwalk.Walk(sourceRoot, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if cacheDir != "" && (path == cacheDir || strings.HasPrefix(path, cacheDir+string(filepath.Separator))) {
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				return nil
			}
			if filepath.Base(path) == manifest.ManifestName {
				out = append(out, path)
			}
			return nil
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking workspace for manifests")
	}
	return out, nil
}

// stripBuildTriggers re-encodes a copied manifest through manifest.Encode
// and writes an empty src/lib.placeholder file beside it. It does not
// remove default-run/links/build keys and adds no bin or lib entries:
// keys outside the dependency tables are written back unchanged.
func stripBuildTriggers(manifestDir string) error {
	path := filepath.Join(manifestDir, manifest.ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "reading %s", path)
	}

	m, err := manifest.Parse(data)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}

	// Placeholder source files so the manifest's lib/bin targets resolve
	// without requiring the real sources to have been copied.
	if err := writePlaceholderSource(manifestDir); err != nil {
		return err
	}

	out, err := m.Encode()
	if err != nil {
		return errors.Wrapf(err, "re-encoding %s", path)
	}
	return os.WriteFile(path, out, 0o644)
}

func writePlaceholderSource(manifestDir string) error {
	srcDir := filepath.Join(manifestDir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(srcDir, "lib.placeholder"), []byte{}, 0o644)
}

// ExcludeDeps removes named dependencies from every copied manifest before
// either rewrite mode runs, backing --exclude's "vanish from the sandbox
// entirely" scope (as opposed to --ignore, which only hides a name from
// the report).
func (tp *TempProject) ExcludeDeps(names []string) error {
	if len(names) == 0 {
		return nil
	}
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	return tp.forEachManifest(func(_ string, m *manifest.Manifest) error {
		excludeFrom(m.Dependencies, set)
		excludeFrom(m.DevDependencies, set)
		excludeFrom(m.BuildDependencies, set)
		for _, tt := range m.Target {
			excludeFrom(tt.Dependencies, set)
			excludeFrom(tt.DevDependencies, set)
			excludeFrom(tt.BuildDependencies, set)
		}
		return nil
	})
}

func excludeFrom(deps map[string]manifest.DependencyValue, set map[string]bool) {
	for name := range deps {
		if set[name] {
			delete(deps, name)
		}
	}
}

// RewriteCompat rewrites only path-dependency entries to absolute paths
// pointing into the sandbox, leaving every version requirement exactly as
// written — the "preserve requirements, just make paths resolvable" mode
// used for the compat re-resolution.
func (tp *TempProject) RewriteCompat(opts optset.Options) error {
	return tp.forEachManifest(func(destDir string, m *manifest.Manifest) error {
		tp.rewritePathDeps(destDir, m.Dependencies, opts)
		tp.rewritePathDeps(destDir, m.DevDependencies, opts)
		tp.rewritePathDeps(destDir, m.BuildDependencies, opts)
		for _, tt := range m.Target {
			tp.rewritePathDeps(destDir, tt.Dependencies, opts)
			tp.rewritePathDeps(destDir, tt.DevDependencies, opts)
			tp.rewritePathDeps(destDir, tt.BuildDependencies, opts)
		}
		return nil
	})
}

// rewritePathDeps canonicalizes each path dependency to an absolute path
// inside the sandbox, or — when WorkspaceOnly scoping is active and the
// sandbox copy for that path doesn't exist — drops the dependency
// entirely and records it in Skipped so status reporting suppresses it.
func (tp *TempProject) rewritePathDeps(destDir string, deps map[string]manifest.DependencyValue, opts optset.Options) {
	for name, dv := range deps {
		if dv.Path == "" {
			continue
		}
		abs := filepath.Clean(filepath.Join(destDir, dv.Path))
		if _, err := os.Stat(filepath.Join(abs, manifest.ManifestName)); err != nil {
			if opts.WorkspaceOnly {
				tp.Skipped[name] = true
				delete(deps, name)
				continue
			}
		}
		dv.Path = abs
		deps[name] = dv
	}
}

// RewriteLatest rewrites every normal/dev/build dependency's version to
// the highest release the registry offers (subject to the channel rule
// and feature-closure gating). Path dependencies are skipped here; their
// paths are rewritten by RewriteCompat. Registry failures degrade to a logged warning
// and leave that single dependency's requirement untouched; they never
// abort the rest of the manifest.
func (tp *TempProject) RewriteLatest(ctx context.Context, client registry.SourceClient, m *manifest.Manifest, opts optset.Options) error {
	closure := FeatureClosure(m.Features, opts.Features, opts.AllFeatures, opts.NoDefaultFeatures)

	rewrite := func(deps map[string]manifest.DependencyValue) {
		for name, dv := range deps {
			if dv.Path != "" {
				continue // handled by path rewriting, not a version lookup
			}
			if !DependencyEnabled(closure, name, dv.Optional) {
				continue
			}
			lookupName := name
			if dv.Package != "" {
				lookupName = dv.Package
			}

			current, err := graph.ParseVersion(bareVersion(dv.Version))
			if err != nil {
				continue
			}

			versions, err := client.Versions(ctx, lookupName, "")
			if err != nil {
				xlog.Warn("could not query registry for %s: %v", lookupName, err)
				continue
			}

			best, ok, fellBack := registry.FindLatest(versions, current, opts.Aggressive)
			if !ok {
				continue
			}
			if fellBack {
				xlog.Warn("no release of %s satisfies the channel rule; using highest available %s", lookupName, best)
			}
			dv.Version = best.String()
			deps[name] = dv
		}
	}

	rewrite(m.Dependencies)
	rewrite(m.DevDependencies)
	rewrite(m.BuildDependencies)
	for _, tt := range m.Target {
		rewrite(tt.Dependencies)
		rewrite(tt.DevDependencies)
		rewrite(tt.BuildDependencies)
	}

	return nil
}

func bareVersion(requirement string) string {
	r := strings.TrimSpace(requirement)
	for _, prefix := range []string{"^", "~", ">=", ">", "=", "<=", "<"} {
		r = strings.TrimPrefix(r, prefix)
	}
	return strings.TrimSpace(r)
}

// ForEachManifest parses every manifest copied into the sandbox, hands it
// to fn for in-place mutation, then re-encodes and writes it back. Used by
// callers driving a manifest-level rewrite this package doesn't already
// expose as a named method, such as the latest-version pass.
func (tp *TempProject) ForEachManifest(fn func(destDir string, m *manifest.Manifest) error) error {
	return tp.forEachManifest(fn)
}

func (tp *TempProject) forEachManifest(fn func(destDir string, m *manifest.Manifest) error) error {
	for dest := range tp.manifests {
		data, err := os.ReadFile(dest)
		if err != nil {
			return err
		}
		m, err := manifest.Parse(data)
		if err != nil {
			return err
		}
		if err := fn(filepath.Dir(dest), m); err != nil {
			return err
		}
		out, err := m.Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(dest, out, 0o644); err != nil {
			return err
		}
	}
	return nil
}
