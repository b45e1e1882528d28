// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolve is the "resolver" black box: given a manifest (and,
// for the current workspace, its lockfile) it produces a fully pinned
// graph.Workspace. Nothing else in this module resolves versions itself;
// internal/graph only indexes what a Resolver hands it.
//
// Greedy is the reference, in-process implementation and the only one
// this module ships (the CLI always uses it): it pins each dependency to the
// lockfile's recorded version when one exists, and otherwise queries the
// registry and takes the highest release satisfying the declared
// requirement. It only resolves one hop past each workspace member,
// since going deeper would mean fetching the manifests of packages that
// live in the registry, not on disk — a capability no registry API this
// tool targets exposes generically. That is a deliberate scope limit,
// not an oversight; see DESIGN.md.
package resolve

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/kbknapp/go-outdated/internal/graph"
	"github.com/kbknapp/go-outdated/internal/manifest"
	"github.com/kbknapp/go-outdated/internal/optset"
	"github.com/kbknapp/go-outdated/internal/registry"
	"github.com/kbknapp/go-outdated/internal/sandbox"
)

// Resolver turns a manifest into a pinned Workspace.
type Resolver interface {
	Resolve(ctx context.Context, rootDir string, root *manifest.Manifest, lock *manifest.Lock, opts optset.Options) (*graph.Workspace, error)
}

// Greedy is the reference Resolver described in the package doc.
type Greedy struct {
	Client registry.SourceClient
}

func (g *Greedy) Resolve(ctx context.Context, rootDir string, root *manifest.Manifest, lock *manifest.Lock, opts optset.Options) (*graph.Workspace, error) {
	w := graph.NewWorkspace()
	w.RootManifestPath = filepath.Join(rootDir, manifest.ManifestName)
	w.WorkspaceMode = opts.Workspace || root.PackageName == ""

	lockVersions := map[string]string{}
	if lock != nil {
		for _, p := range lock.Package {
			lockVersions[p.Name] = p.Version
		}
	}

	type member struct {
		id  graph.PackageId
		dir string
		m   *manifest.Manifest
	}

	var members []member
	if root.Workspace != nil {
		for _, relPath := range root.Workspace.Members {
			dir := filepath.Join(rootDir, relPath)
			data, err := os.ReadFile(filepath.Join(dir, manifest.ManifestName))
			if err != nil {
				return nil, errors.Wrapf(err, "reading workspace member manifest at %s", dir)
			}
			sub, err := manifest.Parse(data)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing workspace member manifest at %s", dir)
			}
			v, err := graph.ParseVersion(sub.PackageVersion)
			if err != nil {
				return nil, errors.Wrapf(err, "workspace member %s has an invalid version", sub.PackageName)
			}
			members = append(members, member{
				id:  graph.PackageId{Name: sub.PackageName, Version: v},
				dir: dir,
				m:   sub,
			})
		}
	} else {
		v, err := graph.ParseVersion(root.PackageVersion)
		if err != nil {
			return nil, errors.Wrapf(err, "root package %s has an invalid version", root.PackageName)
		}
		members = append(members, member{id: graph.PackageId{Name: root.PackageName, Version: v}, dir: rootDir, m: root})
	}

	memberByName := map[string]graph.PackageId{}
	for _, mem := range members {
		memberByName[mem.id.Name] = mem.id
	}

	for _, mem := range members {
		w.WorkspaceMembers[mem.id] = true
		w.Packages[mem.id] = graph.PackageRecord{ID: mem.id, ManifestPath: filepath.Join(mem.dir, manifest.ManifestName), IsWorkspace: true}

		closure := sandbox.FeatureClosure(mem.m.Features, opts.Features, opts.AllFeatures, opts.NoDefaultFeatures)

		addEdges := func(deps map[string]manifest.DependencyValue, kind graph.DependencyKind) error {
			for name, dv := range deps {
				if !sandbox.DependencyEnabled(closure, name, dv.Optional) {
					continue
				}
				lookupName := name
				if dv.Package != "" {
					lookupName = dv.Package
				}

				if dv.Path != "" {
					if sibling, ok := memberByName[lookupName]; ok {
						w.Adjacency[mem.id] = append(w.Adjacency[mem.id], graph.DependencyEdge{
							To: sibling, Kind: kind, Optional: dv.Optional, Features: dv.Features, Requirement: dv.Version,
						})
						continue
					}

					localID, localManifestPath, err := readPathDependency(mem.dir, dv.Path)
					if err != nil {
						return errors.Wrapf(err, "reading path dependency %s", lookupName)
					}
					w.Packages[localID] = graph.PackageRecord{ID: localID, ManifestPath: localManifestPath}
					w.Adjacency[mem.id] = append(w.Adjacency[mem.id], graph.DependencyEdge{
						To: localID, Kind: kind, Optional: dv.Optional, Features: dv.Features, Requirement: dv.Version,
					})
					continue
				}

				id, err := g.pin(ctx, lookupName, dv.Version, lockVersions)
				if err != nil {
					return err
				}
				w.Packages[id] = graph.PackageRecord{ID: id}
				w.Adjacency[mem.id] = append(w.Adjacency[mem.id], graph.DependencyEdge{
					To: id, Kind: kind, Optional: dv.Optional, Features: dv.Features, Requirement: dv.Version,
				})
			}
			return nil
		}

		if err := addEdges(mem.m.Dependencies, graph.KindNormal); err != nil {
			return nil, err
		}
		if err := addEdges(mem.m.DevDependencies, graph.KindDevelopment); err != nil {
			return nil, err
		}
		if err := addEdges(mem.m.BuildDependencies, graph.KindBuild); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// readPathDependency resolves a path dependency that isn't a workspace
// member by reading its own manifest off disk for its real name and
// version, rather than querying the registry — a local, unpublished path
// dependency commonly has no registry entry at all, and its requirement
// string is often empty.
func readPathDependency(fromDir, relPath string) (graph.PackageId, string, error) {
	dir := filepath.Join(fromDir, relPath)
	manifestPath := filepath.Join(dir, manifest.ManifestName)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return graph.PackageId{}, "", err
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return graph.PackageId{}, "", err
	}
	v, err := graph.ParseVersion(m.PackageVersion)
	if err != nil {
		return graph.PackageId{}, "", errors.Wrapf(err, "package %s has an invalid version", m.PackageName)
	}
	return graph.PackageId{Name: m.PackageName, Version: v}, manifestPath, nil
}

// pin resolves one dependency requirement to a concrete PackageId: the
// lockfile's pinned version when one is recorded, otherwise the highest
// registry release satisfying the requirement (exact literal versions,
// as sandbox.RewriteLatest writes them, trivially "satisfy" themselves).
func (g *Greedy) pin(ctx context.Context, name, requirement string, lockVersions map[string]string) (graph.PackageId, error) {
	if lv, ok := lockVersions[name]; ok {
		v, err := graph.ParseVersion(lv)
		if err != nil {
			return graph.PackageId{}, errors.Wrapf(err, "lockfile has an invalid version for %s", name)
		}
		return graph.PackageId{Name: name, Version: v}, nil
	}

	if v, err := graph.ParseVersion(requirement); err == nil {
		return graph.PackageId{Name: name, Version: v}, nil
	}

	constraint, err := semver.NewConstraint(requirement)
	if err != nil {
		return graph.PackageId{}, errors.Wrapf(err, "invalid requirement %q for %s", requirement, name)
	}

	versions, err := g.Client.Versions(ctx, name, "")
	if err != nil {
		return graph.PackageId{}, err
	}

	best, ok := registry.FindCompat(versions, graph.Version{}, func(c graph.Version) bool {
		return constraint.Check(c.Semver())
	})
	if !ok {
		return graph.PackageId{}, errors.Errorf("no release of %s satisfies %q", name, requirement)
	}
	return graph.PackageId{Name: name, Version: best}, nil
}
