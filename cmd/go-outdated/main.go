// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command go-outdated displays how a project's dependencies compare
// against what the registry could resolve today: their current pinned
// version, the highest version satisfying the manifest's own
// requirements (compat), and the highest version available at all
// (latest).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kbknapp/go-outdated/internal/ctxdep"
	"github.com/kbknapp/go-outdated/internal/graph"
	"github.com/kbknapp/go-outdated/internal/manifest"
	"github.com/kbknapp/go-outdated/internal/optset"
	"github.com/kbknapp/go-outdated/internal/registry"
	"github.com/kbknapp/go-outdated/internal/report"
	"github.com/kbknapp/go-outdated/internal/resolve"
	"github.com/kbknapp/go-outdated/internal/sandbox"
	"github.com/kbknapp/go-outdated/internal/status"
	"github.com/kbknapp/go-outdated/internal/xerrors"
	"github.com/kbknapp/go-outdated/internal/xlog"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run builds and executes the cobra command, returning the process exit
// code rather than calling os.Exit itself so it stays testable.
func run(args []string) int {
	var flags optset.FlagInput
	var exitCode int

	cmd := &cobra.Command{
		Use:           "go-outdated",
		Short:         "Displays information about project dependency versions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.FeaturesSet = cmd.Flags().Changed("features")
			flags.DepthSet = cmd.Flags().Changed("depth")
			opts := optset.FromFlags(flags)

			xlog.Quiet = opts.Quiet
			xlog.Verbose = opts.Verbose > 0
			xlog.SetLevel(opts.Verbose)
			defer xlog.Sync()

			count, err := execute(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if count > 0 {
				exitCode = opts.ExitCode
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.Color, "color", "auto", "Coloring: auto, always, never")
	f.StringVar(&flags.Format, "format", "list", "Output format: list, json")
	f.StringArrayVar(&flags.Features, "features", nil, "Space- or comma-separated list of features")
	f.StringArrayVar(&flags.Ignore, "ignore", nil, "Names suppressed from output only")
	f.StringArrayVar(&flags.Exclude, "exclude", nil, "Names removed from sandbox manifests entirely")
	f.StringVarP(&flags.ManifestPath, "manifest-path", "m", "", "An absolute path to the manifest file to use")
	f.StringArrayVarP(&flags.Packages, "packages", "p", nil, "Restrict output to these package names")
	f.StringVarP(&flags.Root, "root", "r", "", "Package to treat as the root package")
	f.IntVarP(&flags.Depth, "depth", "d", -1, "How deep in the dependency chain to search")
	f.BoolVarP(&flags.RootDepsOnly, "root-deps-only", "R", false, "Only check root dependencies (equivalent to --depth=1)")
	f.BoolVarP(&flags.IgnoreExternalRel, "ignore-external-rel", "e", false, "Strip external path dependencies (implies --root-deps-only)")
	f.BoolVarP(&flags.Workspace, "workspace", "w", false, "Checks updates for all workspace members")
	f.BoolVarP(&flags.Aggressive, "aggressive", "a", false, "Ignore channels for latest updates")
	f.BoolVarP(&flags.Offline, "offline", "o", false, "Forbid network access; serve only the registry cache")
	f.BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppresses warnings")
	f.CountVarP(&flags.Verbose, "verbose", "v", "Use verbose output")
	f.IntVar(&flags.ExitCode, "exit-code", 0, "The exit code to return on new versions found")

	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "go-outdated:", err)
		return 1
	}
	return exitCode
}

// execute drives the three-resolution pipeline (current, compat, latest),
// diffs them, and prints the report. It returns the number of changed
// dependency rows reported, matching main.rs's execute()'s Ok(i) count.
func execute(ctx context.Context, opts optset.Options) (int, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return 0, errors.Wrap(err, "getting working directory")
	}

	xlog.Vlogf("loading current workspace")
	proj, err := ctxdep.Load(opts.ManifestPath, cwd)
	if err != nil {
		return 0, err
	}

	client := newRegistryClient(opts)
	resolver := &resolve.Greedy{Client: client}

	xlog.Vlogf("resolving current workspace")
	curr, err := resolver.Resolve(ctx, proj.Root, proj.Manifest, proj.Lock, opts)
	if err != nil {
		return 0, &xerrors.ResolverError{Phase: "current", Err: err}
	}

	cacheDir := registryCacheDir()

	xlog.Vlogf("building compat sandbox")
	compat, compatSkip, err := resolveSandboxed(ctx, proj.Root, cacheDir, opts, resolver, func(tp *sandbox.TempProject) error {
		return tp.RewriteCompat(opts)
	})
	if err != nil {
		return 0, &xerrors.ResolverError{Phase: "compat", Err: err}
	}

	xlog.Vlogf("building latest sandbox")
	latest, latestSkip, err := resolveSandboxed(ctx, proj.Root, cacheDir, opts, resolver, func(tp *sandbox.TempProject) error {
		if err := tp.RewriteCompat(opts); err != nil {
			return err
		}
		return rewriteEveryManifestToLatest(ctx, tp, client, opts)
	})
	if err != nil {
		return 0, &xerrors.ResolverError{Phase: "latest", Err: err}
	}

	skip := map[string]bool{}
	for name := range compatSkip {
		skip[name] = true
	}
	for name := range latestSkip {
		skip[name] = true
	}
	for _, name := range opts.Exclude {
		skip[name] = true
	}

	out := os.Stdout

	if curr.WorkspaceMode {
		members := sortedMembers(curr)
		sum := 0
		for _, member := range members {
			status.Resolve(curr, compat, latest, member, opts.Depth)
			rows := report.Collect(curr, member, opts, skip)
			if err := emit(out, opts, member.Name, rows, sum > 0); err != nil {
				return sum, err
			}
			sum += len(rows)
		}
		return sum, nil
	}

	root, err := curr.DetermineRoot(opts.Root)
	if err != nil {
		return 0, err
	}
	status.Resolve(curr, compat, latest, root, opts.Depth)
	rows := report.Collect(curr, root, opts, skip)
	if err := emit(out, opts, root.Name, rows, false); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// resolveSandboxed materializes a fresh sandbox from sourceRoot, applies
// rewrite (either RewriteCompat alone for the compat pass, or
// RewriteCompat followed by a latest-version rewrite for the latest
// pass), and resolves the result — with no original lockfile, so every
// dependency is pinned fresh against the (possibly rewritten)
// requirement in the manifest.
func resolveSandboxed(
	ctx context.Context,
	sourceRoot, cacheDir string,
	opts optset.Options,
	resolver *resolve.Greedy,
	rewrite func(*sandbox.TempProject) error,
) (*graph.Workspace, map[string]bool, error) {
	tp, err := sandbox.New(sourceRoot, cacheDir)
	if err != nil {
		return nil, nil, err
	}
	defer tp.Release()

	if err := tp.ExcludeDeps(opts.Exclude); err != nil {
		return nil, nil, err
	}
	if err := rewrite(tp); err != nil {
		return nil, nil, err
	}

	rootManifestPath := filepath.Join(tp.Root, manifest.ManifestName)
	data, err := os.ReadFile(rootManifestPath)
	if err != nil {
		return nil, nil, &xerrors.ParseError{Path: rootManifestPath, Err: err}
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, nil, &xerrors.ParseError{Path: rootManifestPath, Err: err}
	}

	w, err := resolver.Resolve(ctx, tp.Root, m, nil, opts)
	if err != nil {
		return nil, nil, err
	}
	return w, tp.Skipped, nil
}

// rewriteEveryManifestToLatest rewrites every manifest already copied
// into tp to reference the highest registry release for each dependency,
// the manifest-by-manifest analogue of RewriteCompat's path pass.
func rewriteEveryManifestToLatest(ctx context.Context, tp *sandbox.TempProject, client registry.SourceClient, opts optset.Options) error {
	return tp.ForEachManifest(func(_ string, m *manifest.Manifest) error {
		return tp.RewriteLatest(ctx, client, m, opts)
	})
}

func emit(w *os.File, opts optset.Options, rootName string, rows []report.Row, continued bool) error {
	if opts.Format == optset.FormatJSON {
		return report.WriteJSON(w, rootName, rows)
	}
	report.WriteList(w, rows, opts.Color, continued)
	return nil
}

func sortedMembers(w *graph.Workspace) []graph.PackageId {
	members := make([]graph.PackageId, 0, len(w.WorkspaceMembers))
	for id := range w.WorkspaceMembers {
		members = append(members, id)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members
}

func registryCacheDir() string {
	if home := os.Getenv("GOOUTDATED_HOME"); home != "" {
		return home
	}
	if cache, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cache, "go-outdated")
	}
	return filepath.Join(os.TempDir(), "go-outdated-cache")
}

func newRegistryClient(opts optset.Options) registry.SourceClient {
	baseURL := os.Getenv("GOOUTDATED_REGISTRY")
	inner := registry.NewHTTPClient(baseURL)
	return registry.NewCachedClient(inner, registryCacheDir(), opts.Offline)
}
