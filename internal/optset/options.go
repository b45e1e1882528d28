// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package optset implements component C1: the read-only Options value
// derived from CLI flags, plus the selection fields (derived
// all-features/no-default-features, depth normalization) the rest of the
// pipeline consumes.
package optset

import "strings"

// ColorMode mirrors the --color flag.
type ColorMode uint8

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// Format mirrors the --format flag.
type Format uint8

const (
	FormatList Format = iota
	FormatJSON
)

// Options is the fully-derived, read-only configuration for one run.
// Nothing downstream mutates it; FromFlags is the only place it is built.
type Options struct {
	Color    ColorMode
	Format   Format
	Features []string
	Ignore   []string
	Exclude  []string

	// AllFeatures and NoDefaultFeatures are derived once in FromFlags from
	// whether --features was present at all and whether "default" was
	// among the values given.
	AllFeatures       bool
	NoDefaultFeatures bool

	ManifestPath string
	Packages     []string
	Root         string

	Depth             int // -1 means unbounded
	RootDepsOnly      bool
	IgnoreExternalRel bool
	Workspace         bool
	WorkspaceOnly     bool
	Aggressive        bool
	Offline           bool
	Quiet             bool
	Verbose           int
	ExitCode          int
}

// FlagInput is the raw set of flag values as the CLI layer parsed them,
// before the derivation rules in §6 are applied.
type FlagInput struct {
	Color             string
	FeaturesSet       bool
	Features          []string
	Ignore            []string
	Exclude           []string
	ManifestPath      string
	Packages          []string
	Root              string
	DepthSet          bool
	Depth             int
	RootDepsOnly      bool
	IgnoreExternalRel bool
	Workspace         bool
	Aggressive        bool
	Offline           bool
	Quiet             bool
	Verbose           int
	ExitCode          int
	Format            string
}

// SplitList splits on either ASCII whitespace or commas, matching the
// original CLI's value_delimiter behavior for --features/--ignore/--exclude/--packages.
func SplitList(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, field := range strings.FieldsFunc(r, func(c rune) bool {
			return c == ' ' || c == '\t' || c == '\n' || c == ','
		}) {
			if field != "" {
				out = append(out, field)
			}
		}
	}
	return out
}

// FromFlags applies the §6 derivation rules to raw flag input.
func FromFlags(in FlagInput) Options {
	o := Options{
		Features:          SplitList(in.Features),
		Ignore:            SplitList(in.Ignore),
		Exclude:           SplitList(in.Exclude),
		ManifestPath:      in.ManifestPath,
		Packages:          SplitList(in.Packages),
		Root:              in.Root,
		RootDepsOnly:      in.RootDepsOnly,
		IgnoreExternalRel: in.IgnoreExternalRel,
		Workspace:         in.Workspace,
		Aggressive:        in.Aggressive,
		Offline:           in.Offline,
		Quiet:             in.Quiet,
		Verbose:           in.Verbose,
		ExitCode:          in.ExitCode,
	}

	switch in.Color {
	case "always":
		o.Color = ColorAlways
	case "never":
		o.Color = ColorNever
	default:
		o.Color = ColorAuto
	}

	if in.Format == "json" {
		o.Format = FormatJSON
	}

	o.AllFeatures = !in.FeaturesSet
	o.NoDefaultFeatures = in.FeaturesSet && !contains(o.Features, "default")

	// --ignore-external-rel implies --root-deps-only and --workspace-only.
	if in.IgnoreExternalRel {
		o.RootDepsOnly = true
		o.WorkspaceOnly = true
	}

	// --root-deps-only (directly or implied) is equivalent to --depth=1.
	switch {
	case o.RootDepsOnly:
		o.Depth = 1
	case in.DepthSet:
		o.Depth = in.Depth
	default:
		o.Depth = -1
	}

	// WorkspaceOnly additionally forces root-deps-only semantics.
	if o.WorkspaceOnly {
		o.RootDepsOnly = true
		o.Depth = 1
	}

	return o
}

func contains(list []string, want string) bool {
	for _, f := range list {
		if f == want {
			return true
		}
	}
	return false
}
