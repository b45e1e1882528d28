// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xerrors collects the typed error values go-outdated raises, one
// type per category in the error taxonomy: configuration, input parse,
// resolver, registry, and internal invariant failures. Call sites wrap
// these with github.com/pkg/errors to attach the operation that failed;
// callers that need to branch on category use errors.As against the
// concrete types here rather than string matching.
package xerrors

import "fmt"

// Category classifies an error for exit-code and logging purposes.
type Category uint8

const (
	// CategoryConfiguration covers malformed CLI options or conflicting flags.
	CategoryConfiguration Category = iota
	// CategoryInputParse covers manifest/lockfile files that fail to parse.
	CategoryInputParse
	// CategoryResolver covers failures raised while driving the resolver.
	CategoryResolver
	// CategoryRegistry covers failures querying a registry for version info.
	// During the latest-version rewrite they are caught per-dependency and
	// degrade to a warning; a registry failure inside the resolver fails
	// that resolution pass.
	CategoryRegistry
	// CategoryInternal covers invariant violations that indicate a bug.
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryInputParse:
		return "input parse"
	case CategoryResolver:
		return "resolver"
	case CategoryRegistry:
		return "registry"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ConfigError reports a malformed or conflicting CLI/option configuration.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// ParseError reports a manifest or lockfile that could not be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResolverError reports a failure raised while invoking the resolver
// (the black-box collaborator that turns a manifest into a pinned graph).
type ResolverError struct {
	Phase string // "current", "compat", or "latest"
	Err   error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("resolver failed while building the %s workspace: %v", e.Phase, e.Err)
}

func (e *ResolverError) Unwrap() error { return e.Err }

// RegistryError reports a failure querying a registry for a specific
// package's release list. The latest-version rewrite logs it and leaves
// that dependency's requirement unchanged; the resolver returns it, which
// fails that resolution pass.
type RegistryError struct {
	Package string
	Err     error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry query for %q failed: %v", e.Package, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Invariant reports a violated internal invariant: a bug, not user error.
type Invariant struct {
	Msg string
}

func (e *Invariant) Error() string { return "internal invariant violated: " + e.Msg }

// Sentinel invariant errors mirroring error.rs's OutdatedError enum.
var (
	ErrCannotElaborateWorkspace = &Invariant{Msg: "cannot elaborate the workspace"}
	ErrEmptyPath                = &Invariant{Msg: "empty path has no last element"}
	ErrNoWorkspace              = &Invariant{Msg: "no workspace"}
	ErrNoMatchingDependency     = &ConfigError{Msg: "no matching dependency"}
)
