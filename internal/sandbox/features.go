// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sandbox

import "strings"

// FeatureClosure computes the fixed-point set of enabled feature and
// optional-dependency names, starting from the requested feature list and
// expanding through the manifest's features table. A features table entry
// can name another feature, a bare optional dependency ("serde"), or an
// explicit dependency/feature pair ("serde/derive" or the weak form
// "serde?/derive") — all three are walked the same way the original's
// feature_includes worklist does: enqueue every name seen, dedupe with a
// visited set, stop when the worklist drains.
func FeatureClosure(features map[string][]string, requested []string, allFeatures, noDefaultFeatures bool) map[string]bool {
	visited := map[string]bool{}

	var worklist []string
	if allFeatures {
		for name := range features {
			worklist = append(worklist, name)
		}
	} else {
		worklist = append(worklist, requested...)
		if !noDefaultFeatures {
			if _, ok := features["default"]; ok {
				worklist = append(worklist, "default")
			}
		}
	}

	for len(worklist) > 0 {
		name := worklist[0]
		worklist = worklist[1:]

		depName := name
		if idx := strings.IndexAny(name, "/?"); idx >= 0 {
			depName = strings.TrimSuffix(name[:idx], "?")
		}
		if visited[depName] {
			continue
		}
		visited[depName] = true

		for _, sub := range features[depName] {
			subName := sub
			if idx := strings.IndexAny(sub, "/?"); idx >= 0 {
				subName = strings.TrimSuffix(sub[:idx], "?")
			}
			if !visited[subName] {
				worklist = append(worklist, sub)
			}
		}
	}

	return visited
}

// DependencyEnabled reports whether an optional dependency named depName
// is switched on by the closure: either it isn't optional at all, or its
// bare name made it into the closure.
func DependencyEnabled(closure map[string]bool, depName string, optional bool) bool {
	if !optional {
		return true
	}
	return closure[depName]
}
