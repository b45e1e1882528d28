// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package registry

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kbknapp/go-outdated/internal/graph"
)

// ValidLatestVersion implements the channel-compatibility rule (§4.3.1): a
// "latest" candidate is only offered across a pre-release boundary when
// that boundary narrows, never widens, surprise:
//
//	requirement      candidate         valid?
//	stable           stable            yes
//	stable           pre-release       no   (never jump onto a channel unasked)
//	pre-release      stable            yes  (moving to stable is always fine)
//	pre-release      pre-release       only if both channels are numeric,
//	                                   or both are the same alphabetic
//	                                   identifier (e.g. both "beta")
//
// --aggressive bypasses this rule entirely.
func ValidLatestVersion(requirement, candidate graph.Version, aggressive bool) bool {
	if aggressive {
		return true
	}

	reqPre := requirement.IsPrerelease()
	candPre := candidate.IsPrerelease()

	switch {
	case !reqPre && !candPre:
		return true
	case !reqPre && candPre:
		return false
	case reqPre && !candPre:
		return true
	default: // both pre-release
		reqChannel, candChannel := channelOf(requirement), channelOf(candidate)
		if isNumeric(reqChannel) && isNumeric(candChannel) {
			return true
		}
		return reqChannel == candChannel
	}
}

// channelOf extracts the leading identifier of a version's pre-release
// component, e.g. "2.0.0-beta.3" -> "beta", "2.0.0-0.1" -> "0".
func channelOf(v graph.Version) string {
	pre := v.Semver().Prerelease()
	if pre == "" {
		return ""
	}
	parts := strings.SplitN(pre, ".", 2)
	return parts[0]
}

// isNumeric reports whether a pre-release channel identifier is entirely
// digits, matching semver's own numeric-identifier rule.
func isNumeric(channel string) bool {
	if channel == "" {
		return false
	}
	_, err := strconv.Atoi(channel)
	return err == nil
}

// FindLatest picks the "latest" candidate from a descending-sorted
// version list: the highest version that is strictly newer than current
// and passes the channel rule, falling back to the overall highest newer
// version (with ok still true, but fellBack true) if the channel rule
// excludes everything — the caller logs a warning in that case, matching
// find_update's eprintln-and-fall-back-to-overall-highest behavior.
func FindLatest(candidates []graph.Version, current graph.Version, aggressive bool) (best graph.Version, ok, fellBack bool) {
	sorted := sortedDescending(candidates)

	var overallHighest graph.Version
	haveOverall := false
	for _, v := range sorted {
		if !v.Less(current) && !v.Equal(current) {
			if !haveOverall {
				overallHighest = v
				haveOverall = true
			}
			if ValidLatestVersion(current, v, aggressive) {
				return v, true, false
			}
		}
	}
	if haveOverall {
		return overallHighest, true, true
	}
	return graph.Version{}, false, false
}

// FindCompat picks the highest candidate satisfying constraint (a
// compat-mode requirement string already parsed by the caller), or
// reports ok=false if none match.
func FindCompat(candidates []graph.Version, current graph.Version, satisfies func(graph.Version) bool) (best graph.Version, ok bool) {
	for _, v := range sortedDescending(candidates) {
		if satisfies(v) {
			return v, true
		}
	}
	return graph.Version{}, false
}

func sortedDescending(in []graph.Version) []graph.Version {
	out := append([]graph.Version{}, in...)
	sort.Slice(out, func(i, j int) bool {
		return out[j].Less(out[i])
	})
	return out
}
