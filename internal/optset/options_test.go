// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitListWhitespaceAndComma(t *testing.T) {
	got := SplitList([]string{"a b,c", "d"})
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestRootDepsOnlyImpliesDepthOne(t *testing.T) {
	o := FromFlags(FlagInput{RootDepsOnly: true, Depth: 5, DepthSet: true})
	assert.Equal(t, 1, o.Depth)
}

func TestIgnoreExternalRelImpliesWorkspaceOnlyAndRootDepsOnly(t *testing.T) {
	o := FromFlags(FlagInput{IgnoreExternalRel: true})
	assert.True(t, o.RootDepsOnly)
	assert.True(t, o.WorkspaceOnly)
	assert.Equal(t, 1, o.Depth)
}

func TestDepthDefaultsUnbounded(t *testing.T) {
	o := FromFlags(FlagInput{})
	assert.Equal(t, -1, o.Depth)
}

func TestAllFeaturesWhenNotSet(t *testing.T) {
	o := FromFlags(FlagInput{})
	assert.True(t, o.AllFeatures)
	assert.False(t, o.NoDefaultFeatures)
}

func TestNoDefaultFeaturesWhenSetWithoutDefault(t *testing.T) {
	o := FromFlags(FlagInput{FeaturesSet: true, Features: []string{"foo", "bar"}})
	assert.False(t, o.AllFeatures)
	assert.True(t, o.NoDefaultFeatures)
}

func TestDefaultFeatureSuppressesNoDefaultFeatures(t *testing.T) {
	o := FromFlags(FlagInput{FeaturesSet: true, Features: []string{"default", "foo"}})
	assert.False(t, o.NoDefaultFeatures)
}
