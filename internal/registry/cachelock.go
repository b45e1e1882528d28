// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package registry

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// CacheLock guards the on-disk registry cache (GOOUTDATED_HOME) against
// concurrent writers with one exclusive file lock. CachedClient holds it
// only while writing a query's result to the cache file; the registry
// query itself and cache reads run without the lock.
type CacheLock struct {
	fl *flock.Flock
}

// NewCacheLock returns a lock over a ".lock" file inside cacheDir.
func NewCacheLock(cacheDir string) *CacheLock {
	return &CacheLock{fl: flock.New(filepath.Join(cacheDir, ".lock"))}
}

// Lock blocks until the cache lock is acquired or ctx is done.
func (c *CacheLock) Lock(ctx context.Context) error {
	ok, err := c.fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return errors.Wrap(err, "acquiring registry cache lock")
	}
	if !ok {
		return errors.New("could not acquire registry cache lock")
	}
	return nil
}

// Unlock releases the cache lock.
func (c *CacheLock) Unlock() error {
	return c.fl.Unlock()
}
