// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sandbox

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/karrick/godirwalk"
)

// copyDir takes in a directory and copies its contents to the destination,
// preserving file mode. godirwalk.Walk drives the recursion since the
// sandbox tree can be large and this is hit once per run per temp project.
func copyDir(src, dest string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dest, fi.Mode()); err != nil {
		return err
	}

	return godirwalk.Walk(src, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == src {
				return nil
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			target := filepath.Join(dest, rel)

			if de.IsSymlink() {
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				info, err := os.Lstat(path)
				if err != nil {
					return err
				}
				return os.MkdirAll(target, info.Mode())
			}
			return copyFile(path, target)
		},
		Unsorted: true,
	})
}

// copyFile copies a single manifest-directory file into the sandbox,
// preserving its permission bits.
func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	mode, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dest, mode.Mode())
}

// renameWithFallback moves a sandbox path into place, falling back to a
// copy-then-remove when the rename can't be done atomically: on Windows a
// directory rename across a junction boundary behaves unpredictably, and
// on any OS a rename across devices fails with syscall.EXDEV.
func renameWithFallback(src, dest string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	if runtime.GOOS == "windows" && info.IsDir() {
		return copyThenRemove(src, dest, info)
	}

	err = os.Rename(src, dest)
	if err == nil {
		return nil
	}

	linkErr, isLinkErr := err.(*os.LinkError)
	if !isLinkErr || linkErr.Err != syscall.EXDEV {
		return err
	}
	return copyThenRemove(src, dest, info)
}

func copyThenRemove(src, dest string, info os.FileInfo) error {
	var err error
	if info.IsDir() {
		err = copyDir(src, dest)
	} else {
		err = copyFile(src, dest)
	}
	if err != nil {
		return err
	}
	return os.RemoveAll(src)
}
