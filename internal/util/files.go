// Package util places files on disk without clobbering what is already there.
package util

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	ErrDestinationExists = errors.New("destination already exists")

	errCrossDevice = errors.New("cross-device move")
)

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == string(filepath.Separator) {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Move renames src to dst and fails with ErrDestinationExists when dst is
// already present, including when it appears while the move is running.
// Across filesystems the tree is copied into freshly created entries and the
// source removed afterwards.
func Move(src, dst string) error {
	if _, err := os.Lstat(src); err != nil {
		return err
	}
	if err := EnsureParentDir(dst); err != nil {
		return err
	}
	err := renameNoReplace(src, dst)
	if !errors.Is(err, errCrossDevice) {
		return err
	}
	if err := copyTree(src, dst); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return os.RemoveAll(src)
}

// linkNoReplace is the portable no-replace move. A hard link fails when dst
// exists, so the check and the placement are one step; only then is src
// dropped. Directories cannot be linked and fall back to check then rename.
func linkNoReplace(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		if _, err := os.Lstat(dst); err == nil {
			return ErrDestinationExists
		}
		if err := os.Rename(src, dst); err != nil {
			if isCrossDevice(err) {
				return errCrossDevice
			}
			return err
		}
		return nil
	}
	if err := os.Link(src, dst); err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return ErrDestinationExists
		case isCrossDevice(err):
			return errCrossDevice
		}
		return err
	}
	return os.Remove(src)
}

// copyTree copies src to dst creating every entry exclusively, so an existing
// destination is reported rather than overwritten.
func copyTree(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFileExclusive(src, dst, info.Mode().Perm())
	}
	if err := os.Mkdir(dst, info.Mode().Perm()); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrDestinationExists
		}
		return err
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == src {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.Mkdir(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFileExclusive(path, target, info.Mode().Perm())
	})
}

func copyFileExclusive(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrDestinationExists
		}
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
