//go:build !linux

package util

import (
	"errors"
	"syscall"
)

func renameNoReplace(src, dst string) error {
	return linkNoReplace(src, dst)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
