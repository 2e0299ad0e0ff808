//go:build !linux
// +build !linux

package stagebuf

import "syscall"

// platformReadv stub for non-Linux platforms.
func platformReadv(fd int, iovs [][]byte) (int, error) {
	return 0, syscall.ENOTSUP
}

// platformWrite stub for non-Linux platforms.
func platformWrite(fd int, p []byte) (int, error) {
	return 0, syscall.ENOTSUP
}

// platformWritev stub for non-Linux platforms.
func platformWritev(fd int, iovs [][]byte) (int, error) {
	return 0, syscall.ENOTSUP
}

// classify treats every error as fatal; the stubs never block.
func classify(err error) ErrorKind {
	return KindFatal
}
