//go:build linux
// +build linux

package stagebuf

import (
	"errors"

	"golang.org/x/sys/unix"
)

// platformReadv wraps readv(2), retrying on EINTR.
func platformReadv(fd int, iovs [][]byte) (int, error) {
	for {
		n, err := unix.Readv(fd, iovs)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

// platformWrite wraps write(2), retrying on EINTR.
func platformWrite(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Write(fd, p)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

// platformWritev wraps writev(2), retrying on EINTR.
func platformWritev(fd int, iovs [][]byte) (int, error) {
	for {
		n, err := unix.Writev(fd, iovs)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

// classify maps an errno to an ErrorKind. EAGAIN and EWOULDBLOCK share a
// value on Linux.
func classify(err error) ErrorKind {
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
		return KindTransient
	}
	return KindFatal
}
