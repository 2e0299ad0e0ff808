package stagebuf

import (
	"errors"
	"fmt"
)

// ErrorKind tells the owner of a descriptor how to react to a failed
// ReadFd or WriteFd.
type ErrorKind uint8

const (
	// KindFatal means the descriptor is broken; close it and drop the buffer.
	KindFatal ErrorKind = iota
	// KindTransient means the call would have blocked; retry on readiness.
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// FdError records a failed descriptor operation. Err is the platform errno
// (a syscall.Errno), so errors.Is(err, unix.EAGAIN) works as usual.
type FdError struct {
	Op   string
	Fd   int
	Kind ErrorKind
	Err  error
}

func newFdError(op string, fd int, err error) *FdError {
	return &FdError{
		Op:   op,
		Fd:   fd,
		Kind: classify(err),
		Err:  err,
	}
}

func (e *FdError) Error() string {
	return fmt.Sprintf("stagebuf: %s fd %d: %v (%s)", e.Op, e.Fd, e.Err, e.Kind)
}

func (e *FdError) Unwrap() error { return e.Err }

// Transient reports whether the operation may succeed if retried once the
// descriptor becomes ready.
func (e *FdError) Transient() bool { return e.Kind == KindTransient }

// IsTransient reports whether err is an *FdError of kind KindTransient.
func IsTransient(err error) bool {
	var fe *FdError
	return errors.As(err, &fe) && fe.Transient()
}

// IsFatal reports whether err is an *FdError of kind KindFatal.
func IsFatal(err error) bool {
	var fe *FdError
	return errors.As(err, &fe) && fe.Kind == KindFatal
}
