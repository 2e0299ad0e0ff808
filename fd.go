package stagebuf

import (
	"io"
	"sync"
)

// extraPool lends the overflow area to one ReadFd call at a time. A borrowed
// array is used by exactly one call and returned before that call ends.
var extraPool = sync.Pool{
	New: func() any {
		return new([extraBufSize]byte)
	},
}

// ReadFd reads from fd with a single readv(2) into two places: the writable
// region and a 64KB overflow area borrowed for the duration of this call.
// Whatever lands in the overflow is appended afterwards, growing or
// compacting the store, so one system call can take in more than currently
// fits.
//
// The returned count is the raw number of bytes the kernel delivered. On
// failure the buffer is untouched and err is an *FdError; use IsTransient to
// tell a would-block condition from a broken descriptor. A zero-byte read
// means the peer closed and is reported as io.EOF.
func (b *Buffer) ReadFd(fd int) (int, error) {
	return b.readVec(func(iovs [][]byte) (int, error) {
		n, err := platformReadv(fd, iovs)
		if err != nil {
			return 0, newFdError("readv", fd, err)
		}
		return n, nil
	})
}

// readVec performs the scatter read through readv, which must fill iovs in
// order and report the total.
func (b *Buffer) readVec(readv func(iovs [][]byte) (int, error)) (int, error) {
	extra := extraPool.Get().(*[extraBufSize]byte)
	defer extraPool.Put(extra)
	writable := b.WritableBytes()

	n, err := readv([][]byte{b.BeginWrite(), extra[:]})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	if n > writable+len(extra) {
		panic("stagebuf: readv reported more bytes than requested")
	}

	if n <= writable {
		b.writePos += n
	} else {
		b.writePos = len(b.buf)
		b.Append(extra[:n-writable])
	}
	return n, nil
}

// ReadFdAll calls ReadFd until the descriptor would block, which is what an
// edge-triggered owner must do after a readiness notification. Running dry
// is not an error: the total is returned with a nil error. io.EOF and fatal
// errors are returned together with the bytes read before them.
func (b *Buffer) ReadFdAll(fd int) (int, error) {
	total := 0
	for {
		n, err := b.ReadFd(fd)
		total += n
		if err != nil {
			if IsTransient(err) {
				return total, nil
			}
			return total, err
		}
	}
}

// WriteFd writes the readable region to fd with a single write(2) and
// consumes what the kernel accepted. Partial writes are normal; call again
// until ReadableBytes is zero. On failure the read cursor is left alone so
// the write can be retried, and err is an *FdError.
func (b *Buffer) WriteFd(fd int) (int, error) {
	if b.ReadableBytes() == 0 {
		return 0, nil
	}
	n, err := platformWrite(fd, b.Peek())
	if err != nil {
		return 0, newFdError("write", fd, err)
	}
	b.Retrieve(n)
	return n, nil
}

// WritevFd writes the readable region followed by tail with one writev(2).
// It is meant for a staged header plus a body the buffer does not own, such
// as a mapped file. tailN reports how much of tail was sent so the caller
// can re-slice it for the next attempt. Once the whole readable region is
// out, the buffer is drained with RetrieveAll.
func (b *Buffer) WritevFd(fd int, tail []byte) (n, tailN int, err error) {
	return b.writeVec(tail, func(iovs [][]byte) (int, error) {
		n, err := platformWritev(fd, iovs)
		if err != nil {
			return 0, newFdError("writev", fd, err)
		}
		return n, nil
	})
}

func (b *Buffer) writeVec(tail []byte, writev func(iovs [][]byte) (int, error)) (n, tailN int, err error) {
	readable := b.ReadableBytes()
	if readable+len(tail) == 0 {
		return 0, 0, nil
	}

	n, err = writev([][]byte{b.Peek(), tail})
	if err != nil {
		return 0, 0, err
	}
	if n > readable+len(tail) {
		panic("stagebuf: writev reported more bytes than requested")
	}

	if n >= readable {
		tailN = n - readable
		b.RetrieveAll()
	} else {
		b.Retrieve(n)
	}
	return n, tailN, nil
}
