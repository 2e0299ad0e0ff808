package stagebuf

import (
	"errors"
	"syscall"
)

// ErrNilConn is returned by ReadFromConn and WriteToConn when given a nil conn.
var ErrNilConn = errors.New("stagebuf: nil conn")

// ReadFromConn performs ReadFd on the descriptor behind c, letting the Go
// runtime poller wait while the descriptor has nothing to read. It works with
// *net.TCPConn, *net.UnixConn, *os.File and anything else that implements
// syscall.Conn. The connection is only borrowed; it is never closed here.
//
// Returns the bytes read by the one successful readv, io.EOF if the peer
// closed, or the fatal *FdError.
func (b *Buffer) ReadFromConn(c syscall.Conn) (int, error) {
	if c == nil {
		return 0, ErrNilConn
	}
	raw, err := c.SyscallConn()
	if err != nil {
		return 0, err
	}

	var (
		n     int
		opErr error
	)
	err = raw.Read(func(fd uintptr) bool {
		n, opErr = b.ReadFd(int(fd))
		// Returning false parks the goroutine until the fd is readable.
		return !IsTransient(opErr)
	})
	if err != nil {
		return n, err
	}
	return n, opErr
}

// WriteToConn writes the whole readable region to the descriptor behind c,
// issuing as many write(2) calls as partial writes require and waiting on
// the runtime poller whenever the descriptor would block.
//
// Returns the total written. On a fatal error the bytes that did go out
// have already been consumed.
func (b *Buffer) WriteToConn(c syscall.Conn) (int, error) {
	if c == nil {
		return 0, ErrNilConn
	}
	raw, err := c.SyscallConn()
	if err != nil {
		return 0, err
	}

	var (
		total int
		opErr error
	)
	err = raw.Write(func(fd uintptr) bool {
		for b.ReadableBytes() > 0 {
			n, werr := b.WriteFd(int(fd))
			total += n
			if werr != nil {
				if IsTransient(werr) {
					return false
				}
				opErr = werr
				return true
			}
		}
		return true
	})
	if err != nil {
		return total, err
	}
	return total, opErr
}
