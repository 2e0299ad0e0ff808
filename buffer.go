// Package stagebuf provides a growable, cursor-based byte buffer for staging
// data between a socket file descriptor and protocol code. It decouples the
// rate and chunking of raw I/O from the framing needs of the consumer: writers
// append without worrying about capacity, readers inspect and consume partial
// messages without caring how many system calls produced them.
//
// Memory layout:
//
//	+-------------------+------------------+------------------+
//	| prependable bytes |  readable bytes  |  writable bytes  |
//	+-------------------+------------------+------------------+
//	0      <=       readPos      <=     writePos     <=     Cap()
//
// Key features:
//   - One contiguous store; Peek and BeginWrite return sub-slice views
//   - Compaction before growth: consumed space is reclaimed without allocating
//   - Vectored ReadFd: one readv(2) drains into free space plus a 64KB overflow
//   - Partial-write aware WriteFd and WritevFd
//   - ReadFromConn/WriteToConn for descriptors owned by the Go runtime poller
//
// Thread Safety:
//
//	Buffer is NOT safe for concurrent use. It is owned by exactly one
//	connection and never locks.
//
// Platform Support:
//   - ReadFd, WriteFd, WritevFd: Linux (other platforms return ENOTSUP)
//   - All other functions: Cross-platform
//
// Misuse of the cursor API (retrieving more than is readable, committing
// more than is writable) panics. Descriptor failures are returned as *FdError
// values classified as transient or fatal.
package stagebuf

import (
	"context"
	"io"
	"log/slog"
)

const (
	// DefaultSize is the initial capacity used when New is given a
	// non-positive size.
	DefaultSize = 1024

	// extraBufSize is the size of the call-scoped overflow area used by ReadFd.
	extraBufSize = 65535

	// minRead is the free space ReadFrom guarantees before each Read.
	minRead = 512
)

// Buffer is a contiguous byte store with a read cursor and a write cursor.
// The zero value is not usable; create buffers with New.
type Buffer struct {
	buf      []byte
	readPos  int
	writePos int

	clearOnDrain bool
	logger       *slog.Logger
}

// New returns a Buffer with size bytes of initial capacity. A size <= 0
// selects DefaultSize. Clear-on-drain is enabled.
func New(size int) *Buffer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Buffer{
		buf:          make([]byte, size),
		clearOnDrain: true,
	}
}

// WritableBytes returns the free space after the write cursor.
func (b *Buffer) WritableBytes() int {
	return len(b.buf) - b.writePos
}

// ReadableBytes returns the number of bytes written but not yet consumed.
func (b *Buffer) ReadableBytes() int {
	return b.writePos - b.readPos
}

// PrependableBytes returns the already-consumed space before the read cursor.
func (b *Buffer) PrependableBytes() int {
	return b.readPos
}

// Len is ReadableBytes, named after bytes.Buffer.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return b.ReadableBytes()
}

// Cap returns the size of the backing store.
func (b *Buffer) Cap() int {
	if b == nil {
		return 0
	}
	return len(b.buf)
}

// Peek returns the readable region without consuming it.
//
// WARNING: The returned slice aliases the buffer and is only valid until the
// next call that writes to or grows the buffer. Copy it to keep it.
func (b *Buffer) Peek() []byte {
	return b.buf[b.readPos:b.writePos:b.writePos]
}

// BeginWrite returns the writable region. Fill a prefix of it, then commit
// the bytes with HasWritten.
func (b *Buffer) BeginWrite() []byte {
	return b.buf[b.writePos:]
}

// HasWritten commits n bytes previously copied into BeginWrite().
// It panics if n is negative or exceeds WritableBytes.
func (b *Buffer) HasWritten(n int) {
	if n < 0 || n > b.WritableBytes() {
		panic("stagebuf: HasWritten out of range")
	}
	b.writePos += n
}

// Retrieve consumes n readable bytes.
// It panics if n is negative or exceeds ReadableBytes.
func (b *Buffer) Retrieve(n int) {
	if n < 0 || n > b.ReadableBytes() {
		panic("stagebuf: Retrieve out of range")
	}
	b.readPos += n
}

// RetrieveUntil consumes the readable bytes before end, an offset into
// Peek(). Parsers use it with the index of a delimiter they found:
//
//	if i := bytes.Index(buf.Peek(), crlf); i >= 0 {
//	    line := string(buf.Peek()[:i])
//	    buf.RetrieveUntil(i + len(crlf))
//	}
//
// It panics if end lies before the read cursor or past the readable region.
func (b *Buffer) RetrieveUntil(end int) {
	if end < 0 {
		panic("stagebuf: RetrieveUntil before read cursor")
	}
	b.Retrieve(end)
}

// RetrieveAll consumes everything and resets both cursors to zero. With
// clear-on-drain enabled the whole backing store is zeroed first, not just
// the consumed part.
func (b *Buffer) RetrieveAll() {
	if b.clearOnDrain {
		clear(b.buf)
	}
	b.readPos = 0
	b.writePos = 0
}

// RetrieveAllToString returns the readable region as a string and drains
// the buffer.
func (b *Buffer) RetrieveAllToString() string {
	s := string(b.Peek())
	b.RetrieveAll()
	return s
}

// RetrieveAllToBytes returns a copy of the readable region and drains the
// buffer. The result never aliases the backing store.
func (b *Buffer) RetrieveAllToBytes() []byte {
	p := append([]byte(nil), b.Peek()...)
	b.RetrieveAll()
	return p
}

// Append copies p into the writable region, making room first.
func (b *Buffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.EnsureWritable(len(p))
	copy(b.BeginWrite(), p)
	b.HasWritten(len(p))
}

// AppendString copies s into the writable region.
func (b *Buffer) AppendString(s string) {
	if len(s) == 0 {
		return
	}
	b.EnsureWritable(len(s))
	copy(b.BeginWrite(), s)
	b.HasWritten(len(s))
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(c byte) {
	b.EnsureWritable(1)
	b.buf[b.writePos] = c
	b.writePos++
}

// AppendBuffer copies the readable region of other. other is not consumed.
func (b *Buffer) AppendBuffer(other *Buffer) {
	if other == nil {
		return
	}
	b.Append(other.Peek())
}

// EnsureWritable makes sure at least n bytes can be written without further
// allocation, compacting or growing the store as needed.
func (b *Buffer) EnsureWritable(n int) {
	if b.WritableBytes() < n {
		b.makeSpace(n)
	}
	if b.WritableBytes() < n {
		panic("stagebuf: EnsureWritable postcondition violated")
	}
}

// makeSpace either compacts the readable region to the front of the store
// or, when even that would leave less than n bytes free, grows the store to
// at least writePos+n+1 bytes.
func (b *Buffer) makeSpace(n int) {
	ctx := context.Background()
	log := b.log()

	if b.WritableBytes()+b.PrependableBytes() < n {
		need := b.writePos + n + 1
		oldCap := len(b.buf)
		b.buf = append(b.buf, make([]byte, need-oldCap)...)
		b.buf = b.buf[:cap(b.buf)]
		if log.Enabled(ctx, slog.LevelDebug) {
			log.LogAttrs(ctx, slog.LevelDebug, "stagebuf: grow",
				slog.Int("old_cap", oldCap),
				slog.Int("cap", len(b.buf)),
				slog.Int("readable", b.ReadableBytes()),
				slog.Int("need", n),
			)
		}
		return
	}

	readable := b.ReadableBytes()
	copy(b.buf, b.buf[b.readPos:b.writePos])
	b.readPos = 0
	b.writePos = readable
	if readable != b.ReadableBytes() {
		panic("stagebuf: compaction changed readable length")
	}
	if log.Enabled(ctx, slog.LevelDebug) {
		log.LogAttrs(ctx, slog.LevelDebug, "stagebuf: compact",
			slog.Int("cap", len(b.buf)),
			slog.Int("readable", readable),
			slog.Int("need", n),
		)
	}
}

// SetClearOnDrain controls whether RetrieveAll zeroes the backing store.
// Returns the previous setting.
func (b *Buffer) SetClearOnDrain(on bool) bool {
	old := b.clearOnDrain
	b.clearOnDrain = on
	return old
}

// ClearOnDrain reports whether RetrieveAll zeroes the backing store.
func (b *Buffer) ClearOnDrain() bool {
	return b.clearOnDrain
}

// Write appends p. It implements io.Writer and never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.Append(p)
	return len(p), nil
}

// WriteString appends s. It implements io.StringWriter and never fails.
func (b *Buffer) WriteString(s string) (int, error) {
	b.AppendString(s)
	return len(s), nil
}

// WriteByte appends c. Implements io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	b.AppendByte(c)
	return nil
}

// Read copies readable bytes into p and consumes them.
// Returns io.EOF when nothing is readable and p is non-empty.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.ReadableBytes() == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.Peek())
	b.Retrieve(n)
	return n, nil
}

// ReadFrom appends data from r until EOF. EOF is not returned as an error.
func (b *Buffer) ReadFrom(r io.Reader) (n int64, err error) {
	for {
		b.EnsureWritable(minRead)
		m, er := r.Read(b.BeginWrite())
		if m < 0 {
			panic("stagebuf: reader returned negative count")
		}
		b.HasWritten(m)
		n += int64(m)
		if er == io.EOF {
			return n, nil
		}
		if er != nil {
			return n, er
		}
	}
}

// WriteTo writes the readable region to w, consuming what was written.
// A short write without an error is reported as io.ErrShortWrite.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	readable := b.ReadableBytes()
	if readable == 0 {
		return 0, nil
	}
	m, err := w.Write(b.Peek())
	if m > readable {
		panic("stagebuf: writer returned invalid count")
	}
	b.Retrieve(m)
	if err != nil {
		return int64(m), err
	}
	if m != readable {
		return int64(m), io.ErrShortWrite
	}
	return int64(m), nil
}

// String returns the readable region as a string without consuming it.
// Implements fmt.Stringer.
func (b *Buffer) String() string {
	if b == nil {
		return "<nil>"
	}
	return string(b.Peek())
}
