// Package ringbuf implements a dynamically growable byte buffer with
// separate read and write cursors, modeled on with-readline's buffer.c:
// append compacts in place when there's enough total free space, grows by
// doubling when there isn't, and a drain resets the cursors to the origin
// once fully consumed so the head space doesn't leak away permanently.
package ringbuf

import "io"

// Buffer is a growable byte region with readable bytes in [start, end) and
// total capacity len(data). It is not safe for concurrent use.
type Buffer struct {
	data  []byte
	start int
	end   int
}

// Append adds p to the buffer, compacting or growing the backing array as
// needed. The growth sequence doubles starting from 64 bytes.
func (b *Buffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}

	spare := len(b.data) - b.end
	if len(p) > spare {
		used := b.end - b.start
		if len(p) <= spare+b.start {
			// Enough total space: compact in place.
			copy(b.data, b.data[b.start:b.end])
			b.start = 0
			b.end = used
		} else {
			size := len(b.data)
			if size == 0 {
				size = 64
			}
			for size < len(p)+used {
				size *= 2
			}
			grown := make([]byte, size)
			copy(grown, b.data[b.start:b.end])
			b.data = grown
			b.start = 0
			b.end = used
		}
	}

	b.end += copy(b.data[b.end:], p)
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return b.end - b.start
}

// Bytes returns the unread portion of the buffer. The returned slice aliases
// the buffer's storage and is invalidated by the next Append.
func (b *Buffer) Bytes() []byte {
	return b.data[b.start:b.end]
}

// ReadByte consumes and returns the first unread byte. ok is false if the
// buffer is empty.
func (b *Buffer) ReadByte() (c byte, ok bool) {
	if b.start == b.end {
		return 0, false
	}
	c = b.data[b.start]
	b.start++
	if b.start == b.end {
		b.start, b.end = 0, 0
	}
	return c, true
}

// Clear discards all unread bytes and resets the cursors to the origin.
func (b *Buffer) Clear() {
	b.start, b.end = 0, 0
}

// DrainTo writes the unread bytes to w in a single call, advancing the read
// cursor by however much was written. If the buffer becomes fully drained
// the cursors reset to the origin to keep the head space reclaimed.
func (b *Buffer) DrainTo(w io.Writer) error {
	n, err := w.Write(b.data[b.start:b.end])
	b.start += n
	if b.start == b.end {
		b.start, b.end = 0, 0
	}
	return err
}
