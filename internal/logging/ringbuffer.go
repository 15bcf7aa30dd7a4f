package logging

import (
	"os"
	"sync"
)

// RingBuffer keeps the most recent bytes written to it. It backs the crash
// dump written when the CLI or server panics.
type RingBuffer struct {
	mu   sync.Mutex
	buf  []byte
	next int
	full bool
}

// NewRingBuffer returns a ring holding at most size bytes.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 4 * 1024 * 1024
	}
	return &RingBuffer{buf: make([]byte, size)}
}

// Write implements io.Writer; old data is overwritten once the ring is full.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(p)
	size := len(rb.buf)
	if n >= size {
		copy(rb.buf, p[n-size:])
		rb.next = 0
		rb.full = true
		return n, nil
	}

	written := copy(rb.buf[rb.next:], p)
	if written < n {
		copy(rb.buf, p[written:])
		rb.full = true
	}
	rb.next = (rb.next + n) % size
	if rb.next == 0 && n > 0 {
		rb.full = true
	}
	return n, nil
}

// Bytes returns the contents oldest first.
func (rb *RingBuffer) Bytes() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if !rb.full {
		return append([]byte(nil), rb.buf[:rb.next]...)
	}
	out := make([]byte, 0, len(rb.buf))
	out = append(out, rb.buf[rb.next:]...)
	return append(out, rb.buf[:rb.next]...)
}

// DumpToFile writes the contents to path.
func (rb *RingBuffer) DumpToFile(path string) error {
	return os.WriteFile(path, rb.Bytes(), 0o644)
}
