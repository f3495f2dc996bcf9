package serialport

import (
	"sync"
	"time"
)

// FakePort is a test double that serves scripted bytes and records writes.
//
// Reads consume Chunks in order. An empty chunk simulates a read timeout
// (n == 0, nil error), matching real port semantics. Once all chunks are
// consumed, reads return ReadErr if set, otherwise keep timing out.
type FakePort struct {
	// Chunks contains scripted byte sequences to serve. A nil or empty
	// chunk is served as a single timed-out read.
	Chunks [][]byte

	// Writes records every Write payload.
	Writes [][]byte

	// ReadErr, if set, is returned by Read once Chunks are exhausted.
	ReadErr error

	// WriteErr, if set, is returned by Write.
	WriteErr error

	// Closed tracks if Close was called.
	Closed bool

	// ReadTimeout records the last SetReadTimeout value.
	ReadTimeout time.Duration

	mu    sync.Mutex
	chunk int
	off   int
}

// NewFakePort creates a FakePort serving the given chunks.
func NewFakePort(chunks ...[]byte) *FakePort {
	return &FakePort{Chunks: chunks}
}

// Read serves bytes from the current chunk, advancing to the next chunk
// when it is drained. Partial reads never span chunks, so a test can
// control exactly how bytes arrive.
func (f *FakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.chunk >= len(f.Chunks) {
		if f.ReadErr != nil {
			return 0, f.ReadErr
		}
		return 0, nil // timeout
	}

	c := f.Chunks[f.chunk]
	if len(c) == 0 {
		f.chunk++
		return 0, nil // scripted timeout
	}

	n := copy(p, c[f.off:])
	f.off += n
	if f.off >= len(c) {
		f.chunk++
		f.off = 0
	}
	return n, nil
}

// Write records the payload.
func (f *FakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteErr != nil {
		return 0, f.WriteErr
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	f.Writes = append(f.Writes, buf)
	return len(p), nil
}

// SetReadTimeout records the timeout.
func (f *FakePort) SetReadTimeout(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReadTimeout = d
	return nil
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Written returns all write payloads concatenated, for assertions on
// command byte streams.
func (f *FakePort) Written() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []byte
	for _, w := range f.Writes {
		out = append(out, w...)
	}
	return out
}

// Reset rewinds the port to the beginning of its script.
func (f *FakePort) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunk = 0
	f.off = 0
	f.Writes = nil
	f.Closed = false
}
