package transports

import (
	"io"
	"sync"
)

// MockTransport implements odrive.Transport for testing.
//
// Reads are served from a queue of chunks, one chunk per Read call. An
// empty chunk behaves like a serial read timeout (0, nil). Once the queue
// is exhausted Read returns io.EOF so a broken test fails instead of
// spinning.
type MockTransport struct {
	mu sync.Mutex

	// Chunks queued for Read, served in order.
	ReadChunks [][]byte
	// WriteErr, if set, is returned by every Write.
	WriteErr error
	// Writes records each Write call as a string.
	Writes []string
	// Reads counts Read calls.
	Reads int
	// Respond, if set, is called on each Write and its reply is queued
	// for reading. An empty reply queues nothing.
	Respond func(cmd string) string
	// Closed is set by Close.
	Closed bool
}

// NewMockTransport returns a mock that serves chunks in order.
func NewMockTransport(chunks ...string) *MockTransport {
	m := &MockTransport{}
	for _, c := range chunks {
		m.ReadChunks = append(m.ReadChunks, []byte(c))
	}
	return m
}

// Queue appends chunks to the read queue.
func (m *MockTransport) Queue(chunks ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.ReadChunks = append(m.ReadChunks, []byte(c))
	}
}

func (m *MockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Reads++
	if len(m.ReadChunks) == 0 {
		return 0, io.EOF
	}

	chunk := m.ReadChunks[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		m.ReadChunks[0] = chunk[n:]
	} else {
		m.ReadChunks = m.ReadChunks[1:]
	}
	return n, nil
}

func (m *MockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	cmd := string(p)
	m.Writes = append(m.Writes, cmd)
	if m.Respond != nil {
		if reply := m.Respond(cmd); reply != "" {
			m.ReadChunks = append(m.ReadChunks, []byte(reply))
		}
	}
	return len(p), nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Written returns a copy of every recorded write.
func (m *MockTransport) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Writes...)
}

// ReadCount returns the number of Read calls so far.
func (m *MockTransport) ReadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Reads
}

// Pending returns the number of chunks still queued.
func (m *MockTransport) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ReadChunks)
}
