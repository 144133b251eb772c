package odrive

import "io"

// Transport is the byte stream the client talks over.
//
// Write sends raw bytes. Read blocks for at most the transport's own read
// timeout and may return 0, nil when nothing arrived, which the client
// treats as "try again". A go.bug.st/serial Port satisfies this interface.
//
// The client never closes its transport; whoever opened it owns it.
type Transport interface {
	io.Reader
	io.Writer
}
