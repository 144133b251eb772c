package odrive

import (
	"context"
	"strings"
)

// readBufferSize is the scratch buffer size for each transport read.
const readBufferSize = 256

// readLine reads from t until a '\n' arrives and returns the text before it.
//
// Bytes received after the first '\n' in the same accumulation are dropped:
// a command is expected to produce at most one line, so pipelined
// responses are not supported. The flush in GetFeedback exists to clear
// leftovers that arrived outside of any read.
//
// A zero-byte read is retried. readLine imposes no timeout of its own; it
// returns early only when ctx is done or the transport reports an error.
func readLine(ctx context.Context, t Transport) (string, error) {
	var acc strings.Builder
	buf := make([]byte, readBufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return "", &CommError{Op: "read", Err: err}
		}

		n, err := t.Read(buf)
		if n > 0 {
			acc.Write(buf[:n])
			if line, ok := firstLine(acc.String()); ok {
				return line, nil
			}
		}
		if err != nil {
			return "", &CommError{Op: "read", Err: err}
		}
	}
}

func firstLine(s string) (string, bool) {
	i := strings.IndexByte(s, lineTerminator)
	if i < 0 {
		return "", false
	}
	return s[:i], true
}
