package manager

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"
)

const tailLimit = 4096

// lineLogger is the Stdout/Stderr sink of the subprocess. Complete lines are
// logged at debug level; the last few KiB are kept for error messages.
type lineLogger struct {
	log    zerolog.Logger
	stream string

	mu   sync.Mutex
	buf  []byte
	tail []byte
}

func newLineLogger(l zerolog.Logger, stream string) *lineLogger {
	return &lineLogger{log: l, stream: stream}
}

func (w *lineLogger) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tail = append(w.tail, p...)
	if len(w.tail) > tailLimit {
		w.tail = w.tail[len(w.tail)-tailLimit:]
	}
	w.buf = append(w.buf, p...)
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimRight(w.buf[:idx], "\r")
		if len(line) > 0 {
			w.log.Debug().Str("stream", w.stream).Msg(string(line))
		}
		w.buf = w.buf[idx+1:]
	}
	return len(p), nil
}

// Tail returns the most recent output.
func (w *lineLogger) Tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(bytes.TrimSpace(w.tail))
}
