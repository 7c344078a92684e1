package http

import (
	"bytes"
	"sync"
)

// LogBuffer is an io.Writer keeping the most recent log lines in memory so
// they can be served to administrators without shell access to the device.
type LogBuffer struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial []byte
}

// NewLogBuffer creates a ring buffer holding at most max lines.
func NewLogBuffer(max int) *LogBuffer {
	return &LogBuffer{max: max}
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.partial = append(b.partial, p...)
	for {
		i := bytes.IndexByte(b.partial, '\n')
		if i < 0 {
			break
		}
		b.lines = append(b.lines, string(b.partial[:i]))
		b.partial = b.partial[i+1:]
	}
	if over := len(b.lines) - b.max; over > 0 {
		b.lines = append(b.lines[:0], b.lines[over:]...)
	}
	return len(p), nil
}

// Lines returns a copy of the buffered log lines, oldest first.
func (b *LogBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}
