package tui

import "sync"

// RingBuffer keeps the most recent lines of a stream. The serve
// subprocess reader appends from its own goroutine while the dashboard
// snapshots on every poll.
type RingBuffer struct {
	mu    sync.Mutex
	max   int
	lines []string
}

// NewRingBuffer creates a buffer holding at most max lines.
func NewRingBuffer(max int) *RingBuffer {
	if max <= 0 {
		max = 500
	}
	return &RingBuffer{max: max}
}

// Append adds a line, evicting the oldest when full.
func (b *RingBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if len(b.lines) > b.max {
		b.lines = b.lines[len(b.lines)-b.max:]
	}
}

// Lines returns a copy of the buffered lines.
func (b *RingBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}
