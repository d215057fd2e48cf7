package process

import (
	"strings"
	"sync"
)

// tailBuffer retains the most recent lines of child output. Capacity is
// fixed at construction; appending past it evicts the oldest line.
type tailBuffer struct {
	mu       sync.Mutex
	capacity int
	lines    []string
}

func newTailBuffer(capacity int) *tailBuffer {
	if capacity <= 0 {
		capacity = defaultTailLines
	}
	return &tailBuffer{capacity: capacity}
}

func (b *tailBuffer) append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) == b.capacity {
		copy(b.lines, b.lines[1:])
		b.lines = b.lines[:len(b.lines)-1]
	}
	b.lines = append(b.lines, line)
}

// snapshot returns a copy of the retained lines, oldest first.
func (b *tailBuffer) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// String renders the retained lines, each terminated with a newline.
func (b *tailBuffer) String() string {
	lines := b.snapshot()
	if len(lines) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
