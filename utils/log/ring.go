package log

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

const DefaultRingSize = 200

// Ring keeps the most recent recorder messages in the short "[HH:mm:ss] msg" form
// shown by the interactive session.
type Ring struct {
	mu        sync.Mutex
	size      int
	entries   []string
	listeners []func([]string)
}

func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{size: size}
}

func (r *Ring) Info(at time.Time, msg string) {
	r.add("[" + at.Format("15:04:05") + "] " + msg)
}

func (r *Ring) Error(at time.Time, msg string) {
	r.add("[" + at.Format("15:04:05") + "] ERROR: " + msg)
}

// OnUpdate registers fn to receive a copy of the entries after every append.
func (r *Ring) OnUpdate(fn func([]string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Ring) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Ring) add(line string) {
	r.mu.Lock()
	if len(r.entries) >= r.size {
		r.entries = r.entries[1:]
	}
	r.entries = append(r.entries, line)
	snapshot := make([]string, len(r.entries))
	copy(snapshot, r.entries)
	listeners := append([]func([]string){}, r.listeners...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// RingCore is a zapcore.Core that mirrors entries at or above minLevel into a Ring.
// Structured fields are dropped.
type RingCore struct {
	ring     *Ring
	minLevel zapcore.Level
}

func NewRingCore(r *Ring, minLevel zapcore.Level) *RingCore {
	return &RingCore{ring: r, minLevel: minLevel}
}

func (c *RingCore) Enabled(level zapcore.Level) bool {
	return level >= c.minLevel
}

func (c *RingCore) With(_ []zapcore.Field) zapcore.Core {
	return c
}

func (c *RingCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *RingCore) Write(entry zapcore.Entry, _ []zapcore.Field) error {
	if entry.Level >= zapcore.ErrorLevel {
		c.ring.Error(entry.Time, entry.Message)
		return nil
	}
	c.ring.Info(entry.Time, entry.Message)
	return nil
}

func (c *RingCore) Sync() error {
	return nil
}
