// Package coretest provides an in-memory core.SignalConnection for tests.
package coretest

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/telemed/internal/core"
)

// Conn records every frame it accepts.
type Conn struct {
	id core.ConnID

	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func NewConn(id string) *Conn {
	return &Conn{id: core.ConnID(id)}
}

func (c *Conn) ID() core.ConnID { return c.id }

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// SetFull makes TrySend report backpressure.
func (c *Conn) SetFull(full bool) {
	c.mu.Lock()
	c.full = full
	c.mu.Unlock()
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) Frames() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// Messages decodes every frame as a JSON object.
func (c *Conn) Messages() []map[string]any {
	frames := c.Frames()
	out := make([]map[string]any, 0, len(frames))
	for _, f := range frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// OfType keeps only the messages whose "type" equals kind.
func (c *Conn) OfType(kind core.Kind) []map[string]any {
	var out []map[string]any
	for _, m := range c.Messages() {
		if m["type"] == string(kind) {
			out = append(out, m)
		}
	}
	return out
}

func (c *Conn) Reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}
