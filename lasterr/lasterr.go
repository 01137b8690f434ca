// Package lasterr implements the last-error channel of the embedding
// boundary: a one-slot record of the most recent failure, overwritten by
// each new failure and never touched by operations that succeed.
//
// A Channel is scoped to one Runtime. The stale-read policy is explicit:
// the slot is not cleared on success, so a read after a successful
// operation returns the previous failure. Callers that need the detail of
// a specific failure must read the channel before the next fallible
// operation on the same Runtime.
package lasterr

import "sync"

// Channel holds the most recent recorded failure.
//
// The zero value is ready to use. Methods are safe for concurrent use,
// but the one-slot semantics mean concurrent writers race for the slot;
// keep a Channel per serialized execution context, the way Instances are
// kept per worker.
type Channel struct {
	mu  sync.Mutex
	err error
	msg []byte
}

// Record overwrites the slot with err. Recording nil is a no-op so that
// success paths can pass results through unconditionally.
func (c *Channel) Record(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.err = err
	c.msg = append(c.msg[:0], err.Error()...)
	c.mu.Unlock()
}

// Observe records err and returns it unchanged, for use in return
// statements of fallible operations.
func (c *Channel) Observe(err error) error {
	c.Record(err)
	return err
}

// Err returns the recorded error, or nil if none was ever recorded.
// The read is non-destructive.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Length returns the byte length of the recorded error message, or 0 if
// no error has been recorded.
func (c *Channel) Length() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msg)
}

// Message copies the recorded error message into buf and returns the
// number of bytes written. It returns -1 when no error is recorded or
// when buf is too small for the full message; use Length to size buf.
func (c *Channel) Message(buf []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return -1
	}
	if len(buf) < len(c.msg) {
		return -1
	}
	return copy(buf, c.msg)
}

// String returns the recorded message, or "" if none.
func (c *Channel) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.msg)
}
