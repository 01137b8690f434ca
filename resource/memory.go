package resource

import (
	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/errors"
)

// MaxPages is the hard page ceiling of a 32-bit linear memory (4 GiB).
const MaxPages = 65536

// Memory is a host-created linear memory with page-granularity limits.
// It implements wasmembed.Memory.
type Memory struct {
	buf    []byte
	limits wasmembed.Limits
	closed bool
}

var _ wasmembed.Memory = (*Memory)(nil)

// NewMemory allocates a memory of limits.Min pages. The caller owns the
// result and must Close it exactly once.
func NewMemory(limits wasmembed.Limits) (*Memory, error) {
	if !limits.Valid() {
		return nil, errors.Contract(errors.PhaseResource, "invalid limits: min %d > max %d", limits.Min, limits.Max)
	}
	if limits.Min > MaxPages || (limits.HasMax && limits.Max > MaxPages) {
		return nil, errors.ResourceLimit("limits exceed %d pages", MaxPages)
	}
	return &Memory{
		buf:    make([]byte, int(limits.Min)*wasmembed.PageSize),
		limits: limits,
	}, nil
}

// Limits returns the declared limits.
func (m *Memory) Limits() wasmembed.Limits { return m.limits }

// Pages returns the current size in pages.
func (m *Memory) Pages() uint32 {
	return uint32(len(m.buf) / wasmembed.PageSize)
}

// DataSize returns the current size in bytes.
func (m *Memory) DataSize() uint32 {
	return uint32(len(m.buf))
}

// Data returns a view of the whole memory, valid until the next
// successful Grow or Close.
func (m *Memory) Data() []byte {
	if m.closed {
		return nil
	}
	return m.buf
}

// Grow extends the memory by delta pages. On failure the memory is left
// unchanged. A successful Grow relocates the backing buffer, invalidating
// previously obtained Data views.
func (m *Memory) Grow(delta uint32) error {
	if m.closed {
		return errors.Closed("memory")
	}
	cur := uint64(m.Pages())
	next := cur + uint64(delta)
	if m.limits.HasMax && next > uint64(m.limits.Max) {
		return errors.ResourceLimit("grow %d + %d pages exceeds max %d", cur, delta, m.limits.Max)
	}
	if next > MaxPages {
		return errors.ResourceLimit("grow %d + %d pages exceeds %d", cur, delta, MaxPages)
	}
	if delta == 0 {
		return nil
	}

	grown := make([]byte, int(next)*wasmembed.PageSize)
	copy(grown, m.buf)
	m.buf = grown
	return nil
}

// Read returns a view of length bytes at offset. The view shares the
// backing buffer and has the same validity window as Data.
func (m *Memory) Read(offset, length uint32) ([]byte, error) {
	if m.closed {
		return nil, errors.Closed("memory")
	}
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.buf)) {
		return nil, errors.Contract(errors.PhaseResource, "read [%d, %d) out of bounds (size %d)", offset, end, len(m.buf))
	}
	return m.buf[offset:end:end], nil
}

// Write copies data into memory at offset.
func (m *Memory) Write(offset uint32, data []byte) error {
	if m.closed {
		return errors.Closed("memory")
	}
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(m.buf)) {
		return errors.Contract(errors.PhaseResource, "write [%d, %d) out of bounds (size %d)", offset, end, len(m.buf))
	}
	copy(m.buf[offset:], data)
	return nil
}

// Close releases the memory. A second Close is a contract violation.
func (m *Memory) Close() error {
	if m.closed {
		return errors.Contract(errors.PhaseResource, "memory closed twice")
	}
	m.closed = true
	m.buf = nil
	return nil
}
