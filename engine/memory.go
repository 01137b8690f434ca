package engine

import (
	"strconv"

	"github.com/tetratelabs/wazero/api"

	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/errors"
)

// instanceMemory adapts a wazero api.Memory to the wasmembed.Memory
// interface. It is a borrowed view over memory owned by a running
// instance: it stays valid exactly as long as the instance does.
type instanceMemory struct {
	mem api.Memory
}

// WrapMemory adapts an instance-owned wazero memory.
func WrapMemory(mem api.Memory) wasmembed.Memory {
	return &instanceMemory{mem: mem}
}

func (m *instanceMemory) Pages() uint32 {
	return m.mem.Size() / wasmembed.PageSize
}

func (m *instanceMemory) DataSize() uint32 {
	return m.mem.Size()
}

func (m *instanceMemory) Data() []byte {
	size := m.mem.Size()
	if size == 0 {
		return nil
	}
	b, ok := m.mem.Read(0, size)
	if !ok {
		return nil
	}
	return b
}

func (m *instanceMemory) Grow(delta uint32) error {
	if _, ok := m.mem.Grow(delta); !ok {
		max := "unbounded"
		if maxPages, hasMax := m.mem.Definition().Max(); hasMax {
			max = "max " + strconv.FormatUint(uint64(maxPages), 10)
		}
		return errors.ResourceLimit("grow %d + %d pages rejected (%s)", m.Pages(), delta, max)
	}
	return nil
}

func (m *instanceMemory) Read(offset, length uint32) ([]byte, error) {
	b, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.Contract(errors.PhaseResource, "read [%d, %d) out of bounds (size %d)",
			offset, uint64(offset)+uint64(length), m.mem.Size())
	}
	return b, nil
}

func (m *instanceMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.Contract(errors.PhaseResource, "write [%d, %d) out of bounds (size %d)",
			offset, uint64(offset)+uint64(len(data)), m.mem.Size())
	}
	return nil
}
