package runtime

import (
	"context"

	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/errors"
)

// Instance is a linked, running module. It owns its memories, tables,
// and globals; closing it releases them all and invalidates every
// borrowed view obtained from it.
//
// Instance is not goroutine-safe. Serialize access externally or keep
// one instance per worker.
type Instance struct {
	rt     *Runtime
	eng    *engine.Instance
	closed bool
}

// Call invokes the exported function name. The export is looked up and
// type-checked on every call: an unknown name, an arity mismatch, or a
// param kind mismatch fails before any guest code runs. A trap aborts
// only this call; the instance's mutable state is left exactly as it was
// at the trap point and it is the host's decision whether to keep using
// the instance.
func (i *Instance) Call(ctx context.Context, name string, params []wasmembed.Value) ([]wasmembed.Value, error) {
	if i.closed {
		return nil, i.rt.record(errors.Closed("instance"))
	}
	results, err := i.eng.Call(ctx, name, params)
	if err != nil {
		return nil, i.rt.record(err)
	}
	return results, nil
}

// CallInto is Call with a caller-supplied results buffer, which must be
// sized exactly to the function's declared result arity. On any failure
// zero results are written.
func (i *Instance) CallInto(ctx context.Context, name string, params, results []wasmembed.Value) error {
	if i.closed {
		return i.rt.record(errors.Closed("instance"))
	}

	_, declared, err := i.eng.FunctionKinds(name)
	if err != nil {
		return i.rt.record(err)
	}
	if len(results) != len(declared) {
		return i.rt.record(errors.Contract(errors.PhaseCall,
			"results buffer holds %d value(s), function %q declares %d",
			len(results), name, len(declared)))
	}

	out, err := i.eng.Call(ctx, name, params)
	if err != nil {
		return i.rt.record(err)
	}
	copy(results, out)
	return nil
}

// ExportNames returns the names of the instance's exported functions.
func (i *Instance) ExportNames() []string {
	if i.closed {
		return nil
	}
	return i.eng.ExportNames()
}

// FunctionKinds returns the declared parameter and result kinds of an
// exported function.
func (i *Instance) FunctionKinds(name string) (params, results []wasmembed.ValueKind, err error) {
	if i.closed {
		return nil, nil, i.rt.record(errors.Closed("instance"))
	}
	params, results, err = i.eng.FunctionKinds(name)
	if err != nil {
		return nil, nil, i.rt.record(err)
	}
	return params, results, nil
}

// Memory returns the instance's memory at index (only index 0 exists in
// this single-memory engine). The result is borrowed: it is valid until
// the instance is closed.
func (i *Instance) Memory(index uint32) (wasmembed.Memory, error) {
	if i.closed {
		return nil, i.rt.record(errors.Closed("instance"))
	}
	mem, err := i.eng.Memory(index)
	if err != nil {
		return nil, i.rt.record(err)
	}
	return &recordedMemory{inner: mem, rt: i.rt}, nil
}

// recordedMemory funnels failures of an instance memory through the
// runtime's error channel, so grow-past-max and out-of-bounds failures
// are reported the same way every other runtime operation is.
type recordedMemory struct {
	inner wasmembed.Memory
	rt    *Runtime
}

func (m *recordedMemory) Pages() uint32    { return m.inner.Pages() }
func (m *recordedMemory) DataSize() uint32 { return m.inner.DataSize() }
func (m *recordedMemory) Data() []byte     { return m.inner.Data() }

func (m *recordedMemory) Grow(delta uint32) error {
	return m.rt.record(m.inner.Grow(delta))
}

func (m *recordedMemory) Read(offset, length uint32) ([]byte, error) {
	b, err := m.inner.Read(offset, length)
	if err != nil {
		return nil, m.rt.record(err)
	}
	return b, nil
}

func (m *recordedMemory) Write(offset uint32, data []byte) error {
	return m.rt.record(m.inner.Write(offset, data))
}

// Close destroys the instance, transitively releasing every resource it
// owns. Outstanding memory views and InstanceContexts are invalid
// afterwards. A second Close is a contract violation.
func (i *Instance) Close(ctx context.Context) error {
	if i.closed {
		return i.rt.record(errors.Contract(errors.PhaseResource, "instance closed twice"))
	}
	i.closed = true
	if err := i.eng.Close(ctx); err != nil {
		return i.rt.record(errors.Wrap(errors.PhaseResource, errors.KindContract, err, "close instance"))
	}
	return nil
}
