package runtime

import (
	"context"
	"sync"

	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/errors"
)

// HostFunc is a host-provided import. It receives a per-call
// InstanceContext giving it access back into the calling instance for
// the duration of this one invocation, plus the decoded arguments. The
// returned values must match the registered result kinds or the guest
// call traps. Returning a non-nil error traps the guest call.
type HostFunc func(ictx *InstanceContext, args []wasmembed.Value) ([]wasmembed.Value, error)

type importEntry struct {
	fn      HostFunc
	params  []wasmembed.ValueKind
	results []wasmembed.ValueKind
	data    any
}

// ImportObject is a registry of host functions keyed by
// (namespace, name). It is populated by Register calls, consumed
// read-only by Instantiate, and may be reused across instantiations.
type ImportObject struct {
	mu     sync.RWMutex
	funcs  map[string]map[string]*importEntry
	order  []registeredName
	closed bool
}

type registeredName struct {
	ns   string
	name string
}

// NewImportObject creates an empty registry. The caller owns it and
// should pair it with one Close, though Close is optional for
// garbage-collected hosts.
func NewImportObject() *ImportObject {
	return &ImportObject{
		funcs: make(map[string]map[string]*importEntry),
	}
}

// Register adds a host function under (namespace, name) with its
// declared signature. data is an opaque value handed back to the
// function through InstanceContext.Data on every invocation.
//
// Duplicate (namespace, name) pairs and nil functions are rejected with
// an error; registration failures are not silent.
func (io *ImportObject) Register(namespace, name string, fn HostFunc, params, results []wasmembed.ValueKind, data any) error {
	if fn == nil {
		return errors.Contract(errors.PhaseHost, "register %s/%s with nil function", namespace, name)
	}

	io.mu.Lock()
	defer io.mu.Unlock()

	if io.closed {
		return errors.Closed("import object")
	}
	if io.funcs[namespace] == nil {
		io.funcs[namespace] = make(map[string]*importEntry)
	}
	if _, dup := io.funcs[namespace][name]; dup {
		return errors.Contract(errors.PhaseHost, "duplicate registration of %s/%s", namespace, name)
	}

	io.funcs[namespace][name] = &importEntry{
		fn:      fn,
		params:  params,
		results: results,
		data:    data,
	}
	io.order = append(io.order, registeredName{ns: namespace, name: name})
	return nil
}

// Len returns the number of registered functions.
func (io *ImportObject) Len() int {
	io.mu.RLock()
	defer io.mu.RUnlock()
	return len(io.order)
}

// Close marks the registry destroyed. Instances already created from it
// are unaffected; further Register calls fail.
func (io *ImportObject) Close() error {
	io.mu.Lock()
	defer io.mu.Unlock()
	if io.closed {
		return errors.Contract(errors.PhaseHost, "import object closed twice")
	}
	io.closed = true
	return nil
}

// bind snapshots the registry into engine host functions whose wrappers
// construct a fresh InstanceContext immediately before each callback and
// invalidate it on return.
func (io *ImportObject) bind(inst *Instance) ([]engine.HostFunc, error) {
	io.mu.RLock()
	defer io.mu.RUnlock()

	if io.closed {
		return nil, errors.Closed("import object")
	}

	hosts := make([]engine.HostFunc, 0, len(io.order))
	for _, rn := range io.order {
		entry := io.funcs[rn.ns][rn.name]
		hosts = append(hosts, engine.HostFunc{
			Namespace: rn.ns,
			Name:      rn.name,
			Params:    entry.params,
			Results:   entry.results,
			Invoke: func(ctx context.Context, mem wasmembed.Memory, args []wasmembed.Value) ([]wasmembed.Value, error) {
				ictx := &InstanceContext{inst: inst, mem: mem, data: entry.data, live: true}
				defer func() { ictx.live = false }()
				return entry.fn(ictx, args)
			},
		})
	}
	return hosts, nil
}

// InstanceContext is the capability handed to a host function, giving it
// controlled access back into the calling instance. It is constructed
// immediately before the callback and is valid only until the callback
// returns; retaining it past return yields dead accessors, not stale
// instance state.
type InstanceContext struct {
	inst *Instance
	mem  wasmembed.Memory
	data any
	live bool
}

// Instance returns the invoking instance, or nil once the callback has
// returned.
func (c *InstanceContext) Instance() *Instance {
	if !c.live {
		return nil
	}
	return c.inst
}

// Memory returns the calling instance's memory at index, or nil when the
// index is not 0, the instance has no memory, or the context has expired.
func (c *InstanceContext) Memory(index uint32) wasmembed.Memory {
	if !c.live || index != 0 {
		return nil
	}
	return c.mem
}

// Data returns the opaque value supplied at registration time.
func (c *InstanceContext) Data() any {
	return c.data
}
