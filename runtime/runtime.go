package runtime

import (
	"context"

	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/lasterr"
	"github.com/wippyai/wasm-embed/resource"
)

// Runtime validates binaries, builds instances, and owns the last-error
// channel those operations report through.
type Runtime struct {
	engine *engine.Engine
	errs   lasterr.Channel
}

// Option configures a Runtime.
type Option func(*engine.Config)

// WithMemoryLimitPages caps the linear memory of every instance created
// by this runtime, in 64KB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(cfg *engine.Config) {
		cfg.MemoryLimitPages = pages
	}
}

// New creates a runtime.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	var cfg engine.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runtime{engine: engine.New(&cfg)}, nil
}

// Close releases all runtime resources.
// All instances must be closed before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

// Errors returns the runtime's last-error channel.
func (r *Runtime) Errors() *lasterr.Channel {
	return &r.errs
}

// Validate performs a structural and type check of a binary module. A
// non-conforming input yields false; nothing is recorded on the error
// channel because the false return is the complete answer.
func (r *Runtime) Validate(ctx context.Context, wasmBytes []byte) bool {
	return r.engine.Validate(ctx, wasmBytes)
}

// Instantiate compiles wasmBytes, resolves its imports against imports,
// allocates the module's declared resources, and runs its start function.
// On failure nothing is transferred to the caller: every resource the
// partial instance had begun allocating is released before return.
func (r *Runtime) Instantiate(ctx context.Context, wasmBytes []byte, imports *ImportObject) (*Instance, error) {
	inst := &Instance{rt: r}

	var hosts []engine.HostFunc
	if imports != nil {
		var err error
		hosts, err = imports.bind(inst)
		if err != nil {
			return nil, r.errs.Observe(err)
		}
	}

	eng, err := r.engine.Instantiate(ctx, wasmBytes, hosts)
	if err != nil {
		return nil, r.errs.Observe(err)
	}

	inst.eng = eng
	return inst, nil
}

// NewMemory creates a host-owned memory, recording any failure on the
// error channel. The caller must Close the result exactly once.
func (r *Runtime) NewMemory(limits wasmembed.Limits) (*resource.Memory, error) {
	mem, err := resource.NewMemory(limits)
	if err != nil {
		return nil, r.errs.Observe(err)
	}
	return mem, nil
}

// NewTable creates a host-owned table, recording any failure on the
// error channel.
func (r *Runtime) NewTable(limits wasmembed.Limits) (*resource.Table, error) {
	tbl, err := resource.NewTable(limits)
	if err != nil {
		return nil, r.errs.Observe(err)
	}
	return tbl, nil
}

// NewGlobal creates a host-owned global cell.
func (r *Runtime) NewGlobal(v wasmembed.Value, mutable bool) *resource.Global {
	return resource.NewGlobal(v, mutable)
}

// record funnels an operation's error through the channel; helpers on
// Instance use it so all failures surface in one place.
func (r *Runtime) record(err error) error {
	return r.errs.Observe(err)
}
