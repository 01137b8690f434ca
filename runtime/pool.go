package runtime

import (
	"context"
	"sync"

	"github.com/wippyai/wasm-embed/errors"
)

// Pool recycles instances of one module, implementing the
// one-instance-per-worker pattern the concurrency contract asks of
// hosts. Linear memory never shrinks, so pooled instances retain their
// high-water memory; size the pool for steady-state workers and let
// overflow instances be closed on Put.
type Pool struct {
	rt      *Runtime
	wasm    []byte
	imports *ImportObject

	mu     sync.Mutex
	idle   []*Instance
	size   int
	closed bool
}

// NewPool creates a pool holding at most size idle instances of the
// module in wasmBytes. Instances are created lazily on Get.
func NewPool(rt *Runtime, wasmBytes []byte, imports *ImportObject, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		rt:      rt,
		wasm:    wasmBytes,
		imports: imports,
		size:    size,
	}
}

// Get returns an idle instance or instantiates a new one. The caller
// has exclusive use of it until Put.
func (p *Pool) Get(ctx context.Context) (*Instance, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, p.rt.record(errors.Closed("pool"))
	}
	if n := len(p.idle); n > 0 {
		inst := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return inst, nil
	}
	p.mu.Unlock()

	return p.rt.Instantiate(ctx, p.wasm, p.imports)
}

// Put returns an instance to the pool. Instances beyond the pool size,
// or returned after Close, are destroyed instead of retained. Pass a
// nil instance to drop one that trapped rather than recycle it.
func (p *Pool) Put(ctx context.Context, inst *Instance) {
	if inst == nil {
		return
	}

	p.mu.Lock()
	if !p.closed && len(p.idle) < p.size {
		p.idle = append(p.idle, inst)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	_ = inst.Close(ctx)
}

// Close destroys all idle instances. Instances currently checked out
// are closed by their holders via Put.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.Contract(errors.PhaseResource, "pool closed twice")
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var firstErr error
	for _, inst := range idle {
		if err := inst.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
