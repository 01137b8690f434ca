package resource

import (
	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/errors"
)

// GlobalDescriptor describes a Global's fixed type.
type GlobalDescriptor struct {
	Kind    wasmembed.ValueKind
	Mutable bool
}

// Global is a typed storage cell. Its value kind is fixed at creation;
// Set on an immutable global, or with a value of the wrong kind, is
// rejected with a contract violation and never changes the cell.
type Global struct {
	val     wasmembed.Value
	mutable bool
	closed  bool
}

// NewGlobal creates a global holding v. The caller owns the result and
// must Close it exactly once.
func NewGlobal(v wasmembed.Value, mutable bool) *Global {
	return &Global{val: v, mutable: mutable}
}

// Get returns the current value, tagged with the global's fixed kind.
func (g *Global) Get() wasmembed.Value {
	return g.val
}

// Set replaces the value. Policy for misuse is uniform: the call returns
// a contract violation and the observable value is unchanged.
func (g *Global) Set(v wasmembed.Value) error {
	if g.closed {
		return errors.Closed("global")
	}
	if !g.mutable {
		return errors.Contract(errors.PhaseResource, "set on immutable global")
	}
	if v.Kind() != g.val.Kind() {
		return errors.Contract(errors.PhaseResource, "set %s value on %s global", v.Kind(), g.val.Kind())
	}
	g.val = v
	return nil
}

// Descriptor returns the global's fixed kind and mutability.
func (g *Global) Descriptor() GlobalDescriptor {
	return GlobalDescriptor{Kind: g.val.Kind(), Mutable: g.mutable}
}

// Close releases the global. A second Close is a contract violation.
func (g *Global) Close() error {
	if g.closed {
		return errors.Contract(errors.PhaseResource, "global closed twice")
	}
	g.closed = true
	return nil
}
