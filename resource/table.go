package resource

import (
	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/errors"
)

// Ref is an opaque element reference held in a Table, typically a
// function reference. A nil Ref is the null reference.
type Ref any

// MaxElements caps table growth the way MaxPages caps memory growth.
const MaxElements = 1 << 32 / 16

// Table is a host-created growable buffer of opaque references with
// element-granularity limits.
type Table struct {
	elems  []Ref
	limits wasmembed.Limits
	closed bool
}

// NewTable allocates a table of limits.Min null references. The caller
// owns the result and must Close it exactly once.
func NewTable(limits wasmembed.Limits) (*Table, error) {
	if !limits.Valid() {
		return nil, errors.Contract(errors.PhaseResource, "invalid limits: min %d > max %d", limits.Min, limits.Max)
	}
	if limits.Min > MaxElements || (limits.HasMax && limits.Max > MaxElements) {
		return nil, errors.ResourceLimit("limits exceed %d elements", MaxElements)
	}
	return &Table{
		elems:  make([]Ref, limits.Min),
		limits: limits,
	}, nil
}

// Limits returns the declared limits.
func (t *Table) Limits() wasmembed.Limits { return t.limits }

// Len returns the current element count.
func (t *Table) Len() uint32 {
	return uint32(len(t.elems))
}

// Grow extends the table by delta elements, each initialized to init.
// On failure the table is left unchanged.
func (t *Table) Grow(delta uint32, init Ref) error {
	if t.closed {
		return errors.Closed("table")
	}
	cur := uint64(len(t.elems))
	next := cur + uint64(delta)
	if t.limits.HasMax && next > uint64(t.limits.Max) {
		return errors.ResourceLimit("grow %d + %d elements exceeds max %d", cur, delta, t.limits.Max)
	}
	if next > MaxElements {
		return errors.ResourceLimit("grow %d + %d elements exceeds %d", cur, delta, MaxElements)
	}

	for i := uint64(0); i < uint64(delta); i++ {
		t.elems = append(t.elems, init)
	}
	return nil
}

// Get returns the element at index i.
func (t *Table) Get(i uint32) (Ref, error) {
	if t.closed {
		return nil, errors.Closed("table")
	}
	if uint64(i) >= uint64(len(t.elems)) {
		return nil, errors.Contract(errors.PhaseResource, "index %d out of bounds (length %d)", i, len(t.elems))
	}
	return t.elems[i], nil
}

// Set stores r at index i.
func (t *Table) Set(i uint32, r Ref) error {
	if t.closed {
		return errors.Closed("table")
	}
	if uint64(i) >= uint64(len(t.elems)) {
		return errors.Contract(errors.PhaseResource, "index %d out of bounds (length %d)", i, len(t.elems))
	}
	t.elems[i] = r
	return nil
}

// Close releases the table. A second Close is a contract violation.
func (t *Table) Close() error {
	if t.closed {
		return errors.Contract(errors.PhaseResource, "table closed twice")
	}
	t.closed = true
	t.elems = nil
	return nil
}
