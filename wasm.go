package wasmembed

// PageSize is the WebAssembly linear memory page size in bytes.
const PageSize = 65536

// Limits bounds the size of a Memory (in pages) or Table (in elements).
// Max is ignored unless HasMax is set.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// Bounded returns limits with both a minimum and a maximum.
func Bounded(min, max uint32) Limits {
	return Limits{Min: min, Max: max, HasMax: true}
}

// Unbounded returns limits with a minimum and no maximum.
func Unbounded(min uint32) Limits {
	return Limits{Min: min}
}

// Valid reports whether the limits are internally consistent.
func (l Limits) Valid() bool {
	return !l.HasMax || l.Min <= l.Max
}

// Memory represents WASM linear memory. It is implemented both by
// host-created memories (resource.Memory) and by memories owned by a
// running instance.
type Memory interface {
	// Pages returns the current size in pages.
	Pages() uint32
	// DataSize returns the current size in bytes (Pages() * PageSize).
	DataSize() uint32
	// Data returns a view of the entire memory. The slice is borrowed:
	// it is valid only until the next successful Grow or until the
	// owning object is closed.
	Data() []byte
	// Grow extends the memory by delta pages. It fails without mutating
	// state when the declared maximum would be exceeded or backing
	// storage cannot be allocated.
	Grow(delta uint32) error
	// Read returns a view of length bytes starting at offset.
	Read(offset uint32, length uint32) ([]byte, error)
	// Write copies data into memory at offset.
	Write(offset uint32, data []byte) error
}
