// Package resource implements the host-created runtime objects of the
// embedding boundary: linear Memory, element Table, and Global cells.
//
// All three follow the same ownership pattern: the creator owns the object
// and must pair every successful creation with exactly one Close. Use after
// Close and double Close are detected and reported as contract violations
// instead of corrupting state.
//
// # Growth
//
// Memory grows in pages (64 KiB), Table in elements. Growth is
// monotonic-only: a grow that would exceed the declared maximum, or that
// cannot be backed by storage, fails without mutating the object.
//
//	mem, _ := resource.NewMemory(wasmembed.Bounded(1, 4))
//	if err := mem.Grow(2); err != nil { ... }
//
// # Borrowed views
//
// Memory.Data returns a view into the backing buffer. Growth may relocate
// the buffer, so the view is valid only until the next successful Grow or
// until Close; re-fetch it afterwards.
//
// # Concurrency
//
// Objects in this package carry no internal locking. The embedding
// contract requires the host to serialize access to a given object, the
// same way Instance access is serialized.
package resource
