package wasmembed

import (
	"fmt"
	"math"
)

// ValueKind identifies one of the four primitive wasm value types.
type ValueKind uint8

const (
	KindI32 ValueKind = iota
	KindI64
	KindF32
	KindF64
)

func (k ValueKind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	}
	return fmt.Sprintf("valuekind(%d)", uint8(k))
}

// Value is a tagged primitive crossing the host/guest boundary. The
// payload is stored as raw bits and must only be interpreted per the kind
// tag; construction goes through the typed constructors, never a bare
// struct literal.
type Value struct {
	kind ValueKind
	bits uint64
}

// I32 returns an i32 Value.
func I32(v int32) Value { return Value{kind: KindI32, bits: uint64(uint32(v))} }

// I64 returns an i64 Value.
func I64(v int64) Value { return Value{kind: KindI64, bits: uint64(v)} }

// F32 returns an f32 Value.
func F32(v float32) Value { return Value{kind: KindF32, bits: uint64(math.Float32bits(v))} }

// F64 returns an f64 Value.
func F64(v float64) Value { return Value{kind: KindF64, bits: math.Float64bits(v)} }

// Kind returns the value's type tag.
func (v Value) Kind() ValueKind { return v.kind }

// Bits returns the raw payload. Callers must interpret it per Kind.
func (v Value) Bits() uint64 { return v.bits }

// FromBits reconstructs a Value of kind k from raw payload bits, as
// produced by Bits or by an engine call stack.
func FromBits(k ValueKind, bits uint64) Value {
	if k == KindI32 || k == KindF32 {
		bits &= math.MaxUint32
	}
	return Value{kind: k, bits: bits}
}

// AsI32 returns the payload as int32. The tag is trusted, not checked;
// use CheckedI32 at untrusted boundaries.
func (v Value) AsI32() int32 { return int32(uint32(v.bits)) }

func (v Value) AsI64() int64 { return int64(v.bits) }

func (v Value) AsF32() float32 { return math.Float32frombits(uint32(v.bits)) }

func (v Value) AsF64() float64 { return math.Float64frombits(v.bits) }

// CheckedI32 returns the payload as int32, or an error if the tag is not i32.
func (v Value) CheckedI32() (int32, error) {
	if v.kind != KindI32 {
		return 0, kindMismatch(KindI32, v.kind)
	}
	return v.AsI32(), nil
}

func (v Value) CheckedI64() (int64, error) {
	if v.kind != KindI64 {
		return 0, kindMismatch(KindI64, v.kind)
	}
	return v.AsI64(), nil
}

func (v Value) CheckedF32() (float32, error) {
	if v.kind != KindF32 {
		return 0, kindMismatch(KindF32, v.kind)
	}
	return v.AsF32(), nil
}

func (v Value) CheckedF64() (float64, error) {
	if v.kind != KindF64 {
		return 0, kindMismatch(KindF64, v.kind)
	}
	return v.AsF64(), nil
}

func kindMismatch(want, got ValueKind) error {
	return fmt.Errorf("value kind mismatch: want %s, got %s", want, got)
}

func (v Value) String() string {
	switch v.kind {
	case KindI32:
		return fmt.Sprintf("i32:%d", v.AsI32())
	case KindI64:
		return fmt.Sprintf("i64:%d", v.AsI64())
	case KindF32:
		return fmt.Sprintf("f32:%g", v.AsF32())
	case KindF64:
		return fmt.Sprintf("f64:%g", v.AsF64())
	}
	return fmt.Sprintf("%s:%#x", v.kind, v.bits)
}

// KindsEqual reports whether two kind sequences are identical.
func KindsEqual(a, b []ValueKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// KindsString renders a kind sequence like "(i32, i64)".
func KindsString(kinds []ValueKind) string {
	s := "("
	for i, k := range kinds {
		if i > 0 {
			s += ", "
		}
		s += k.String()
	}
	return s + ")"
}
