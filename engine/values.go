package engine

import (
	"github.com/tetratelabs/wazero/api"

	wasmembed "github.com/wippyai/wasm-embed"
)

// kindToValueType maps a ValueKind to wazero's wire representation.
func kindToValueType(k wasmembed.ValueKind) api.ValueType {
	switch k {
	case wasmembed.KindI32:
		return api.ValueTypeI32
	case wasmembed.KindI64:
		return api.ValueTypeI64
	case wasmembed.KindF32:
		return api.ValueTypeF32
	case wasmembed.KindF64:
		return api.ValueTypeF64
	}
	return api.ValueTypeI32
}

// valueTypeToKind maps wazero's wire representation back to a ValueKind.
// The second result is false for types outside the four primitive kinds
// (v128, funcref, externref).
func valueTypeToKind(vt api.ValueType) (wasmembed.ValueKind, bool) {
	switch vt {
	case api.ValueTypeI32:
		return wasmembed.KindI32, true
	case api.ValueTypeI64:
		return wasmembed.KindI64, true
	case api.ValueTypeF32:
		return wasmembed.KindF32, true
	case api.ValueTypeF64:
		return wasmembed.KindF64, true
	}
	return 0, false
}

func kindsToValueTypes(kinds []wasmembed.ValueKind) []api.ValueType {
	if len(kinds) == 0 {
		return nil
	}
	vts := make([]api.ValueType, len(kinds))
	for i, k := range kinds {
		vts[i] = kindToValueType(k)
	}
	return vts
}

// valueTypesToKinds converts a declared wazero signature. Unrepresentable
// types are reported via ok=false so link checking can reject the import.
func valueTypesToKinds(vts []api.ValueType) ([]wasmembed.ValueKind, bool) {
	if len(vts) == 0 {
		return nil, true
	}
	kinds := make([]wasmembed.ValueKind, len(vts))
	for i, vt := range vts {
		k, ok := valueTypeToKind(vt)
		if !ok {
			return nil, false
		}
		kinds[i] = k
	}
	return kinds, true
}

// encodeValues packs typed values onto a call stack.
func encodeValues(vals []wasmembed.Value) []uint64 {
	if len(vals) == 0 {
		return nil
	}
	stack := make([]uint64, len(vals))
	for i, v := range vals {
		stack[i] = v.Bits()
	}
	return stack
}

// decodeValues unpacks a call stack per the declared result kinds.
func decodeValues(kinds []wasmembed.ValueKind, stack []uint64) []wasmembed.Value {
	vals := make([]wasmembed.Value, len(kinds))
	for i, k := range kinds {
		vals[i] = wasmembed.FromBits(k, stack[i])
	}
	return vals
}

// SignatureString renders a function signature like "(i32, i32) -> (i32)"
// for diagnostics and link error reports.
func SignatureString(params, results []wasmembed.ValueKind) string {
	return wasmembed.KindsString(params) + " -> " + wasmembed.KindsString(results)
}
