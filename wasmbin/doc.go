// Package wasmbin assembles minimal WebAssembly module binaries.
//
// The embedding library treats decoding and validation as wazero's job;
// what it needs locally is a way to construct small, well-formed (or
// deliberately malformed) module binaries for tests and tooling without
// shipping a full encoder. The Builder covers the section set the
// embedding boundary exercises: function types, function imports, bodies,
// memories, globals, exports, and a start section.
//
//	b := wasmbin.NewBuilder()
//	sig := b.AddType([]wasmembed.ValueKind{wasmembed.KindI32, wasmembed.KindI32},
//		[]wasmembed.ValueKind{wasmembed.KindI32})
//	fn := b.AddFunc(sig, wasmbin.Body(nil,
//		wasmbin.OpLocalGet, 0,
//		wasmbin.OpLocalGet, 1,
//		wasmbin.OpI32Add,
//	))
//	b.ExportFunc("add", fn)
//	wasm := b.Encode()
//
// Function imports must be declared before local functions; indices in
// the function index space account for imports first, as in the binary
// format itself.
package wasmbin
