// Package wasmembed provides the embedding boundary of a WebAssembly
// execution runtime: validating binary modules, instantiating them against
// host-provided imports, invoking exported functions, and managing the
// linear memories, tables, and global cells a module exposes or requires.
//
// Binary decoding, validation, and bytecode execution are delegated to
// wazero. This module owns everything around that collaborator: the typed
// call path between host and guest, import resolution, resource growth and
// bounds semantics, and deterministic last-error reporting.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	wasmembed/           Root package with Value, ValueKind, Limits, Memory
//	├── runtime/         High-level API: Runtime, ImportObject, Instance, Pool
//	├── engine/          Low-level wazero integration and value codec
//	├── resource/        Host-created Memory, Table, and Global objects
//	├── errors/          Structured error types for debugging
//	├── lasterr/         Last-error channel with the C-shaped length/message contract
//	└── wasmbin/         Minimal wasm binary builder for fixtures and tooling
//
// # Quick Start
//
// Instantiate a module and call an export:
//
//	rt, err := runtime.New(ctx)
//	defer rt.Close(ctx)
//
//	imports := runtime.NewImportObject()
//	inst, err := rt.Instantiate(ctx, wasmBytes, imports)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	results, err := inst.Call(ctx, "add", []wasmembed.Value{
//	    wasmembed.I32(2), wasmembed.I32(3),
//	})
//	fmt.Println(results[0]) // i32:5
//
// # Host Functions
//
// Register Go functions a module can import:
//
//	imports.Register("env", "log_u32",
//	    func(ictx *runtime.InstanceContext, args []wasmembed.Value) ([]wasmembed.Value, error) {
//	        fmt.Println(args[0])
//	        return nil, nil
//	    },
//	    []wasmembed.ValueKind{wasmembed.KindI32}, nil, nil)
//
// The InstanceContext is valid only for the duration of the callback; it
// must not be retained past return.
//
// # Thread Safety
//
// Runtime is safe for concurrent instantiation. Instance is NOT thread-safe
// and should be used by a single goroutine, or access must be synchronized;
// runtime.Pool implements the one-instance-per-worker pattern. The error
// channel is scoped per Runtime, so concurrent work on separate Runtimes
// never corrupts another's error reporting.
//
// # Memory Model
//
// WASM linear memory can only grow, never shrink. Growth may relocate the
// backing buffer, so any slice obtained from Memory.Data is valid only
// until the next successful Grow or until the owner is closed, and must be
// re-fetched afterwards.
package wasmembed
