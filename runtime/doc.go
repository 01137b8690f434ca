// Package runtime is the high-level embedding API: validating module
// binaries, instantiating them against an ImportObject, calling exported
// functions, and creating host-owned memories, tables, and globals.
//
// # Error reporting
//
// Every fallible operation returns a Go error and additionally records it
// on the Runtime's last-error channel, mirroring the C-shaped
// last_error_length/last_error_message contract:
//
//	if _, err := rt.Instantiate(ctx, bad, imports); err != nil {
//	    n := rt.Errors().Length()
//	    buf := make([]byte, n)
//	    rt.Errors().Message(buf)
//	}
//
// The channel holds only the most recent failure and is never cleared by
// successful operations; read it before the next fallible call. It is
// scoped per Runtime, so unrelated work on other Runtimes cannot
// overwrite it.
//
// # Concurrency
//
// Runtime methods may be called from multiple goroutines. Instance is not
// goroutine-safe: serialize access externally or keep one instance per
// worker (see Pool). A guest call that must be bounded in time takes a
// context with a deadline; cancellation terminates the instance, which
// must then be discarded.
package runtime
