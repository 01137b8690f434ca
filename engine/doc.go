// Package engine integrates wazero as the execution collaborator behind
// the embedding boundary.
//
// wazero owns binary decoding, validation, and bytecode execution. This
// package owns everything at the seam: compiling bytes into modules,
// pre-checking declared imports against registered host functions, building
// per-namespace host modules inside a per-instance wazero runtime, encoding
// and decoding call stacks per value kind, adapting instance memories to
// the wasmembed.Memory interface, and classifying wazero faults into the
// library's error taxonomy.
//
// Each Instance gets its own wazero runtime so host-module namespaces
// never collide between instances and closing an Instance releases
// everything it owns in one step. Compiled code is shared across those
// runtimes through a wazero compilation cache held by the Engine.
package engine
