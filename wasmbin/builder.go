package wasmbin

import (
	"bytes"
	"encoding/binary"
	"math"

	wasmembed "github.com/wippyai/wasm-embed"
)

// Section IDs of the wasm binary format, in required order.
const (
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionMemory   byte = 5
	SectionGlobal   byte = 6
	SectionExport   byte = 7
	SectionStart    byte = 8
	SectionCode     byte = 10
)

// Export kinds.
const (
	ExportFunc   byte = 0
	ExportMemory byte = 2
	ExportGlobal byte = 3
)

// The instruction subset used when assembling fixture bodies.
const (
	OpUnreachable byte = 0x00
	OpNop         byte = 0x01
	OpEnd         byte = 0x0b
	OpCall        byte = 0x10
	OpDrop        byte = 0x1a
	OpLocalGet    byte = 0x20
	OpGlobalGet   byte = 0x23
	OpGlobalSet   byte = 0x24
	OpI32Load     byte = 0x28
	OpI32Store    byte = 0x36
	OpMemorySize  byte = 0x3f
	OpMemoryGrow  byte = 0x40
	OpI32Const    byte = 0x41
	OpI64Const    byte = 0x42
	OpF32Const    byte = 0x43
	OpF64Const    byte = 0x44
	OpI32Add      byte = 0x6a
	OpI32Sub      byte = 0x6b
	OpI32Mul      byte = 0x6c
	OpI32DivS     byte = 0x6d
	OpI64Add      byte = 0x7c
	OpF32Add      byte = 0x92
	OpF64Add      byte = 0xa0
)

func valType(k wasmembed.ValueKind) byte {
	switch k {
	case wasmembed.KindI32:
		return 0x7f
	case wasmembed.KindI64:
		return 0x7e
	case wasmembed.KindF32:
		return 0x7d
	case wasmembed.KindF64:
		return 0x7c
	}
	return 0x7f
}

type funcType struct {
	params  []wasmembed.ValueKind
	results []wasmembed.ValueKind
}

type importEntry struct {
	ns      string
	name    string
	typeIdx uint32
}

type funcEntry struct {
	typeIdx uint32
	body    []byte
}

type globalEntry struct {
	init    wasmembed.Value
	mutable bool
}

type exportEntry struct {
	name string
	kind byte
	idx  uint32
}

// Builder accumulates module pieces and encodes them in section order.
// Declare function imports before local functions: both share one index
// space and imports occupy the low indices.
type Builder struct {
	types   []funcType
	imports []importEntry
	funcs   []funcEntry
	mems    []wasmembed.Limits
	globals []globalEntry
	exports []exportEntry
	start   *uint32
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddType registers a function signature and returns its type index.
func (b *Builder) AddType(params, results []wasmembed.ValueKind) uint32 {
	b.types = append(b.types, funcType{params: params, results: results})
	return uint32(len(b.types) - 1)
}

// ImportFunc declares a function import and returns its function index.
func (b *Builder) ImportFunc(ns, name string, typeIdx uint32) uint32 {
	b.imports = append(b.imports, importEntry{ns: ns, name: name, typeIdx: typeIdx})
	return uint32(len(b.imports) - 1)
}

// AddFunc declares a local function with an assembled body (see Body)
// and returns its function index.
func (b *Builder) AddFunc(typeIdx uint32, body []byte) uint32 {
	b.funcs = append(b.funcs, funcEntry{typeIdx: typeIdx, body: body})
	return uint32(len(b.imports) + len(b.funcs) - 1)
}

// Body assembles a function body from local declarations and raw code
// bytes. The terminating end opcode is appended automatically.
func Body(locals []wasmembed.ValueKind, code ...byte) []byte {
	var buf bytes.Buffer
	writeLEB128u(&buf, uint32(len(locals)))
	for _, l := range locals {
		writeLEB128u(&buf, 1)
		buf.WriteByte(valType(l))
	}
	buf.Write(code)
	buf.WriteByte(OpEnd)
	return buf.Bytes()
}

// AddMemory declares a linear memory and returns its index.
func (b *Builder) AddMemory(limits wasmembed.Limits) uint32 {
	b.mems = append(b.mems, limits)
	return uint32(len(b.mems) - 1)
}

// AddGlobal declares a global initialized to init and returns its index.
func (b *Builder) AddGlobal(init wasmembed.Value, mutable bool) uint32 {
	b.globals = append(b.globals, globalEntry{init: init, mutable: mutable})
	return uint32(len(b.globals) - 1)
}

func (b *Builder) ExportFunc(name string, idx uint32) {
	b.exports = append(b.exports, exportEntry{name: name, kind: ExportFunc, idx: idx})
}

func (b *Builder) ExportMemory(name string, idx uint32) {
	b.exports = append(b.exports, exportEntry{name: name, kind: ExportMemory, idx: idx})
}

func (b *Builder) ExportGlobal(name string, idx uint32) {
	b.exports = append(b.exports, exportEntry{name: name, kind: ExportGlobal, idx: idx})
}

// SetStart marks the function at idx as the module's start function.
func (b *Builder) SetStart(idx uint32) {
	b.start = &idx
}

// Encode emits the module binary.
func (b *Builder) Encode() []byte {
	var out bytes.Buffer
	out.Write([]byte{0x00, 0x61, 0x73, 0x6d}) // \0asm
	out.Write([]byte{0x01, 0x00, 0x00, 0x00}) // version 1

	if len(b.types) > 0 {
		var s bytes.Buffer
		writeLEB128u(&s, uint32(len(b.types)))
		for _, t := range b.types {
			s.WriteByte(0x60)
			writeLEB128u(&s, uint32(len(t.params)))
			for _, p := range t.params {
				s.WriteByte(valType(p))
			}
			writeLEB128u(&s, uint32(len(t.results)))
			for _, r := range t.results {
				s.WriteByte(valType(r))
			}
		}
		writeSection(&out, SectionType, s.Bytes())
	}

	if len(b.imports) > 0 {
		var s bytes.Buffer
		writeLEB128u(&s, uint32(len(b.imports)))
		for _, imp := range b.imports {
			writeName(&s, imp.ns)
			writeName(&s, imp.name)
			s.WriteByte(0x00) // func import
			writeLEB128u(&s, imp.typeIdx)
		}
		writeSection(&out, SectionImport, s.Bytes())
	}

	if len(b.funcs) > 0 {
		var s bytes.Buffer
		writeLEB128u(&s, uint32(len(b.funcs)))
		for _, f := range b.funcs {
			writeLEB128u(&s, f.typeIdx)
		}
		writeSection(&out, SectionFunction, s.Bytes())
	}

	if len(b.mems) > 0 {
		var s bytes.Buffer
		writeLEB128u(&s, uint32(len(b.mems)))
		for _, limits := range b.mems {
			writeLimits(&s, limits)
		}
		writeSection(&out, SectionMemory, s.Bytes())
	}

	if len(b.globals) > 0 {
		var s bytes.Buffer
		writeLEB128u(&s, uint32(len(b.globals)))
		for _, g := range b.globals {
			s.WriteByte(valType(g.init.Kind()))
			if g.mutable {
				s.WriteByte(0x01)
			} else {
				s.WriteByte(0x00)
			}
			writeConstExpr(&s, g.init)
		}
		writeSection(&out, SectionGlobal, s.Bytes())
	}

	if len(b.exports) > 0 {
		var s bytes.Buffer
		writeLEB128u(&s, uint32(len(b.exports)))
		for _, e := range b.exports {
			writeName(&s, e.name)
			s.WriteByte(e.kind)
			writeLEB128u(&s, e.idx)
		}
		writeSection(&out, SectionExport, s.Bytes())
	}

	if b.start != nil {
		var s bytes.Buffer
		writeLEB128u(&s, *b.start)
		writeSection(&out, SectionStart, s.Bytes())
	}

	if len(b.funcs) > 0 {
		var s bytes.Buffer
		writeLEB128u(&s, uint32(len(b.funcs)))
		for _, f := range b.funcs {
			writeLEB128u(&s, uint32(len(f.body)))
			s.Write(f.body)
		}
		writeSection(&out, SectionCode, s.Bytes())
	}

	return out.Bytes()
}

func writeSection(out *bytes.Buffer, id byte, data []byte) {
	out.WriteByte(id)
	writeLEB128u(out, uint32(len(data)))
	out.Write(data)
}

func writeName(w *bytes.Buffer, name string) {
	writeLEB128u(w, uint32(len(name)))
	w.WriteString(name)
}

func writeLimits(w *bytes.Buffer, l wasmembed.Limits) {
	if l.HasMax {
		w.WriteByte(0x01)
		writeLEB128u(w, l.Min)
		writeLEB128u(w, l.Max)
	} else {
		w.WriteByte(0x00)
		writeLEB128u(w, l.Min)
	}
}

func writeConstExpr(w *bytes.Buffer, v wasmembed.Value) {
	switch v.Kind() {
	case wasmembed.KindI32:
		w.WriteByte(OpI32Const)
		writeLEB128s(w, v.AsI32())
	case wasmembed.KindI64:
		w.WriteByte(OpI64Const)
		writeLEB128s64(w, v.AsI64())
	case wasmembed.KindF32:
		w.WriteByte(OpF32Const)
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v.AsF32()))
		w.Write(buf[:])
	case wasmembed.KindF64:
		w.WriteByte(OpF64Const)
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.AsF64()))
		w.Write(buf[:])
	}
	w.WriteByte(OpEnd)
}
