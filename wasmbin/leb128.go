package wasmbin

import "bytes"

func writeLEB128u(w *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

func writeLEB128s(w *bytes.Buffer, v int32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.WriteByte(b)
			return
		}
		w.WriteByte(b | 0x80)
	}
}

func writeLEB128s64(w *bytes.Buffer, v int64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.WriteByte(b)
			return
		}
		w.WriteByte(b | 0x80)
	}
}

// AppendLEB128u appends the unsigned LEB128 encoding of v, for callers
// assembling raw instruction bodies.
func AppendLEB128u(dst []byte, v uint32) []byte {
	var buf bytes.Buffer
	writeLEB128u(&buf, v)
	return append(dst, buf.Bytes()...)
}

// AppendLEB128s appends the signed LEB128 encoding of v.
func AppendLEB128s(dst []byte, v int32) []byte {
	var buf bytes.Buffer
	writeLEB128s(&buf, v)
	return append(dst, buf.Bytes()...)
}
