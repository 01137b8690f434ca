package resource

import (
	"testing"

	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/errors"
)

func TestGlobal_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		initial wasmembed.Value
		next    wasmembed.Value
	}{
		{name: "i32", initial: wasmembed.I32(10), next: wasmembed.I32(-3)},
		{name: "i64", initial: wasmembed.I64(1 << 40), next: wasmembed.I64(0)},
		{name: "f32", initial: wasmembed.F32(1.5), next: wasmembed.F32(-0.25)},
		{name: "f64", initial: wasmembed.F64(2.75), next: wasmembed.F64(1e300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGlobal(tt.initial, true)
			defer g.Close()

			if got := g.Get(); got != tt.initial {
				t.Errorf("Get() = %v, want %v", got, tt.initial)
			}
			if err := g.Set(tt.next); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if got := g.Get(); got != tt.next {
				t.Errorf("Get() after Set = %v, want %v", got, tt.next)
			}
		})
	}
}

func TestGlobal_SetImmutable(t *testing.T) {
	g := NewGlobal(wasmembed.I32(7), false)
	defer g.Close()

	err := g.Set(wasmembed.I32(8))
	if err == nil {
		t.Fatal("Set on immutable global must fail")
	}
	if !errors.IsKind(err, errors.KindContract) {
		t.Errorf("expected contract violation, got %v", err)
	}
	if got := g.Get(); got != wasmembed.I32(7) {
		t.Errorf("value changed to %v after rejected Set", got)
	}
}

func TestGlobal_SetKindMismatch(t *testing.T) {
	g := NewGlobal(wasmembed.I32(7), true)
	defer g.Close()

	if err := g.Set(wasmembed.F64(7)); err == nil {
		t.Fatal("Set with wrong kind must fail")
	}
	if got := g.Get(); got != wasmembed.I32(7) {
		t.Errorf("value changed to %v after rejected Set", got)
	}
}

func TestGlobal_Descriptor(t *testing.T) {
	g := NewGlobal(wasmembed.F64(0), true)
	defer g.Close()

	d := g.Descriptor()
	if d.Kind != wasmembed.KindF64 || !d.Mutable {
		t.Errorf("Descriptor() = %+v, want {f64 true}", d)
	}
}

func TestGlobal_DoubleClose(t *testing.T) {
	g := NewGlobal(wasmembed.I64(1), true)

	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := g.Close(); err == nil {
		t.Error("double Close must fail")
	}
	if err := g.Set(wasmembed.I64(2)); err == nil {
		t.Error("Set after Close must fail")
	}
}
