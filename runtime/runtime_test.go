package runtime

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/wasmbin"
)

// addModule exports add(i32, i32) -> i32.
func addModule() []byte {
	b := wasmbin.NewBuilder()
	sig := b.AddType(
		[]wasmembed.ValueKind{wasmembed.KindI32, wasmembed.KindI32},
		[]wasmembed.ValueKind{wasmembed.KindI32},
	)
	fn := b.AddFunc(sig, wasmbin.Body(nil,
		wasmbin.OpLocalGet, 0,
		wasmbin.OpLocalGet, 1,
		wasmbin.OpI32Add,
	))
	b.ExportFunc("add", fn)
	return b.Encode()
}

// memModule exports a memory with limits {min: 1, max: 2} and
// load0() -> i32 reading address 0.
func memModule() []byte {
	b := wasmbin.NewBuilder()
	b.AddMemory(wasmembed.Bounded(1, 2))
	b.ExportMemory("memory", 0)

	sig := b.AddType(nil, []wasmembed.ValueKind{wasmembed.KindI32})
	fn := b.AddFunc(sig, wasmbin.Body(nil,
		wasmbin.OpI32Const, 0x00,
		wasmbin.OpI32Load, 0x02, 0x00,
	))
	b.ExportFunc("load0", fn)
	return b.Encode()
}

// hostModule imports env.tick() and exports trigger() calling it, plus a
// one-page memory and load0() -> i32.
func hostModule() []byte {
	b := wasmbin.NewBuilder()
	sigV := b.AddType(nil, nil)
	tick := b.ImportFunc("env", "tick", sigV)

	b.AddMemory(wasmembed.Bounded(1, 1))
	b.ExportMemory("memory", 0)

	trigger := b.AddFunc(sigV, wasmbin.Body(nil, wasmbin.OpCall, byte(tick)))
	b.ExportFunc("trigger", trigger)

	sigI := b.AddType(nil, []wasmembed.ValueKind{wasmembed.KindI32})
	load0 := b.AddFunc(sigI, wasmbin.Body(nil,
		wasmbin.OpI32Const, 0x00,
		wasmbin.OpI32Load, 0x02, 0x00,
	))
	b.ExportFunc("load0", load0)
	return b.Encode()
}

// trapModule exports div(i32, i32) -> i32 and boom() hitting unreachable.
func trapModule() []byte {
	b := wasmbin.NewBuilder()
	sigDiv := b.AddType(
		[]wasmembed.ValueKind{wasmembed.KindI32, wasmembed.KindI32},
		[]wasmembed.ValueKind{wasmembed.KindI32},
	)
	div := b.AddFunc(sigDiv, wasmbin.Body(nil,
		wasmbin.OpLocalGet, 0,
		wasmbin.OpLocalGet, 1,
		wasmbin.OpI32DivS,
	))
	b.ExportFunc("div", div)

	sigV := b.AddType(nil, nil)
	boom := b.AddFunc(sigV, wasmbin.Body(nil, wasmbin.OpUnreachable))
	b.ExportFunc("boom", boom)
	return b.Encode()
}

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(context.Background())
	if err != nil {
		t.Fatalf("create runtime: %v", err)
	}
	t.Cleanup(func() { rt.Close(context.Background()) })
	return rt
}

func instantiate(t *testing.T, rt *Runtime, wasm []byte, imports *ImportObject) *Instance {
	t.Helper()
	inst, err := rt.Instantiate(context.Background(), wasm, imports)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	t.Cleanup(func() {
		if !inst.closed {
			inst.Close(context.Background())
		}
	})
	return inst
}

func TestRuntime_AddEndToEnd(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)
	inst := instantiate(t, rt, addModule(), NewImportObject())

	results, err := inst.Call(ctx, "add", []wasmembed.Value{wasmembed.I32(2), wasmembed.I32(3)})
	if err != nil {
		t.Fatalf("call add: %v", err)
	}
	if len(results) != 1 || results[0] != wasmembed.I32(5) {
		t.Errorf("add(2, 3) = %v, want [i32:5]", results)
	}
}

func TestRuntime_CallInto(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)
	inst := instantiate(t, rt, addModule(), nil)

	results := make([]wasmembed.Value, 1)
	if err := inst.CallInto(ctx, "add", []wasmembed.Value{wasmembed.I32(40), wasmembed.I32(2)}, results); err != nil {
		t.Fatalf("CallInto: %v", err)
	}
	if results[0] != wasmembed.I32(42) {
		t.Errorf("results[0] = %v, want i32:42", results[0])
	}

	// Wrong-sized buffer fails before dispatch and writes nothing.
	short := make([]wasmembed.Value, 2)
	err := inst.CallInto(ctx, "add", []wasmembed.Value{wasmembed.I32(1), wasmembed.I32(2)}, short)
	if !errors.IsKind(err, errors.KindContract) {
		t.Errorf("expected contract violation, got %v", err)
	}
	if short[0] != (wasmembed.Value{}) {
		t.Errorf("results buffer written on failure: %v", short)
	}
}

func TestRuntime_SignatureFidelity(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)
	inst := instantiate(t, rt, addModule(), nil)

	tests := []struct {
		name   string
		params []wasmembed.Value
	}{
		{name: "too few", params: []wasmembed.Value{wasmembed.I32(1)}},
		{name: "too many", params: []wasmembed.Value{wasmembed.I32(1), wasmembed.I32(2), wasmembed.I32(3)}},
		{name: "wrong kind", params: []wasmembed.Value{wasmembed.F64(1), wasmembed.I32(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := inst.Call(ctx, "add", tt.params)
			if !errors.IsKind(err, errors.KindContract) {
				t.Errorf("expected contract violation, got %v", err)
			}
			if len(results) != 0 {
				t.Errorf("results written on failure: %v", results)
			}
			if rt.Errors().Length() == 0 {
				t.Error("error channel empty after failure")
			}
		})
	}
}

func TestRuntime_UnknownExport(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)
	inst := instantiate(t, rt, addModule(), nil)

	_, err := inst.Call(ctx, "does_not_exist", nil)
	if !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestRuntime_Validate(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	if !rt.Validate(ctx, addModule()) {
		t.Error("well-formed module rejected")
	}
	if rt.Validate(ctx, []byte("definitely not wasm")) {
		t.Error("garbage accepted")
	}
	if rt.Validate(ctx, nil) {
		t.Error("empty input accepted")
	}
}

func TestRuntime_InstantiateDecodeError(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	_, err := rt.Instantiate(ctx, []byte("garbage bytes"), nil)
	if !errors.IsKind(err, errors.KindDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}

	n := rt.Errors().Length()
	if n == 0 {
		t.Fatal("error channel empty after decode failure")
	}
	buf := make([]byte, n)
	if got := rt.Errors().Message(buf); got != n {
		t.Fatalf("Message() = %d, want %d", got, n)
	}
	if !strings.Contains(string(buf), "malformed module binary") {
		t.Errorf("diagnostic not human-readable: %q", buf)
	}
}

func TestRuntime_LinkErrorMissingImport(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	_, err := rt.Instantiate(ctx, hostModule(), NewImportObject())
	if err == nil {
		t.Fatal("expected link error")
	}

	var le *errors.LinkError
	if !stderrors.As(err, &le) {
		t.Fatalf("expected LinkError, got %v", err)
	}
	if len(le.Imports) != 1 {
		t.Fatalf("unresolved imports = %+v, want one entry", le.Imports)
	}
	imp := le.Imports[0]
	if imp.Namespace != "env" || imp.Name != "tick" || imp.Got != "" {
		t.Errorf("unexpected unresolved import: %+v", imp)
	}
	if !strings.Contains(err.Error(), "env") || !strings.Contains(err.Error(), "tick") {
		t.Errorf("link error does not name the import: %v", err)
	}
}

func TestRuntime_LinkErrorSignatureMismatch(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	imports := NewImportObject()
	err := imports.Register("env", "tick",
		func(ictx *InstanceContext, args []wasmembed.Value) ([]wasmembed.Value, error) {
			return []wasmembed.Value{wasmembed.I64(0)}, nil
		},
		nil, []wasmembed.ValueKind{wasmembed.KindI64}, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = rt.Instantiate(ctx, hostModule(), imports)
	var le *errors.LinkError
	if !stderrors.As(err, &le) {
		t.Fatalf("expected LinkError, got %v", err)
	}
	if len(le.Imports) != 1 || le.Imports[0].Got != "() -> (i64)" {
		t.Errorf("unexpected mismatch report: %+v", le.Imports)
	}
}

func TestRuntime_MemoryGrowEndToEnd(t *testing.T) {
	rt := newRuntime(t)
	inst := instantiate(t, rt, memModule(), nil)

	mem, err := inst.Memory(0)
	if err != nil {
		t.Fatalf("Memory(0): %v", err)
	}
	if mem.Pages() != 1 {
		t.Fatalf("Pages() = %d, want 1", mem.Pages())
	}

	if err := mem.Grow(1); err != nil {
		t.Fatalf("Grow(1): %v", err)
	}
	if mem.Pages() != 2 {
		t.Fatalf("Pages() = %d after grow, want 2", mem.Pages())
	}
	if mem.DataSize() != 2*wasmembed.PageSize {
		t.Errorf("DataSize() = %d, want %d", mem.DataSize(), 2*wasmembed.PageSize)
	}

	err = mem.Grow(1)
	if !errors.IsKind(err, errors.KindResourceLimit) {
		t.Fatalf("expected resource_limit, got %v", err)
	}
	if mem.Pages() != 2 {
		t.Errorf("Pages() = %d after failed grow, want 2", mem.Pages())
	}
	if rt.Errors().Length() == 0 {
		t.Error("error channel empty after failed grow")
	}
}

func TestRuntime_MissingMemoryIndex(t *testing.T) {
	rt := newRuntime(t)
	inst := instantiate(t, rt, memModule(), nil)

	if _, err := inst.Memory(1); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("Memory(1): expected not_found, got %v", err)
	}
}

func TestRuntime_HostImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	type tickState struct{ calls int }
	state := &tickState{}

	var leaked *InstanceContext
	imports := NewImportObject()
	err := imports.Register("env", "tick",
		func(ictx *InstanceContext, args []wasmembed.Value) ([]wasmembed.Value, error) {
			state.calls++
			if ictx.Data().(*tickState) != state {
				t.Error("Data() did not return registration data")
			}
			mem := ictx.Memory(0)
			if mem == nil {
				t.Fatal("callback has no memory access")
			}
			if err := mem.Write(0, []byte{42, 0, 0, 0}); err != nil {
				t.Fatalf("write guest memory: %v", err)
			}
			leaked = ictx
			return nil, nil
		},
		nil, nil, state)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	inst := instantiate(t, rt, hostModule(), imports)

	if _, err := inst.Call(ctx, "trigger", nil); err != nil {
		t.Fatalf("call trigger: %v", err)
	}
	if state.calls != 1 {
		t.Fatalf("host called %d time(s), want 1", state.calls)
	}

	// The context must not outlive the callback's dynamic extent.
	if leaked.Memory(0) != nil || leaked.Instance() != nil {
		t.Error("InstanceContext still live after callback returned")
	}

	results, err := inst.Call(ctx, "load0", nil)
	if err != nil {
		t.Fatalf("call load0: %v", err)
	}
	if results[0] != wasmembed.I32(42) {
		t.Errorf("load0() = %v, want i32:42 written by host", results[0])
	}
}

func TestRuntime_HostErrorTrapsGuest(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	imports := NewImportObject()
	imports.Register("env", "tick",
		func(ictx *InstanceContext, args []wasmembed.Value) ([]wasmembed.Value, error) {
			return nil, errors.Contract(errors.PhaseHost, "host rejected call")
		},
		nil, nil, nil)

	inst := instantiate(t, rt, hostModule(), imports)

	_, err := inst.Call(ctx, "trigger", nil)
	if err == nil {
		t.Fatal("expected host error to trap the call")
	}
	if !strings.Contains(err.Error(), "host rejected call") {
		t.Errorf("host error detail lost: %v", err)
	}

	// The trap aborted only that call; the instance stays usable.
	if _, err := inst.Call(ctx, "load0", nil); err != nil {
		t.Errorf("instance unusable after host trap: %v", err)
	}
}

func TestRuntime_Traps(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)
	inst := instantiate(t, rt, trapModule(), nil)

	tests := []struct {
		name   string
		export string
		params []wasmembed.Value
		detail string
	}{
		{
			name:   "divide by zero",
			export: "div",
			params: []wasmembed.Value{wasmembed.I32(1), wasmembed.I32(0)},
			detail: "divide by zero",
		},
		{
			name:   "unreachable",
			export: "boom",
			detail: "unreachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inst.Call(ctx, tt.export, tt.params)
			if !errors.IsKind(err, errors.KindTrap) {
				t.Fatalf("expected trap, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("trap diagnostic %q does not mention %q", err, tt.detail)
			}
		})
	}

	// Traps abort single calls, not the instance.
	results, err := inst.Call(ctx, "div", []wasmembed.Value{wasmembed.I32(6), wasmembed.I32(3)})
	if err != nil {
		t.Fatalf("call after trap: %v", err)
	}
	if results[0] != wasmembed.I32(2) {
		t.Errorf("div(6, 3) = %v, want i32:2", results[0])
	}
}

func TestRuntime_StartFunctionRuns(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	calls := 0
	imports := NewImportObject()
	imports.Register("env", "tick",
		func(ictx *InstanceContext, args []wasmembed.Value) ([]wasmembed.Value, error) {
			calls++
			return nil, nil
		},
		nil, nil, nil)

	b := wasmbin.NewBuilder()
	sigV := b.AddType(nil, nil)
	tick := b.ImportFunc("env", "tick", sigV)
	start := b.AddFunc(sigV, wasmbin.Body(nil, wasmbin.OpCall, byte(tick)))
	b.SetStart(start)

	inst, err := rt.Instantiate(ctx, b.Encode(), imports)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close(ctx)

	if calls != 1 {
		t.Errorf("start function ran %d time(s), want 1", calls)
	}
}

func TestRuntime_StartFunctionTrap(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	b := wasmbin.NewBuilder()
	sigV := b.AddType(nil, nil)
	start := b.AddFunc(sigV, wasmbin.Body(nil, wasmbin.OpUnreachable))
	b.SetStart(start)

	_, err := rt.Instantiate(ctx, b.Encode(), nil)
	if !errors.IsKind(err, errors.KindTrap) {
		t.Fatalf("expected trap during start, got %v", err)
	}

	var e *errors.Error
	if stderrors.As(err, &e) && e.Phase != errors.PhaseInstantiate {
		t.Errorf("trap phase = %s, want instantiate", e.Phase)
	}
	if rt.Errors().Length() == 0 {
		t.Error("error channel empty after start trap")
	}
}

func TestInstance_CloseSemantics(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	inst, err := rt.Instantiate(ctx, addModule(), nil)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	if err := inst.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := inst.Close(ctx); !errors.IsKind(err, errors.KindContract) {
		t.Errorf("double Close: expected contract violation, got %v", err)
	}
	if _, err := inst.Call(ctx, "add", []wasmembed.Value{wasmembed.I32(1), wasmembed.I32(2)}); err == nil {
		t.Error("Call after Close must fail")
	}
	if _, err := inst.Memory(0); err == nil {
		t.Error("Memory after Close must fail")
	}
}

func TestRuntime_ErrorChannelStaleReadPolicy(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	_, err := rt.Instantiate(ctx, []byte("junk"), nil)
	if err == nil {
		t.Fatal("expected failure")
	}
	before := rt.Errors().String()

	inst := instantiate(t, rt, addModule(), nil)
	if _, err := inst.Call(ctx, "add", []wasmembed.Value{wasmembed.I32(1), wasmembed.I32(1)}); err != nil {
		t.Fatalf("call: %v", err)
	}

	// Success never clears the channel: the stale message stays readable.
	if rt.Errors().String() != before {
		t.Errorf("channel changed by successful operations: %q -> %q", before, rt.Errors().String())
	}
}

func TestRuntime_ExportNames(t *testing.T) {
	rt := newRuntime(t)
	inst := instantiate(t, rt, trapModule(), nil)

	names := inst.ExportNames()
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	if !seen["div"] || !seen["boom"] {
		t.Errorf("ExportNames() = %v, want div and boom", names)
	}

	params, results, err := inst.FunctionKinds("div")
	if err != nil {
		t.Fatalf("FunctionKinds: %v", err)
	}
	if !wasmembed.KindsEqual(params, []wasmembed.ValueKind{wasmembed.KindI32, wasmembed.KindI32}) {
		t.Errorf("params = %v", params)
	}
	if !wasmembed.KindsEqual(results, []wasmembed.ValueKind{wasmembed.KindI32}) {
		t.Errorf("results = %v", results)
	}
}
