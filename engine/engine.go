package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/errors"
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

// Engine compiles modules and builds instances. Compiled code is shared
// across instances through a wazero compilation cache; each instance runs
// in its own wazero runtime.
type Engine struct {
	cache wazero.CompilationCache
	cfg   Config
}

// New creates an engine. A nil cfg uses defaults.
func New(cfg *Config) *Engine {
	e := &Engine{cache: wazero.NewCompilationCache()}
	if cfg != nil {
		e.cfg = *cfg
	}
	return e
}

// Close releases the compilation cache. All instances must be closed
// before calling this.
func (e *Engine) Close(ctx context.Context) error {
	return e.cache.Close(ctx)
}

func (e *Engine) runtimeConfig() wazero.RuntimeConfig {
	cfg := wazero.NewRuntimeConfig().
		WithCompilationCache(e.cache).
		WithCloseOnContextDone(true)
	if e.cfg.MemoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(e.cfg.MemoryLimitPages)
	}
	return cfg
}

// Validate performs a structural and type check of a binary module. It
// never fails hard: a non-conforming input simply yields false.
func (e *Engine) Validate(ctx context.Context, wasmBytes []byte) bool {
	r := wazero.NewRuntimeWithConfig(ctx, e.runtimeConfig())
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		debugf("validate rejected module: %v", err)
		return false
	}
	_ = compiled.Close(ctx)
	return true
}

// HostFunc is one host-provided import, ready to be bound into an
// instance. Invoke receives the calling instance's memory (nil when the
// instance has none) and the decoded arguments; its returned values must
// match Results kind for kind or the guest call traps.
type HostFunc struct {
	Namespace string
	Name      string
	Params    []wasmembed.ValueKind
	Results   []wasmembed.ValueKind
	Invoke    func(ctx context.Context, mem wasmembed.Memory, args []wasmembed.Value) ([]wasmembed.Value, error)
}

// Instantiate compiles wasmBytes, links its imports against hosts, and
// runs the module's start function. On any failure the partially built
// instance and its wazero runtime are torn down before returning.
func (e *Engine) Instantiate(ctx context.Context, wasmBytes []byte, hosts []HostFunc) (*Instance, error) {
	r := wazero.NewRuntimeWithConfig(ctx, e.runtimeConfig())

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		r.Close(ctx)
		return nil, classifyCompile(err)
	}

	if err := checkImports(compiled, hosts); err != nil {
		r.Close(ctx)
		return nil, err
	}

	if err := e.bindHosts(ctx, r, hosts); err != nil {
		r.Close(ctx)
		return nil, err
	}

	// The default module config would invoke an exported "_start"; the
	// only initialization run here is the module's own start section.
	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName(compiled.Name()).
		WithStartFunctions())
	if err != nil {
		r.Close(ctx)
		return nil, classifyInstantiate(err)
	}

	debugf("instantiated module %q with %d host import(s)", compiled.Name(), len(hosts))

	return &Instance{
		runtime:  r,
		compiled: compiled,
		mod:      mod,
	}, nil
}

// checkImports resolves every function import the module declares against
// the registered hosts by exact (namespace, name) and kind-sequence
// match. All failures are collected into one LinkError so the caller sees
// the complete list at once.
func checkImports(compiled wazero.CompiledModule, hosts []HostFunc) error {
	type key struct{ ns, name string }
	byKey := make(map[key]*HostFunc, len(hosts))
	for i := range hosts {
		h := &hosts[i]
		byKey[key{h.Namespace, h.Name}] = h
	}

	var unresolved []errors.UnresolvedImport
	for _, def := range compiled.ImportedFunctions() {
		ns, name, ok := def.Import()
		if !ok {
			continue
		}

		wantParams, okP := valueTypesToKinds(def.ParamTypes())
		wantResults, okR := valueTypesToKinds(def.ResultTypes())
		if !okP || !okR {
			unresolved = append(unresolved, errors.UnresolvedImport{
				Namespace: ns,
				Name:      name,
				Want:      "(non-primitive signature)",
			})
			continue
		}
		want := SignatureString(wantParams, wantResults)

		h, found := byKey[key{ns, name}]
		if !found {
			unresolved = append(unresolved, errors.UnresolvedImport{
				Namespace: ns,
				Name:      name,
				Want:      want,
			})
			continue
		}
		if !wasmembed.KindsEqual(h.Params, wantParams) || !wasmembed.KindsEqual(h.Results, wantResults) {
			unresolved = append(unresolved, errors.UnresolvedImport{
				Namespace: ns,
				Name:      name,
				Want:      want,
				Got:       SignatureString(h.Params, h.Results),
			})
		}
	}

	// Memory, table, and global imports have no host-side provider in a
	// function-import engine.
	for _, def := range compiled.ImportedMemories() {
		if ns, name, ok := def.Import(); ok {
			unresolved = append(unresolved, errors.UnresolvedImport{
				Namespace: ns,
				Name:      name,
				Want:      "(memory)",
			})
		}
	}

	if len(unresolved) > 0 {
		return errors.Link(unresolved)
	}
	return nil
}

// bindHosts instantiates one wazero host module per namespace inside the
// instance's private runtime.
func (e *Engine) bindHosts(ctx context.Context, r wazero.Runtime, hosts []HostFunc) error {
	byNS := make(map[string][]HostFunc)
	var nsOrder []string
	for _, h := range hosts {
		if _, seen := byNS[h.Namespace]; !seen {
			nsOrder = append(nsOrder, h.Namespace)
		}
		byNS[h.Namespace] = append(byNS[h.Namespace], h)
	}

	for _, ns := range nsOrder {
		builder := r.NewHostModuleBuilder(ns)
		for _, h := range byNS[ns] {
			builder.NewFunctionBuilder().
				WithGoModuleFunction(buildGoModuleFunc(h), kindsToValueTypes(h.Params), kindsToValueTypes(h.Results)).
				Export(h.Name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return errors.Wrap(errors.PhaseHost, errors.KindLink, err,
				fmt.Sprintf("bind host namespace %q", ns))
		}
	}
	return nil
}

// buildGoModuleFunc wraps a HostFunc into wazero's stack-based calling
// convention. The api.Module received at call time is the calling
// instance, which is how the callback reaches the caller's memory.
func buildGoModuleFunc(h HostFunc) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		args := make([]wasmembed.Value, len(h.Params))
		for i, k := range h.Params {
			args[i] = wasmembed.FromBits(k, stack[i])
		}

		var mem wasmembed.Memory
		if m := mod.Memory(); m != nil {
			mem = WrapMemory(m)
		}

		results, err := h.Invoke(ctx, mem, args)
		if err != nil {
			panic(&hostTrap{cause: err})
		}
		if len(results) != len(h.Results) {
			panic(&hostTrap{cause: errors.Contract(errors.PhaseHost,
				"host %s/%s returned %d value(s), declared %d",
				h.Namespace, h.Name, len(results), len(h.Results))})
		}
		for i, k := range h.Results {
			if results[i].Kind() != k {
				panic(&hostTrap{cause: errors.Contract(errors.PhaseHost,
					"host %s/%s result %d has kind %s, declared %s",
					h.Namespace, h.Name, i, results[i].Kind(), k)})
			}
			stack[i] = results[i].Bits()
		}
	}
}

// Instance is a linked, running module inside its own wazero runtime.
type Instance struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	mod      api.Module
}

// ExportNames returns the names of all exported functions.
func (i *Instance) ExportNames() []string {
	defs := i.mod.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	return names
}

// FunctionKinds returns the declared parameter and result kinds of an
// exported function.
func (i *Instance) FunctionKinds(name string) (params, results []wasmembed.ValueKind, err error) {
	def, ok := i.mod.ExportedFunctionDefinitions()[name]
	if !ok {
		return nil, nil, errors.NotFound(errors.PhaseCall, "exported function", name)
	}
	params, okP := valueTypesToKinds(def.ParamTypes())
	results, okR := valueTypesToKinds(def.ResultTypes())
	if !okP || !okR {
		return nil, nil, errors.Contract(errors.PhaseCall, "export %q has a non-primitive signature", name)
	}
	return params, results, nil
}

// Call invokes an exported function. The export is looked up by name and
// type-checked against params on every call; results carry the declared
// result kinds. A trap aborts only this call, leaving instance state as
// it was at the trap point.
func (i *Instance) Call(ctx context.Context, name string, params []wasmembed.Value) ([]wasmembed.Value, error) {
	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseCall, "exported function", name)
	}

	def := fn.Definition()
	wantParams, okP := valueTypesToKinds(def.ParamTypes())
	resultKinds, okR := valueTypesToKinds(def.ResultTypes())
	if !okP || !okR {
		return nil, errors.Contract(errors.PhaseCall, "export %q has a non-primitive signature", name)
	}

	if len(params) != len(wantParams) {
		return nil, errors.Contract(errors.PhaseCall, "call %q with %d param(s), declared %d",
			name, len(params), len(wantParams))
	}
	for idx, p := range params {
		if p.Kind() != wantParams[idx] {
			return nil, errors.New(errors.PhaseCall, errors.KindContract).
				Path(name, fmt.Sprintf("param[%d]", idx)).
				Detail("want %s, got %s", wantParams[idx], p.Kind()).
				Build()
		}
	}

	stack, err := fn.Call(ctx, encodeValues(params)...)
	if err != nil {
		Logger().Debug("guest call trapped",
			zap.String("export", name),
			zap.Error(err))
		return nil, classifyTrap(err)
	}

	return decodeValues(resultKinds, stack), nil
}

// Memory returns the instance's memory at index. Only index 0 exists in
// this single-memory engine.
func (i *Instance) Memory(index uint32) (wasmembed.Memory, error) {
	if index != 0 {
		return nil, errors.NotFound(errors.PhaseResource, "memory index", fmt.Sprintf("%d", index))
	}
	mem := i.mod.Memory()
	if mem == nil {
		return nil, errors.NotFound(errors.PhaseResource, "memory index", "0")
	}
	return WrapMemory(mem), nil
}

// Close tears down the module instance and its private runtime,
// releasing every resource the instance owns.
func (i *Instance) Close(ctx context.Context) error {
	return i.runtime.Close(ctx)
}
