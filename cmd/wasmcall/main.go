package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"

	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/runtime"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to wasm module file")
		funcName    = flag.String("func", "", "Exported function to call")
		argsStr     = flag.String("args", "", "Function arguments (comma-separated, parsed per the declared kinds)")
		memLimit    = flag.Uint("mem-limit", 0, "Memory limit per instance in 64KB pages (0 = default)")
		list        = flag.Bool("list", false, "List exported functions and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wasmcall -wasm <file.wasm> -func name [-args a,b,c]")
		fmt.Fprintln(os.Stderr, "       wasmcall -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       wasmcall -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*wasmFile, uint32(*memLimit)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *funcName, *argsStr, uint32(*memLimit), *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(wasmFile, funcName, argsStr string, memLimit uint32, listOnly bool) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var opts []runtime.Option
	if memLimit > 0 {
		opts = append(opts, runtime.WithMemoryLimitPages(memLimit))
	}
	rt, err := runtime.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	if !rt.Validate(ctx, data) {
		return fmt.Errorf("validate: %s is not a well-formed wasm module", wasmFile)
	}

	instance, err := rt.Instantiate(ctx, data, nil)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer instance.Close(ctx)

	fmt.Printf("Module: %s\n", wasmFile)

	names := instance.ExportNames()
	sort.Strings(names)

	fmt.Printf("\nExported functions:\n")
	for _, name := range names {
		params, results, err := instance.FunctionKinds(name)
		if err != nil {
			fmt.Printf("  %s (signature unavailable)\n", name)
			continue
		}
		fmt.Printf("  %s%s\n", name, signature(params, results))
	}

	if listOnly {
		return nil
	}

	if funcName == "" {
		if len(names) == 1 {
			funcName = names[0]
		} else {
			fmt.Printf("\nNo function specified. Use -func to pick one.\n")
			return nil
		}
	}

	paramKinds, _, err := instance.FunctionKinds(funcName)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", funcName, err)
	}

	params, err := parseArgs(argsStr, paramKinds)
	if err != nil {
		return err
	}

	fmt.Printf("\nCalling %s(%s)...\n", funcName, argsStr)
	results, err := instance.Call(ctx, funcName, params)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}

	fmt.Printf("Result: %s\n", formatValues(results))
	return nil
}

// parseArgs converts comma-separated text into typed values per the
// function's declared parameter kinds.
func parseArgs(argsStr string, kinds []wasmembed.ValueKind) ([]wasmembed.Value, error) {
	var parts []string
	if argsStr != "" {
		parts = strings.Split(argsStr, ",")
	}
	if len(parts) != len(kinds) {
		return nil, fmt.Errorf("function takes %d argument(s), got %d", len(kinds), len(parts))
	}

	vals := make([]wasmembed.Value, len(parts))
	for i, raw := range parts {
		v, err := parseValue(strings.TrimSpace(raw), kinds[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func parseValue(raw string, kind wasmembed.ValueKind) (wasmembed.Value, error) {
	switch kind {
	case wasmembed.KindI32:
		n, err := strconv.ParseInt(raw, 0, 32)
		if err != nil {
			return wasmembed.Value{}, fmt.Errorf("%q is not an i32: %w", raw, err)
		}
		return wasmembed.I32(int32(n)), nil
	case wasmembed.KindI64:
		n, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return wasmembed.Value{}, fmt.Errorf("%q is not an i64: %w", raw, err)
		}
		return wasmembed.I64(n), nil
	case wasmembed.KindF32:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return wasmembed.Value{}, fmt.Errorf("%q is not an f32: %w", raw, err)
		}
		return wasmembed.F32(float32(f)), nil
	case wasmembed.KindF64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return wasmembed.Value{}, fmt.Errorf("%q is not an f64: %w", raw, err)
		}
		return wasmembed.F64(f), nil
	}
	return wasmembed.Value{}, fmt.Errorf("unsupported kind %s", kind)
}

func formatValue(v wasmembed.Value) string {
	switch v.Kind() {
	case wasmembed.KindI32:
		return strconv.FormatInt(int64(v.AsI32()), 10)
	case wasmembed.KindI64:
		return strconv.FormatInt(v.AsI64(), 10)
	case wasmembed.KindF32:
		return strconv.FormatFloat(float64(v.AsF32()), 'g', -1, 32)
	case wasmembed.KindF64:
		return strconv.FormatFloat(v.AsF64(), 'g', -1, 64)
	}
	return "?"
}

func formatValues(vals []wasmembed.Value) string {
	if len(vals) == 0 {
		return "(none)"
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatValue(v) + ": " + v.Kind().String()
	}
	return strings.Join(parts, ", ")
}

func signature(params, results []wasmembed.ValueKind) string {
	s := wasmembed.KindsString(params)
	if len(results) > 0 {
		s += " -> " + wasmembed.KindsString(results)
	}
	return s
}
