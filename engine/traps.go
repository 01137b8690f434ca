package engine

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/sys"

	"github.com/wippyai/wasm-embed/errors"
)

// hostTrap carries an error returned by a host callback across the guest
// frame boundary. wazero recovers the panic and surfaces it from Call,
// where classifyTrap turns it back into a structured trap.
type hostTrap struct {
	cause error
}

func (h *hostTrap) Error() string {
	return "host function error: " + h.cause.Error()
}

func (h *hostTrap) Unwrap() error {
	return h.cause
}

// trapCodeOf maps a wazero fault message onto the trap taxonomy.
func trapCodeOf(msg string) errors.TrapCode {
	switch {
	case strings.Contains(msg, "out of bounds memory access"):
		return errors.TrapOutOfBounds
	case strings.Contains(msg, "integer divide by zero"):
		return errors.TrapDivByZero
	case strings.Contains(msg, "integer overflow"):
		return errors.TrapOverflow
	case strings.Contains(msg, "unreachable"):
		return errors.TrapUnreachable
	case strings.Contains(msg, "indirect call type mismatch"),
		strings.Contains(msg, "null function"):
		return errors.TrapIndirectCall
	case strings.Contains(msg, "stack overflow"):
		return errors.TrapStackOverflow
	case strings.Contains(msg, "host function error"):
		return errors.TrapHostError
	}
	return errors.TrapUnknown
}

// classifyTrap wraps a fault returned by wazero during guest execution.
func classifyTrap(err error) *errors.Error {
	var ht *hostTrap
	if stderrors.As(err, &ht) {
		// Structured host errors pass through with their own taxonomy.
		var structured *errors.Error
		if stderrors.As(ht.cause, &structured) {
			return structured
		}
		return errors.Trap(errors.TrapHostError, ht.cause)
	}

	var exit *sys.ExitError
	if stderrors.As(err, &exit) {
		return errors.New(errors.PhaseCall, errors.KindTrap).
			Detail("module exited with code %d", exit.ExitCode()).
			Cause(err).
			Build()
	}

	return errors.Trap(trapCodeOf(err.Error()), err)
}

// classifyInstantiate wraps a fault from module instantiation: either an
// unresolved import wazero caught before execution, or a trap raised by
// the start function.
func classifyInstantiate(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "import") || strings.Contains(msg, "not instantiated") {
		return errors.Wrap(errors.PhaseLink, errors.KindLink, err, "resolve imports")
	}

	var ht *hostTrap
	if stderrors.As(err, &ht) {
		return errors.StartTrap(errors.TrapHostError, ht.cause)
	}
	return errors.StartTrap(trapCodeOf(msg), err)
}

// classifyCompile wraps a decode/validation failure from wazero.
func classifyCompile(err error) error {
	return errors.Decode(fmt.Errorf("compile module: %w", err))
}
