package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseValidate    Phase = "validate"    // structural validation
	PhaseInstantiate Phase = "instantiate" // module instantiation
	PhaseLink        Phase = "link"        // import resolution
	PhaseCall        Phase = "call"        // export dispatch
	PhaseHost        Phase = "host"        // host function bridging
	PhaseResource    Phase = "resource"    // memory/table/global operations
)

// Kind categorizes the error
type Kind string

const (
	KindDecode        Kind = "decode"         // malformed binary
	KindLink          Kind = "link"           // unresolved or mismatched import
	KindTrap          Kind = "trap"           // guest execution fault
	KindResourceLimit Kind = "resource_limit" // grow past max or allocation failure
	KindContract      Kind = "contract"       // caller contract violation
	KindNotFound      Kind = "not_found"      // unknown export or resource
)

// TrapCode classifies a guest execution fault.
type TrapCode string

const (
	TrapOutOfBounds   TrapCode = "out_of_bounds_memory_access"
	TrapDivByZero     TrapCode = "integer_divide_by_zero"
	TrapOverflow      TrapCode = "integer_overflow"
	TrapUnreachable   TrapCode = "unreachable"
	TrapIndirectCall  TrapCode = "indirect_call_type_mismatch"
	TrapStackOverflow TrapCode = "stack_overflow"
	TrapHostError     TrapCode = "host_function_error"
	TrapUnknown       TrapCode = "trap"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Trap   TrapCode
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Trap != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Trap))
		b.WriteByte(')')
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err is an *Error of the given kind, in any phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the context path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Decode creates a malformed-binary error
func Decode(cause error) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindDecode,
		Detail: "malformed module binary",
		Cause:  cause,
	}
}

// Trap creates a guest execution fault error
func Trap(code TrapCode, cause error) *Error {
	return &Error{
		Phase: PhaseCall,
		Kind:  KindTrap,
		Trap:  code,
		Cause: cause,
	}
}

// StartTrap creates a trap error for a fault during the start function
func StartTrap(code TrapCode, cause error) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindTrap,
		Trap:   code,
		Detail: "start function trapped",
		Cause:  cause,
	}
}

// ResourceLimit creates a grow/allocation failure error
func ResourceLimit(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseResource,
		Kind:   KindResourceLimit,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Contract creates a caller contract violation error
func Contract(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindContract,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Closed creates a use-after-close contract violation
func Closed(what string) *Error {
	return &Error{
		Phase:  PhaseResource,
		Kind:   KindContract,
		Detail: fmt.Sprintf("%s is closed", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
