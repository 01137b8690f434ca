package errors

import (
	"fmt"
	"strings"
)

// UnresolvedImport is a single import the module declares that the host did
// not satisfy, either because nothing was registered under the
// (namespace, name) pair or because the registered signature disagrees.
type UnresolvedImport struct {
	Namespace string // e.g., "env"
	Name      string // e.g., "log_u32"
	Want      string // module-declared signature, e.g., "(i32, i32) -> (i32)"
	Got       string // registered signature, empty when nothing was registered
}

func (u UnresolvedImport) missing() bool { return u.Got == "" }

// LinkError is returned when instantiation fails because one or more
// module imports could not be resolved against the import object.
type LinkError struct {
	Imports []UnresolvedImport
}

func (e *LinkError) Error() string {
	if len(e.Imports) == 0 {
		return "[link] link: no imports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("unresolved %d import(s):\n", len(e.Imports)))

	// Group by namespace for cleaner output
	byNS := make(map[string][]UnresolvedImport)
	var nsOrder []string
	for _, imp := range e.Imports {
		if _, exists := byNS[imp.Namespace]; !exists {
			nsOrder = append(nsOrder, imp.Namespace)
		}
		byNS[imp.Namespace] = append(byNS[imp.Namespace], imp)
	}

	for _, ns := range nsOrder {
		b.WriteString("\n  ")
		b.WriteString(ns)
		b.WriteString(":\n")
		for _, imp := range byNS[ns] {
			b.WriteString("    - ")
			b.WriteString(imp.Name)
			if imp.missing() {
				b.WriteString(" ")
				b.WriteString(imp.Want)
				b.WriteString(" (not registered)")
			} else {
				b.WriteString(": want ")
				b.WriteString(imp.Want)
				b.WriteString(", registered ")
				b.WriteString(imp.Got)
			}
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *LinkError) Is(target error) bool {
	if _, ok := target.(*LinkError); ok {
		return true
	}
	if t, ok := target.(*Error); ok {
		return t.Kind == KindLink
	}
	return false
}

// Link wraps a LinkError into the structured Error form used at the
// instantiation boundary.
func Link(unresolved []UnresolvedImport) *Error {
	return &Error{
		Phase: PhaseLink,
		Kind:  KindLink,
		Cause: &LinkError{Imports: unresolved},
	}
}
