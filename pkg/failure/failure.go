// Package failure maps errors from every stage of a run onto the small set of
// outcomes reported to the user.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a terminal failure.
type Kind int

const (
	Unknown Kind = iota
	NoContext
	NoNamespace
	NoService
	NoPorts
	InvalidSelection
	KubectlFailed
	IOError
	SignalSetupFailed
)

func (k Kind) String() string {
	switch k {
	case NoContext:
		return "NoContext"
	case NoNamespace:
		return "NoNamespace"
	case NoService:
		return "NoService"
	case NoPorts:
		return "NoPorts"
	case InvalidSelection:
		return "InvalidSelection"
	case KubectlFailed:
		return "KubectlFailed"
	case IOError:
		return "IOError"
	case SignalSetupFailed:
		return "SignalSetupFailed"
	default:
		return "Unknown"
	}
}

// Error is a classified failure. Namespace is only set for NoService.
type Error struct {
	Kind      Kind
	Namespace string
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case NoContext:
		return "No context found"
	case NoNamespace:
		return "No namespace found"
	case NoService:
		return fmt.Sprintf("No service found in namespace '%s'", e.Namespace)
	case NoPorts:
		return "No ports selected"
	case InvalidSelection:
		if e.Err != nil {
			return fmt.Sprintf("No valid selection: %v", e.Err)
		}
		return "No valid selection"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinel comparisons like
// errors.Is(err, &Error{Kind: NoPorts}) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind) error {
	return &Error{Kind: kind}
}

func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func NoServiceIn(namespace string) error {
	return &Error{Kind: NoService, Namespace: namespace}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// ExitCode is 0 for nil and 1 for any failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
