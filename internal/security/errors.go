package security

import (
	"errors"
	"fmt"
)

// Kind identifies a class of policy violation. Callers branch on Kind,
// never on the rendered message.
type Kind string

const (
	KindRootInvalid       Kind = "root_invalid"
	KindPathEscape        Kind = "path_escape"
	KindDenylistViolation Kind = "denylist_violation"
	KindReadOnlyViolation Kind = "read_only_violation"
	KindSizeLimitExceeded Kind = "size_limit_exceeded"
)

// Violation is a policy failure raised by the validator. It aborts the
// single operation that triggered it; validator state is untouched.
type Violation struct {
	Kind Kind
	// Path as supplied by the caller, kept verbatim for diagnostics.
	Path string
	// Pattern is set for KindDenylistViolation: the first matching
	// denylist pattern in list order.
	Pattern string
	// Size and Limit are set for KindSizeLimitExceeded, in bytes.
	Size  int64
	Limit int64
}

func (v *Violation) Error() string {
	switch v.Kind {
	case KindRootInvalid:
		return fmt.Sprintf("root directory invalid: %q does not exist or is not a directory", v.Path)
	case KindPathEscape:
		return fmt.Sprintf("path escape attempt: %q resolves outside root directory", v.Path)
	case KindDenylistViolation:
		return fmt.Sprintf("path matches denylist pattern %q: %s", v.Pattern, v.Path)
	case KindReadOnlyViolation:
		return fmt.Sprintf("write operation rejected: server in read-only mode: %s", v.Path)
	case KindSizeLimitExceeded:
		return fmt.Sprintf("file exceeds maximum size (%d > %d bytes): %s", v.Size, v.Limit, v.Path)
	default:
		return fmt.Sprintf("policy violation (%s): %s", v.Kind, v.Path)
	}
}

// AsViolation unwraps err into a *Violation, if it carries one.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// IsKind reports whether err is a policy violation of the given kind.
func IsKind(err error, kind Kind) bool {
	v, ok := AsViolation(err)
	return ok && v.Kind == kind
}
