package security

// DefaultMaxFileSize is the read-size ceiling applied when the caller
// does not configure one: 10 MiB.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Policy is the immutable parameter set governing one validator: the
// canonical root, the read-only flag, the size ceiling and the compiled
// denylist. It is constructed once and never mutated afterwards, which
// keeps the confinement guarantee auditable from a single place.
type Policy struct {
	root        string
	readOnly    bool
	maxFileSize int64
	denylist    *Denylist
}

// Root returns the canonical absolute root directory.
func (p Policy) Root() string { return p.root }

// ReadOnly reports whether write-intent validations are rejected.
func (p Policy) ReadOnly() bool { return p.readOnly }

// MaxFileSize returns the byte ceiling applied to read-intent
// validations of existing regular files.
func (p Policy) MaxFileSize() int64 { return p.maxFileSize }

// DenylistPatterns returns the raw denylist patterns in evaluation order.
func (p Policy) DenylistPatterns() []string { return p.denylist.Patterns() }
