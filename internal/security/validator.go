// Package security implements the path confinement and operation-policy
// validator: the gatekeeper consulted before any read or write touches
// disk. Every decision is made against canonical (symlink-resolved)
// paths, so neither ".." spelling tricks nor symlinks move a request
// outside the configured root.
package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Intent is the access the caller wants validated.
type Intent int

const (
	IntentRead Intent = iota
	IntentWrite
)

func (i Intent) String() string {
	if i == IntentWrite {
		return "write"
	}
	return "read"
}

// Options configure a Validator at construction. The zero value yields
// a writable validator with the default size ceiling and denylist.
type Options struct {
	ReadOnly bool
	// MaxFileSize in bytes; zero or negative selects DefaultMaxFileSize.
	MaxFileSize int64
	// Denylist replaces DefaultDenylist wholesale when non-nil.
	Denylist []string
}

// Validator checks candidate paths against an immutable Policy. It
// holds no other state, so concurrent use needs no locking: each call
// is a function of the policy, the request and current filesystem
// contents. Validation and the file operation it gates are not atomic;
// callers must operate on the returned canonical path, never on the
// original string, to keep the race window as small as resolution
// allows.
type Validator struct {
	policy Policy
}

// NewValidator resolves root once to its canonical form and builds an
// immutable policy around it. The root must exist and be a directory;
// anything else is a KindRootInvalid violation and there is no degraded
// mode. Resolving at construction pins the confinement boundary even if
// the working directory changes later.
func NewValidator(root string, opts Options) (*Validator, error) {
	canonical, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	size := opts.MaxFileSize
	if size <= 0 {
		size = DefaultMaxFileSize
	}
	patterns := opts.Denylist
	if patterns == nil {
		patterns = DefaultDenylist
	}
	denylist, err := CompileDenylist(patterns)
	if err != nil {
		return nil, err
	}

	return &Validator{policy: Policy{
		root:        canonical,
		readOnly:    opts.ReadOnly,
		maxFileSize: size,
		denylist:    denylist,
	}}, nil
}

// Policy returns a copy of the validator's immutable policy.
func (v *Validator) Policy() Policy { return v.policy }

// WithRoot derives a validator confined to a different root while
// inheriting the read-only flag, size ceiling and denylist of the
// current policy. The receiver is left untouched; per-call roots never
// widen or move the session validator's own boundary.
func (v *Validator) WithRoot(root string) (*Validator, error) {
	canonical, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	derived := v.policy
	derived.root = canonical
	return &Validator{policy: derived}, nil
}

// ValidateRoot checks a caller-proposed root directory and returns its
// canonical form, or a KindRootInvalid violation. It does not alter the
// validator's own confinement boundary.
func (v *Validator) ValidateRoot(candidate string) (string, error) {
	return resolveRoot(candidate)
}

// ValidatePath validates raw for the given access intent and returns
// the canonical absolute path the caller must use from here on.
// Checks run in a fixed order on the canonicalized path: confinement,
// denylist, read-only, size ceiling. A path that escapes the root never
// reaches the later checks. Validation is idempotent; re-validating a
// returned path yields the same result.
//
// Policy failures are *Violation values. Filesystem errors during
// resolution (permissions, I/O) are returned as plain wrapped errors:
// they are not policy decisions.
func (v *Validator) ValidatePath(raw string, intent Intent) (string, error) {
	candidate := raw
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(v.policy.root, candidate)
	}
	canonical, err := canonicalize(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", raw, err)
	}

	if !isWithin(v.policy.root, canonical) {
		return "", &Violation{Kind: KindPathEscape, Path: raw}
	}

	rel, err := filepath.Rel(v.policy.root, canonical)
	if err != nil {
		return "", fmt.Errorf("relativize %q: %w", raw, err)
	}
	if pat, hit := v.policy.denylist.Match(rel); hit {
		return "", &Violation{Kind: KindDenylistViolation, Path: raw, Pattern: pat}
	}

	if intent == IntentWrite && v.policy.readOnly {
		return "", &Violation{Kind: KindReadOnlyViolation, Path: raw}
	}

	if intent == IntentRead {
		// Size can only be judged against something already on disk;
		// nonexistent or non-regular targets are exempt.
		if info, statErr := os.Stat(canonical); statErr == nil && info.Mode().IsRegular() {
			if info.Size() > v.policy.maxFileSize {
				return "", &Violation{
					Kind:  KindSizeLimitExceeded,
					Path:  raw,
					Size:  info.Size(),
					Limit: v.policy.maxFileSize,
				}
			}
		}
	}

	return canonical, nil
}

func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &Violation{Kind: KindRootInvalid, Path: root}
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &Violation{Kind: KindRootInvalid, Path: root}
	}
	info, err := os.Stat(canonical)
	if err != nil || !info.IsDir() {
		return "", &Violation{Kind: KindRootInvalid, Path: root}
	}
	return canonical, nil
}

// canonicalize resolves path to absolute, symlink-free form. The leaf
// (or a chain of trailing components) may not exist yet: the deepest
// existing ancestor is resolved and the remainder reattached lexically,
// so symlinked directories cannot smuggle an about-to-be-created file
// outside the root.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	// filepath.Abs cleaned the path, so the suffix we peel off contains
	// no "." or ".." components.
	suffix := ""
	dir := abs
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		suffix = filepath.Join(filepath.Base(dir), suffix)
		dir = parent
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
}

// isWithin reports whether path equals root or is a descendant of it.
// Both arguments must already be canonical; the comparison is
// component-wise, not a raw string prefix test.
func isWithin(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
