package security

import (
	"path/filepath"
	"strings"
	"testing"
)

// FuzzValidatePath_Confinement drives arbitrary path spellings through
// the validator and requires that every accepted path is canonical and
// inside the root. Rejections are fine; acceptances outside the
// boundary are the bug class this component exists to prevent.
func FuzzValidatePath_Confinement(f *testing.F) {
	root, err := filepath.EvalSymlinks(f.TempDir())
	if err != nil {
		f.Fatalf("resolve temp dir: %v", err)
	}
	v, err := NewValidator(root, Options{})
	if err != nil {
		f.Fatalf("NewValidator: %v", err)
	}

	f.Add("src/utils.py")
	f.Add("../../etc/passwd")
	f.Add("/etc/passwd")
	f.Add("a/../b/../../c")
	f.Add("..\\windows\\style")
	f.Add(strings.Repeat("../", 64) + "x")
	f.Add("./.git/../ok.txt")
	f.Add("")

	f.Fuzz(func(t *testing.T, raw string) {
		got, err := v.ValidatePath(raw, IntentWrite)
		if err != nil {
			return
		}
		if got != root && !strings.HasPrefix(got, root+string(filepath.Separator)) {
			t.Fatalf("accepted %q -> %q outside root %q", raw, got, root)
		}
		if got != filepath.Clean(got) {
			t.Fatalf("accepted non-canonical path %q", got)
		}

		// Idempotency: the accepted canonical path re-validates to itself.
		again, err := v.ValidatePath(got, IntentWrite)
		if err != nil {
			t.Fatalf("re-validation of %q failed: %v", got, err)
		}
		if again != got {
			t.Fatalf("re-validation changed %q to %q", got, again)
		}
	})
}

// FuzzDenylistMatch_NoPanic feeds arbitrary pattern/path pairs to the
// matcher; it must never panic and must never touch the filesystem.
func FuzzDenylistMatch_NoPanic(f *testing.F) {
	f.Add(".git/**", ".git/config")
	f.Add("*.env", "config.env")
	f.Add("**", "")
	f.Add("a/**/b/**/c", "a/x/b/y/c")

	f.Fuzz(func(t *testing.T, pattern, rel string) {
		d, err := CompileDenylist([]string{pattern})
		if err != nil {
			return
		}
		_, _ = d.Match(rel)
	})
}
