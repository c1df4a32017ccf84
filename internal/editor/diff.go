package editor

import (
	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff renders one proposed change as a unified diff with the
// conventional a/ b/ headers.
func UnifiedDiff(change FileChange) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(change.Original),
		B:        difflib.SplitLines(change.Modified),
		FromFile: "a/" + change.Path,
		ToFile:   "b/" + change.Path,
		Context:  3,
	})
}
