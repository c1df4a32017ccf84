package editor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedarscript/cedarmcp/internal/security"
)

type fakeEngine struct {
	commands []Command
	changes  []FileChange
	parseErr error
	planErr  error
	planRoot string
}

func (f *fakeEngine) Parse(ctx context.Context, content string) ([]Command, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.commands, nil
}

func (f *fakeEngine) Plan(ctx context.Context, root, commands string) (*PlanResult, error) {
	f.planRoot = root
	if f.planErr != nil {
		return nil, f.planErr
	}
	return &PlanResult{Commands: f.commands, Changes: f.changes}, nil
}

func (f *fakeEngine) Version(ctx context.Context) string { return "fake" }

func testValidator(t *testing.T, opts security.Options) (*security.Validator, string) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	v, err := security.NewValidator(root, opts)
	require.NoError(t, err)
	return v, root
}

func TestRunnerPreview_RendersDiffs(t *testing.T) {
	v, root := testValidator(t, security.Options{})
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello\n"), 0o644))

	eng := &fakeEngine{
		commands: []Command{{Type: "UpdateCommand", Target: "a.txt", Action: "REPLACE"}},
		changes:  []FileChange{{Path: "a.txt", Original: "hello\n", Modified: "hello world\n"}},
	}
	r := NewRunner(eng)

	preview, err := r.Preview(context.Background(), v, "UPDATE FILE \"a.txt\"")
	require.NoError(t, err)

	assert.Equal(t, 1, preview.CommandCount)
	require.Len(t, preview.Diffs, 1)
	assert.Equal(t, "a.txt", preview.Diffs[0].Path)
	assert.Contains(t, preview.Diffs[0].Diff, "-hello")
	assert.Contains(t, preview.Diffs[0].Diff, "+hello world")
	assert.Equal(t, root, eng.planRoot, "engine must be planned against the canonical root")

	// Preview never writes.
	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestRunnerPreview_DenylistBlocks(t *testing.T) {
	v, _ := testValidator(t, security.Options{})
	eng := &fakeEngine{changes: []FileChange{{Path: ".env", Modified: "SECRET=1\n"}}}

	_, err := NewRunner(eng).Preview(context.Background(), v, "x")
	require.Error(t, err)
	assert.True(t, security.IsKind(err, security.KindDenylistViolation), "got %v", err)
}

func TestRunnerPreview_AllowedUnderReadOnlyPolicy(t *testing.T) {
	v, _ := testValidator(t, security.Options{ReadOnly: true})
	eng := &fakeEngine{changes: []FileChange{{Path: "new.txt", Modified: "x\n"}}}

	_, err := NewRunner(eng).Preview(context.Background(), v, "x")
	require.NoError(t, err, "dry-run must work under a read-only policy")
}

func TestRunnerExecute_WritesValidatedChanges(t *testing.T) {
	v, root := testValidator(t, security.Options{})
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("old\n"), 0o644))

	eng := &fakeEngine{
		commands: []Command{{Type: "UpdateCommand"}, {Type: "CreateCommand"}},
		changes: []FileChange{
			{Path: "a.txt", Original: "old\n", Modified: "new\n"},
			{Path: "pkg/b.txt", Modified: "created\n"},
		},
	}

	outcome, err := NewRunner(eng).Execute(context.Background(), v, "x")
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.CommandCount)
	require.Len(t, outcome.Applied, 2)
	assert.False(t, outcome.Applied[0].Created)
	assert.True(t, outcome.Applied[1].Created)

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	data, err = os.ReadFile(filepath.Join(root, "pkg", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "created\n", string(data))
}

func TestRunnerExecute_ReadOnlyRejected(t *testing.T) {
	v, root := testValidator(t, security.Options{ReadOnly: true})
	eng := &fakeEngine{changes: []FileChange{{Path: "a.txt", Modified: "x\n"}}}

	_, err := NewRunner(eng).Execute(context.Background(), v, "x")
	require.Error(t, err)
	assert.True(t, security.IsKind(err, security.KindReadOnlyViolation), "got %v", err)

	_, statErr := os.Stat(filepath.Join(root, "a.txt"))
	assert.True(t, os.IsNotExist(statErr), "nothing may be written on rejection")
}

func TestRunnerExecute_ValidatesWholeBatchBeforeWriting(t *testing.T) {
	v, root := testValidator(t, security.Options{})
	eng := &fakeEngine{changes: []FileChange{
		{Path: "ok.txt", Modified: "fine\n"},
		{Path: "../evil.txt", Modified: "escape\n"},
	}}

	_, err := NewRunner(eng).Execute(context.Background(), v, "x")
	require.Error(t, err)
	assert.True(t, security.IsKind(err, security.KindPathEscape), "got %v", err)

	_, statErr := os.Stat(filepath.Join(root, "ok.txt"))
	assert.True(t, os.IsNotExist(statErr), "a rejected batch must not be half-applied")
}

func TestRunnerExecute_EngineErrorSurfaces(t *testing.T) {
	v, _ := testValidator(t, security.Options{})
	eng := &fakeEngine{planErr: &ExecError{CommandIndex: 2, Detail: "marker not found"}}

	_, err := NewRunner(eng).Execute(context.Background(), v, "x")
	require.Error(t, err)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 2, execErr.CommandIndex)
}

func TestRunnerParse_Passthrough(t *testing.T) {
	eng := &fakeEngine{commands: []Command{{Type: "DeleteCommand", Target: "x.py"}}}
	cmds, err := NewRunner(eng).Parse(context.Background(), "DELETE FILE \"x.py\"")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "DeleteCommand", cmds[0].Type)
}
