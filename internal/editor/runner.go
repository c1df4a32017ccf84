package editor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cedarscript/cedarmcp/internal/pkg/logger"
	"github.com/cedarscript/cedarmcp/internal/security"
)

// FileDiff is a rendered unified diff for one proposed change.
type FileDiff struct {
	Path string `json:"path"`
	Diff string `json:"diff"`
}

// Preview is the dry-run outcome: parsed commands plus per-file diffs.
// Nothing has been written.
type Preview struct {
	CommandCount int        `json:"command_count"`
	Commands     []Command  `json:"commands"`
	Diffs        []FileDiff `json:"diffs"`
}

// AppliedFile records one executed change.
type AppliedFile struct {
	Path    string `json:"path"`
	Created bool   `json:"created"`
	Bytes   int    `json:"bytes"`
}

// Outcome is the execute result after all changes have been written.
type Outcome struct {
	CommandCount int           `json:"command_count"`
	Applied      []AppliedFile `json:"applied"`
}

// Runner orchestrates the engine and the validator: the engine proposes
// changes, the runner clears every touched path through the validator,
// and only the runner writes to disk. A validation failure on any path
// aborts the whole batch before the first write; there is no fallback
// to an unvalidated path.
type Runner struct {
	engine Engine
}

func NewRunner(engine Engine) *Runner {
	return &Runner{engine: engine}
}

// Parse validates command syntax without planning or writing.
func (r *Runner) Parse(ctx context.Context, content string) ([]Command, error) {
	return r.engine.Parse(ctx, content)
}

// EngineVersion reports the underlying engine version.
func (r *Runner) EngineVersion(ctx context.Context) string {
	return r.engine.Version(ctx)
}

// Preview plans the command batch and renders unified diffs. Each
// touched path is validated with read intent, so escapes and denylist
// hits surface here too, while a read-only policy can still preview.
func (r *Runner) Preview(ctx context.Context, v *security.Validator, commands string) (*Preview, error) {
	plan, err := r.engine.Plan(ctx, v.Policy().Root(), commands)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		CommandCount: len(plan.Commands),
		Commands:     plan.Commands,
		Diffs:        make([]FileDiff, 0, len(plan.Changes)),
	}
	for _, change := range plan.Changes {
		if _, err := v.ValidatePath(change.Path, security.IntentRead); err != nil {
			return nil, err
		}
		diff, err := UnifiedDiff(change)
		if err != nil {
			return nil, fmt.Errorf("render diff for %s: %w", change.Path, err)
		}
		preview.Diffs = append(preview.Diffs, FileDiff{Path: change.Path, Diff: diff})
	}
	return preview, nil
}

// Execute plans the command batch, validates every touched path with
// write intent, and then writes the proposed contents. Validation of
// the full batch happens before the first write so a rejected path
// never leaves the project half-mutated by this call.
func (r *Runner) Execute(ctx context.Context, v *security.Validator, commands string) (*Outcome, error) {
	plan, err := r.engine.Plan(ctx, v.Policy().Root(), commands)
	if err != nil {
		return nil, err
	}

	log := logger.From(ctx)

	canonical := make([]string, len(plan.Changes))
	for i, change := range plan.Changes {
		path, err := v.ValidatePath(change.Path, security.IntentWrite)
		if err != nil {
			log.Warn("change rejected by policy", "path", change.Path, "error", err)
			return nil, err
		}
		canonical[i] = path
	}

	outcome := &Outcome{
		CommandCount: len(plan.Commands),
		Applied:      make([]AppliedFile, 0, len(plan.Changes)),
	}
	for i, change := range plan.Changes {
		_, statErr := os.Stat(canonical[i])
		created := os.IsNotExist(statErr)
		if err := os.MkdirAll(filepath.Dir(canonical[i]), 0o755); err != nil {
			return outcome, fmt.Errorf("create parent for %s: %w", change.Path, err)
		}
		if err := os.WriteFile(canonical[i], []byte(change.Modified), 0o644); err != nil {
			return outcome, fmt.Errorf("write %s: %w", change.Path, err)
		}
		log.Info("applied change", "path", change.Path, "created", created, "bytes", len(change.Modified))
		outcome.Applied = append(outcome.Applied, AppliedFile{
			Path:    change.Path,
			Created: created,
			Bytes:   len(change.Modified),
		})
	}
	return outcome, nil
}
