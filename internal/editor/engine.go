// Package editor defines the boundary with the external CEDARScript
// engine: the component that parses the command language and computes
// file mutations. The engine never writes to disk itself; it proposes
// changes, and the runner applies them only after every touched path
// has cleared the security validator.
package editor

import (
	"context"
	"fmt"
)

// Command is the serialized form of one parsed CEDARScript command, as
// reported by the engine. The grammar and AST live behind the engine
// boundary; this is the wire shape only.
type Command struct {
	Type    string `json:"type"`
	Target  string `json:"target,omitempty"`
	Action  string `json:"action,omitempty"`
	Segment string `json:"segment,omitempty"`
	Content string `json:"content,omitempty"`
}

// FileChange is one proposed mutation: the root-relative path plus the
// full before/after contents. Original is empty for file creation.
type FileChange struct {
	Path     string `json:"path"`
	Original string `json:"original"`
	Modified string `json:"modified"`
}

// PlanResult is the engine's answer to an apply request: the proposed
// changes for the parsed command batch.
type PlanResult struct {
	Commands []Command    `json:"commands"`
	Changes  []FileChange `json:"changes"`
}

// Engine is the external command parser/planner. Implementations must
// honor ctx cancellation; callers own request-level timeouts.
type Engine interface {
	// Parse validates syntax and returns the parsed commands without
	// planning or applying anything.
	Parse(ctx context.Context, content string) ([]Command, error)
	// Plan parses commands and computes the file changes they imply
	// against the project at root, without writing.
	Plan(ctx context.Context, root, commands string) (*PlanResult, error)
	// Version reports the engine version, or "unknown".
	Version(ctx context.Context) string
}

// ParseError is a syntax failure from the engine.
type ParseError struct {
	Detail string
}

func (e *ParseError) Error() string {
	return "cedarscript parse error: " + e.Detail
}

// ExecError is a planning/execution failure from the engine.
// CommandIndex is the zero-based ordinal of the failing command, or -1
// when the engine did not attribute the failure.
type ExecError struct {
	CommandIndex int
	Detail       string
}

func (e *ExecError) Error() string {
	if e.CommandIndex >= 0 {
		return fmt.Sprintf("cedarscript execution failed at command %d: %s", e.CommandIndex, e.Detail)
	}
	return "cedarscript execution failed: " + e.Detail
}
