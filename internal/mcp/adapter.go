package mcp

import (
	"errors"
	"strings"

	"github.com/cedarscript/cedarmcp/internal/editor"
	"github.com/cedarscript/cedarmcp/internal/security"
)

// Stable application error codes, published alongside the JSON-RPC
// reserved range so clients can branch without parsing message text.
const (
	CodeInternalError  = -32603
	CodeSecurityError  = -32001
	CodeParseError     = -32002
	CodeExecutionError = -32003
)

// errorPayload is the structured error shape embedded in tool
// envelopes. Every failure carries a stable code, a type tag and
// actionable suggestions.
type errorPayload struct {
	Code        int            `json:"code"`
	Type        string         `json:"type"`
	Details     string         `json:"details"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// translateError maps validator and engine failures onto the stable
// error codes. Unknown errors become internal errors; nothing is ever
// silently downgraded.
func translateError(err error) *errorPayload {
	if v, ok := security.AsViolation(err); ok {
		return translateViolation(v)
	}

	var parseErr *editor.ParseError
	if errors.As(err, &parseErr) {
		return &errorPayload{
			Code:    CodeParseError,
			Type:    "ParseError",
			Details: err.Error(),
			Suggestions: []string{
				"Check CEDARScript syntax",
				"Valid commands: UPDATE, CREATE, DELETE, MOVE",
				"Use parse_cedarscript to validate before applying",
			},
		}
	}

	var execErr *editor.ExecError
	if errors.As(err, &execErr) {
		p := &errorPayload{
			Code:        CodeExecutionError,
			Type:        "ExecutionError",
			Details:     err.Error(),
			Suggestions: executionSuggestions(execErr.Detail),
		}
		if execErr.CommandIndex >= 0 {
			p.Data = map[string]any{"command_index": execErr.CommandIndex}
		}
		return p
	}

	return &errorPayload{
		Code:    CodeInternalError,
		Type:    "InternalError",
		Details: err.Error(),
	}
}

func translateViolation(v *security.Violation) *errorPayload {
	p := &errorPayload{
		Code:    CodeSecurityError,
		Type:    "SecurityError",
		Details: v.Error(),
		Data:    map[string]any{"kind": string(v.Kind), "path": v.Path},
	}
	switch v.Kind {
	case security.KindRootInvalid:
		p.Suggestions = []string{
			"Verify the root directory exists and is a directory",
			"Pass an absolute path for the project root",
		}
	case security.KindPathEscape:
		p.Suggestions = []string{
			"Verify the path is within the project root",
			"Remove '..' segments and symlinks that leave the root",
		}
	case security.KindDenylistViolation:
		p.Data["pattern"] = v.Pattern
		p.Suggestions = []string{
			"Check the path against the configured denylist",
			"Sensitive files (credentials, keys, VCS metadata) are never editable",
		}
	case security.KindReadOnlyViolation:
		p.Suggestions = []string{
			"The server is running in read-only mode",
			"Use dry_run=true to preview changes instead",
		}
	case security.KindSizeLimitExceeded:
		p.Data["size"] = v.Size
		p.Data["limit"] = v.Limit
		p.Suggestions = []string{
			"The file exceeds the configured size ceiling",
			"Raise CEDARSCRIPT_MAX_FILE_SIZE if the file is expected to be this large",
		}
	}
	return p
}

// executionSuggestions mirrors the common engine failure modes with
// concrete next steps.
func executionSuggestions(detail string) []string {
	lower := strings.ToLower(detail)
	switch {
	case strings.Contains(lower, "file not found"):
		return []string{
			"Verify the file path is correct",
			"Check if the file exists in the project root",
			"Consider a CREATE command if the file should be created",
		}
	case strings.Contains(lower, "marker not found"):
		return []string{
			"Re-analyze the file structure (it may have changed)",
			"Use line numbers instead of markers if the structure is unstable",
			"Verify the function/class name is correct",
		}
	default:
		return []string{"Re-run parse_cedarscript to validate command syntax"}
	}
}
