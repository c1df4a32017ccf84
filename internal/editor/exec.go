package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
)

// DefaultBinary is the engine executable looked up on PATH when no
// explicit binary is configured.
const DefaultBinary = "cedarscript"

// ResolveBinary picks the engine executable: explicit argument first,
// then the CEDARSCRIPT_BIN environment variable, then the default.
func ResolveBinary(configured string) string {
	if b := strings.TrimSpace(configured); b != "" {
		return b
	}
	if b := strings.TrimSpace(os.Getenv("CEDARSCRIPT_BIN")); b != "" {
		return b
	}
	return DefaultBinary
}

// ExecEngine talks to the CEDARScript engine as a subprocess: commands
// go in on stdin, JSON comes back on stdout, diagnostics on stderr.
type ExecEngine struct {
	bin string
}

func NewExecEngine(bin string) *ExecEngine {
	return &ExecEngine{bin: ResolveBinary(bin)}
}

type parseResponse struct {
	Commands []Command `json:"commands"`
	Error    string    `json:"error,omitempty"`
}

type planResponse struct {
	Commands     []Command    `json:"commands"`
	Changes      []FileChange `json:"changes"`
	Error        string       `json:"error,omitempty"`
	CommandIndex *int         `json:"command_index,omitempty"`
}

func (e *ExecEngine) Parse(ctx context.Context, content string) ([]Command, error) {
	out, stderr, err := e.run(ctx, content, "parse", "-")
	if err != nil {
		return nil, &ParseError{Detail: firstNonEmpty(stderr, err.Error())}
	}
	var resp parseResponse
	if jsonErr := json.Unmarshal(out, &resp); jsonErr != nil {
		return nil, &ParseError{Detail: "malformed engine response: " + jsonErr.Error()}
	}
	if resp.Error != "" {
		return nil, &ParseError{Detail: resp.Error}
	}
	return resp.Commands, nil
}

func (e *ExecEngine) Plan(ctx context.Context, root, commands string) (*PlanResult, error) {
	out, stderr, err := e.run(ctx, commands, "apply", "--dry-run", "--root", root, "-")
	if err != nil {
		return nil, &ExecError{CommandIndex: -1, Detail: firstNonEmpty(stderr, err.Error())}
	}
	var resp planResponse
	if jsonErr := json.Unmarshal(out, &resp); jsonErr != nil {
		return nil, &ExecError{CommandIndex: -1, Detail: "malformed engine response: " + jsonErr.Error()}
	}
	if resp.Error != "" {
		idx := -1
		if resp.CommandIndex != nil {
			idx = *resp.CommandIndex
		}
		return nil, &ExecError{CommandIndex: idx, Detail: resp.Error}
	}
	return &PlanResult{Commands: resp.Commands, Changes: resp.Changes}, nil
}

func (e *ExecEngine) Version(ctx context.Context) string {
	out, _, err := e.run(ctx, "", "version")
	if err != nil {
		return "unknown"
	}
	v := strings.TrimSpace(string(out))
	if v == "" {
		return "unknown"
	}
	return v
}

func (e *ExecEngine) run(ctx context.Context, stdin string, args ...string) ([]byte, string, error) {
	cmd := exec.CommandContext(ctx, e.bin, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), strings.TrimSpace(stderr.String()), err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
