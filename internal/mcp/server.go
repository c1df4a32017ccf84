// Package mcp registers the CEDARScript tools on an MCP stdio server.
// Everything here is protocol glue: the security decisions live in
// internal/security and the file mutations in internal/editor.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cedarscript/cedarmcp/internal/editor"
	"github.com/cedarscript/cedarmcp/internal/security"
	"github.com/cedarscript/cedarmcp/internal/version"
)

const (
	serverName    = "CEDARScript Editor"
	schemaVersion = "cedarscript-envelope/v1"
	policyURI     = "resource://cedarscript/policy"
)

// Server wires one immutable validator and one engine runner into the
// MCP protocol. Both are injected at construction; no tool reaches into
// process-global state.
type Server struct {
	log       *slog.Logger
	validator *security.Validator
	runner    *editor.Runner
	sessionID string
}

func New(log *slog.Logger, validator *security.Validator, runner *editor.Runner) *Server {
	return &Server{
		log:       log,
		validator: validator,
		runner:    runner,
		sessionID: uuid.NewString(),
	}
}

// Run serves MCP over stdio until the transport closes.
func (s *Server) Run() error {
	srv := server.NewMCPServer(
		serverName,
		version.Version,
		server.WithResourceCapabilities(false, true),
		server.WithLogging(),
	)
	s.register(srv)

	policy := s.validator.Policy()
	s.log.Info("starting CEDARScript MCP server",
		"session_id", s.sessionID,
		"root", policy.Root(),
		"read_only", policy.ReadOnly(),
		"max_file_size", policy.MaxFileSize(),
	)
	return server.ServeStdio(srv)
}

func (s *Server) register(srv *server.MCPServer) {
	srv.AddResource(mcp.NewResource(
		policyURI,
		"CEDARScript Policy",
		mcp.WithResourceDescription("Active path-validation policy for this session."),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		out, err := json.MarshalIndent(s.policySnapshot(), "", "  ")
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      policyURI,
			MIMEType: "application/json",
			Text:     string(out),
		}}, nil
	})

	s.addTool(srv, mcp.NewTool("parse_cedarscript",
		mcp.WithDescription("Parse and validate CEDARScript commands without executing them."),
		mcp.WithString("content", mcp.Required(), mcp.Description("CEDARScript commands to parse.")),
	), s.handleParse)

	s.addTool(srv, mcp.NewTool("apply_cedarscript",
		mcp.WithDescription("Apply CEDARScript transformations to files under the project root. Defaults to a dry-run preview."),
		mcp.WithString("commands", mcp.Required(), mcp.Description("CEDARScript commands to apply.")),
		mcp.WithString("root", mcp.Required(), mcp.Description("Project root directory path.")),
		mcp.WithBoolean("dry_run", mcp.Description("Preview changes without writing (default true).")),
	), s.handleApply)

	s.addTool(srv, mcp.NewTool("list_capabilities",
		mcp.WithDescription("List server capabilities, engine version and security settings."),
	), s.handleCapabilities)
}

// addTool wraps a payload-producing handler with panic containment,
// logging and envelope rendering.
func (s *Server) addTool(srv *server.MCPServer, tool mcp.Tool, h func(context.Context, mcp.CallToolRequest) (any, error)) {
	name := tool.Name
	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return safeInvokeTool(s.log, name, s.envelope, func() (*mcp.CallToolResult, error) {
			s.log.Info("tool called", "tool", name)
			payload, err := h(ctx, request)
			if err != nil {
				s.log.Warn("tool failed", "tool", name, "error", err)
				return s.envelope(name, "error", nil, translateError(err)), nil
			}
			return s.envelope(name, "ok", payload, nil), nil
		})
	})
}

func (s *Server) envelope(name, status string, payload any, errPayload *errorPayload) *mcp.CallToolResult {
	body := map[string]any{
		"tool":           name,
		"status":         status,
		"session_id":     s.sessionID,
		"schema_version": schemaVersion,
	}
	if payload != nil {
		body["payload"] = payload
	}
	if errPayload != nil {
		body["error"] = errPayload
	}
	b, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(`{"status":"error","error":{"code":-32603,"type":"InternalError","details":"envelope marshal failed"}}`)
	}
	res := mcp.NewToolResultText(string(b))
	res.IsError = errPayload != nil
	return res
}

func (s *Server) handleParse(ctx context.Context, request mcp.CallToolRequest) (any, error) {
	content := mcp.ParseString(request, "content", "")
	if content == "" {
		return nil, &editor.ParseError{Detail: "content is required"}
	}
	commands, err := s.runner.Parse(ctx, content)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success":  true,
		"count":    len(commands),
		"commands": commands,
	}, nil
}

func (s *Server) handleApply(ctx context.Context, request mcp.CallToolRequest) (any, error) {
	commands := mcp.ParseString(request, "commands", "")
	if commands == "" {
		return nil, &editor.ParseError{Detail: "commands is required"}
	}
	root := mcp.ParseString(request, "root", "")
	dryRun := mcp.ParseBoolean(request, "dry_run", true)

	// A caller-supplied root derives a validator scoped to it; the
	// session policy (read-only, size ceiling, denylist) carries over
	// and the session validator itself is never widened.
	v := s.validator
	if root != "" && root != v.Policy().Root() {
		derived, err := v.WithRoot(root)
		if err != nil {
			return nil, err
		}
		v = derived
	}

	if dryRun {
		preview, err := s.runner.Preview(ctx, v, commands)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"success": true,
			"dry_run": true,
			"preview": preview,
		}, nil
	}

	outcome, err := s.runner.Execute(ctx, v, commands)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success":       true,
		"dry_run":       false,
		"command_count": outcome.CommandCount,
		"results":       outcome.Applied,
	}, nil
}

func (s *Server) handleCapabilities(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
	return s.Capabilities(ctx), nil
}

// Capabilities describes the server for clients and the CLI.
func (s *Server) Capabilities(ctx context.Context) map[string]any {
	policy := s.validator.Policy()
	return map[string]any{
		"server":         "cedarscript-mcp-server",
		"version":        version.Version,
		"engine_version": s.runner.EngineVersion(ctx),
		"features": map[string]any{
			"commands": []string{"UPDATE", "CREATE", "DELETE", "MOVE"},
			"segments": []string{"imports", "functions", "classes", "methods"},
			"actions":  []string{"INSERT", "DELETE", "REPLACE", "MOVE"},
			"dry_run":  true,
		},
		"security": map[string]any{
			"path_validation": true,
			"read_only_mode":  policy.ReadOnly(),
			"file_size_limit": policy.MaxFileSize(),
			"denylist":        policy.DenylistPatterns(),
		},
	}
}

func (s *Server) policySnapshot() map[string]any {
	policy := s.validator.Policy()
	return map[string]any{
		"status":         "ok",
		"schema_version": schemaVersion,
		"session_id":     s.sessionID,
		"root":           policy.Root(),
		"read_only":      policy.ReadOnly(),
		"max_file_size":  policy.MaxFileSize(),
		"denylist":       policy.DenylistPatterns(),
	}
}
