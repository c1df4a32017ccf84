package mcp

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
)

type envelopeFunc func(name, status string, payload any, errPayload *errorPayload) *mcp.CallToolResult

// safeInvokeTool converts panics from tool handlers into envelope
// results instead of crashing the process and closing the stdio
// transport.
func safeInvokeTool(log *slog.Logger, name string, envFn envelopeFunc, h func() (*mcp.CallToolResult, error)) (resp *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("tool panic: %v", r)
			log.Error("tool handler panicked", "tool", name, "panic", fmt.Sprint(r))
			resp = envFn(name, "tool_error", nil, &errorPayload{
				Code:    CodeInternalError,
				Type:    "InternalError",
				Details: msg,
			})
			err = nil
		}
	}()
	return h()
}
