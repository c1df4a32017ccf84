package mcp

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func testEnvelope(name, status string, payload any, errPayload *errorPayload) *mcp.CallToolResult {
	text := `{"tool":"` + name + `","status":"` + status + `"`
	if errPayload != nil {
		text += `,"details":"` + errPayload.Details + `"`
	}
	text += "}"
	return mcp.NewToolResultText(text)
}

func TestSafeInvokeTool_PanicBecomesEnvelope(t *testing.T) {
	resp, err := safeInvokeTool(slog.Default(), "apply_cedarscript", testEnvelope, func() (*mcp.CallToolResult, error) {
		panic("boom")
	})
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if resp == nil || len(resp.Content) == 0 {
		t.Fatal("expected response content")
	}
	tc, ok := resp.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %#v", resp.Content[0])
	}
	if !strings.Contains(tc.Text, `"status":"tool_error"`) {
		t.Fatalf("expected tool_error status, got %s", tc.Text)
	}
	if !strings.Contains(tc.Text, "tool panic: boom") {
		t.Fatalf("expected panic message, got %s", tc.Text)
	}
}

func TestSafeInvokeTool_NoPanicPassesThrough(t *testing.T) {
	want := mcp.NewToolResultText(`{"ok":true}`)
	resp, err := safeInvokeTool(slog.Default(), "parse_cedarscript", testEnvelope, func() (*mcp.CallToolResult, error) {
		return want, nil
	})
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	tc, ok := resp.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %#v", resp.Content[0])
	}
	if tc.Text != `{"ok":true}` {
		t.Fatalf("unexpected response text: %s", tc.Text)
	}
}
