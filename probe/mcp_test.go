package probe

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/viewport/probe/report"
)

var testMCPImpl = &mcp.Implementation{Name: "viewport-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	p := newTestProber(nil, openFake(newFakePage(bootstrapMins, 0), nil))
	srv := mcp.NewServer(testMCPImpl, nil)
	p.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCall(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return result
}

func mcpText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty content")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return tc.Text
}

// --- viewport_presets ---

func TestMCP_Presets(t *testing.T) {
	session := mcpSession(t)

	result := mcpCall(t, session, "viewport_presets", map[string]any{})
	if err := result.GetError(); err != nil {
		t.Fatalf("tool error: %v", err)
	}
	var resp struct {
		Presets []PresetInfo `json:"presets"`
	}
	if err := json.Unmarshal([]byte(mcpText(t, result)), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Presets) != 2 || resp.Presets[0].Name != "bootstrap" {
		t.Errorf("presets: got %+v", resp.Presets)
	}
}

// --- viewport_probe ---

func TestMCP_Probe(t *testing.T) {
	session := mcpSession(t)

	result := mcpCall(t, session, "viewport_probe", map[string]any{
		"url":     "https://example.com",
		"widths":  []int{600, 1300},
		"queries": []string{"<lg"},
	})
	if err := result.GetError(); err != nil {
		t.Fatalf("tool error: %v", err)
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(mcpText(t, result)), &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rep.Samples) != 2 {
		t.Fatalf("samples: got %d", len(rep.Samples))
	}
	if rep.Samples[0].Current != "sm" || !rep.Samples[0].Matches["<lg"] {
		t.Errorf("600px: got %+v", rep.Samples[0])
	}
	if rep.Samples[1].Current != "xl" || rep.Samples[1].Matches["<lg"] {
		t.Errorf("1300px: got %+v", rep.Samples[1])
	}
}

func TestMCP_ProbeUnknownPreset(t *testing.T) {
	session := mcpSession(t)

	result := mcpCall(t, session, "viewport_probe", map[string]any{
		"url":    "https://example.com",
		"preset": "tailwind",
	})
	err := result.GetError()
	if err == nil {
		t.Fatal("expected tool error")
	}
	if !strings.Contains(err.Error(), "unknown preset") {
		t.Errorf("error: got %v", err)
	}
}
