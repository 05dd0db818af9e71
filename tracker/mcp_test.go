package tracker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/jobtrack/domain"
)

var testImpl = &mcp.Implementation{Name: "jobtrack-test", Version: "0.1.0"}

// mcpSession registers the tools on a server and returns a connected client
// session that calls them end to end.
func mcpSession(t *testing.T) (*fixture, *mcp.ClientSession) {
	t.Helper()
	f := testTracker(t)

	srv := mcp.NewServer(testImpl, nil)
	f.t.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() {
		_ = srv.Run(ctx, serverT)
	}()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return f, session
}

// callTool invokes a tool and returns the JSON text of the first TextContent.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): content is %T, not *TextContent", name, result.Content[0])
	}
	return tc.Text
}

func TestMCPListTools(t *testing.T) {
	_, session := mcpSession(t)
	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{
		"jobtrack_list", "jobtrack_recent", "jobtrack_add", "jobtrack_update", "jobtrack_delete",
		"jobtrack_pending", "jobtrack_accept_pending", "jobtrack_dismiss_pending",
		"jobtrack_settings", "jobtrack_follow_ups",
	} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}

func TestMCPAddListDelete(t *testing.T) {
	f, session := mcpSession(t)

	text := callTool(t, session, "jobtrack_add", map[string]any{"company": "Acme", "position": "Dev", "notes": "via mcp"})
	var app domain.Application
	if err := json.Unmarshal([]byte(text), &app); err != nil {
		t.Fatal(err)
	}
	if app.ID == 0 || app.Status != domain.StatusApplied {
		t.Errorf("added: got %+v", app)
	}

	text = callTool(t, session, "jobtrack_list", map[string]any{"query": "mcp"})
	var apps []domain.Application
	json.Unmarshal([]byte(text), &apps)
	if len(apps) != 1 || apps[0].Company != "Acme" {
		t.Errorf("list: got %s", text)
	}

	callTool(t, session, "jobtrack_update", map[string]any{"id": app.ID, "company": "Acme", "position": "Dev", "status": "offer"})
	got, _ := f.t.Get(context.Background(), app.ID)
	if got.Status != "offer" {
		t.Errorf("status after update: got %q, want %q", got.Status, "offer")
	}

	callTool(t, session, "jobtrack_delete", map[string]any{"id": app.ID})
	if n := len(f.all(t)); n != 0 {
		t.Errorf("after delete: got %d", n)
	}
}

func TestMCPAddValidation(t *testing.T) {
	_, session := mcpSession(t)
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "jobtrack_add",
		Arguments: map[string]any{"company": "Acme", "position": ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected tool error for empty position")
	}
}

func TestMCPPending(t *testing.T) {
	f, session := mcpSession(t)
	f.t.HoldPending(context.Background(), viewed("Globex", "SRE"))

	text := callTool(t, session, "jobtrack_pending", map[string]any{})
	if !json.Valid([]byte(text)) {
		t.Fatalf("invalid json: %s", text)
	}
	var rec domain.JobRecord
	json.Unmarshal([]byte(text), &rec)
	if rec.Company != "Globex" {
		t.Errorf("got %q, want %q", rec.Company, "Globex")
	}

	callTool(t, session, "jobtrack_accept_pending", map[string]any{})
	if n := len(f.all(t)); n != 1 {
		t.Errorf("applications: got %d, want 1", n)
	}
}

func TestMCPSettingsAndFollowUps(t *testing.T) {
	f, session := mcpSession(t)
	seed(t, f, domain.Application{Company: "Stale", Position: "p", Date: "2026-01-01"})

	text := callTool(t, session, "jobtrack_settings", map[string]any{})
	if !json.Valid([]byte(text)) {
		t.Fatalf("invalid json: %s", text)
	}
	text = callTool(t, session, "jobtrack_follow_ups", map[string]any{})
	var due []domain.Application
	json.Unmarshal([]byte(text), &due)
	if len(due) != 1 {
		t.Errorf("follow-ups: got %s", text)
	}

	text = callTool(t, session, "jobtrack_recent", map[string]any{"n": 3})
	var recent []domain.Application
	json.Unmarshal([]byte(text), &recent)
	if len(recent) != 1 {
		t.Errorf("recent: got %s", text)
	}
}
