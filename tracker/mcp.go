package tracker

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/jobtrack/domain"
	"github.com/hazyhaar/jobtrack/kit"
)

// RegisterMCP registers the tracker tools on an MCP server.
func (t *Tracker) RegisterMCP(srv *mcp.Server) {
	t.registerListTool(srv)
	t.registerRecentTool(srv)
	t.registerAddTool(srv)
	t.registerUpdateTool(srv)
	t.registerDeleteTool(srv)
	t.registerPendingTools(srv)
	t.registerSettingsTool(srv)
	t.registerFollowUpsTool(srv)
}

func (t *Tracker) tool(srv *mcp.Server, tool *mcp.Tool, endpoint kit.Endpoint, decode func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error)) {
	kit.RegisterMCPTool(srv, tool, kit.Logging(t.logger, tool.Name)(endpoint), decode)
}

var applicationProps = map[string]any{
	"company":  map[string]any{"type": "string"},
	"position": map[string]any{"type": "string"},
	"date":     map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to today"},
	"status":   map[string]any{"type": "string", "description": "applied, interview, offer, rejected, withdrawn or any other label"},
	"notes":    map[string]any{"type": "string"},
	"url":      map[string]any{"type": "string"},
}

func (t *Tracker) registerListTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "jobtrack_list",
		Description: "List tracked job applications, optionally filtered and sorted.",
		InputSchema: kit.InputSchema(map[string]any{
			"query":  map[string]any{"type": "string", "description": "Case-insensitive match on company, position and notes"},
			"status": map[string]any{"type": "string", "description": "Status filter, or all"},
			"sort":   map[string]any{"type": "string", "enum": []any{SortDateDesc, SortDateAsc, SortCompany, SortStatus}},
		}, nil),
	}
	t.tool(srv, tool, func(ctx context.Context, req any) (any, error) {
		return t.List(ctx, *req.(*Filter))
	}, kit.DecodeArgs[Filter]())
}

type recentRequest struct {
	N int `json:"n"`
}

func (t *Tracker) registerRecentTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "jobtrack_recent",
		Description: "Most recent applications by date.",
		InputSchema: kit.InputSchema(map[string]any{
			"n": map[string]any{"type": "integer", "description": "How many (default 5)"},
		}, nil),
	}
	t.tool(srv, tool, func(ctx context.Context, req any) (any, error) {
		n := req.(*recentRequest).N
		if n <= 0 {
			n = 5
		}
		return t.Recent(ctx, n)
	}, kit.DecodeArgs[recentRequest]())
}

func (t *Tracker) registerAddTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "jobtrack_add",
		Description: "Record a job application by hand.",
		InputSchema: kit.InputSchema(applicationProps, []string{"company", "position"}),
	}
	t.tool(srv, tool, func(ctx context.Context, req any) (any, error) {
		return t.Add(ctx, *req.(*domain.Application))
	}, kit.DecodeArgs[domain.Application]())
}

func (t *Tracker) registerUpdateTool(srv *mcp.Server) {
	props := map[string]any{"id": map[string]any{"type": "integer"}}
	for k, v := range applicationProps {
		props[k] = v
	}
	tool := &mcp.Tool{
		Name:        "jobtrack_update",
		Description: "Edit a tracked application. Company and position are required.",
		InputSchema: kit.InputSchema(props, []string{"id", "company", "position"}),
	}
	t.tool(srv, tool, func(ctx context.Context, req any) (any, error) {
		return t.Update(ctx, *req.(*domain.Application))
	}, kit.DecodeArgs[domain.Application]())
}

type idRequest struct {
	ID int64 `json:"id"`
}

func (t *Tracker) registerDeleteTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "jobtrack_delete",
		Description: "Delete one tracked application.",
		InputSchema: kit.InputSchema(map[string]any{"id": map[string]any{"type": "integer"}}, []string{"id"}),
	}
	t.tool(srv, tool, func(ctx context.Context, req any) (any, error) {
		id := req.(*idRequest).ID
		if err := t.Delete(ctx, id); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": id}, nil
	}, kit.DecodeArgs[idRequest]())
}

type empty struct{}

func (t *Tracker) registerPendingTools(srv *mcp.Server) {
	noArgs := kit.InputSchema(map[string]any{}, nil)

	t.tool(srv, &mcp.Tool{
		Name:        "jobtrack_pending",
		Description: "Show the job detected on the last viewed posting, if any.",
		InputSchema: noArgs,
	}, func(ctx context.Context, _ any) (any, error) {
		return t.Pending(ctx)
	}, kit.DecodeArgs[empty]())

	t.tool(srv, &mcp.Tool{
		Name:        "jobtrack_accept_pending",
		Description: "Save the pending detected job as an application.",
		InputSchema: noArgs,
	}, func(ctx context.Context, _ any) (any, error) {
		return t.AcceptPending(ctx)
	}, kit.DecodeArgs[empty]())

	t.tool(srv, &mcp.Tool{
		Name:        "jobtrack_dismiss_pending",
		Description: "Forget the pending detected job.",
		InputSchema: noArgs,
	}, func(ctx context.Context, _ any) (any, error) {
		if err := t.DismissPending(ctx); err != nil {
			return nil, err
		}
		return map[string]bool{"dismissed": true}, nil
	}, kit.DecodeArgs[empty]())
}

func (t *Tracker) registerSettingsTool(srv *mcp.Server) {
	t.tool(srv, &mcp.Tool{
		Name:        "jobtrack_settings",
		Description: "Current tracker settings.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}, func(ctx context.Context, _ any) (any, error) {
		return t.Settings(ctx)
	}, kit.DecodeArgs[empty]())
}

func (t *Tracker) registerFollowUpsTool(srv *mcp.Server) {
	t.tool(srv, &mcp.Tool{
		Name:        "jobtrack_follow_ups",
		Description: "Applications still marked applied after the follow-up delay.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}, func(ctx context.Context, _ any) (any, error) {
		return t.FollowUps(ctx, t.clock.Now())
	}, kit.DecodeArgs[empty]())
}
