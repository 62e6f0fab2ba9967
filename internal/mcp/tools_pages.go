package mcpserver

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"whiteboard/internal/export"
)

func (s *Server) registerPageTools() {
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all pages with their IDs, names, and object counts"),
	), s.handleListPages)

	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a new page and switch to it"),
		mcp.WithString("name", mcp.Description("Page name (optional, defaults to a timestamped label)")),
	), s.handleCreatePage)

	s.mcp.AddTool(mcp.NewTool("rename_page",
		mcp.WithDescription("Rename a page"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenamePage)

	s.mcp.AddTool(mcp.NewTool("delete_page",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a page and everything on it. The last remaining page cannot be deleted."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeletePage)

	s.mcp.AddTool(mcp.NewTool("switch_page",
		mcp.WithDescription("Make a page the current page (all object operations target the current page)"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
	), s.handleSwitchPage)

	s.mcp.AddTool(mcp.NewTool("export_page",
		mcp.WithDescription("Render the current page to a PNG file"),
		mcp.WithString("path", mcp.Description("Output file path"), mcp.Required()),
	), s.handleExportPage)
}

func (s *Server) handleListPages(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type pageInfo struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Objects     int    `json:"objects"`
		Connections int    `json:"connections"`
		Current     bool   `json:"current"`
	}
	currentID := s.store.CurrentPageID()
	var infos []pageInfo
	for _, p := range s.store.Pages() {
		infos = append(infos, pageInfo{
			ID:          p.ID,
			Name:        p.Name,
			Objects:     len(p.Objects),
			Connections: len(p.Connections),
			Current:     p.ID == currentID,
		})
	}
	return jsonResult(infos)
}

func (s *Server) handleCreatePage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	p := s.store.CreatePage(name)
	return jsonResult(map[string]string{"id": p.ID, "name": p.Name})
}

func (s *Server) handleRenamePage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := requireString(args, "pageId")
	if err != nil {
		return nil, err
	}
	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}
	s.store.RenamePage(pageID, name)
	return textResult("renamed"), nil
}

func (s *Server) handleDeletePage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := requireString(args, "pageId")
	if err != nil {
		return nil, err
	}
	if err := s.store.DeletePage(pageID); err != nil {
		return nil, err
	}
	return textResult("deleted"), nil
}

func (s *Server) handleSwitchPage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := requireString(args, "pageId")
	if err != nil {
		return nil, err
	}
	s.store.SwitchPage(pageID)
	return textResult("switched"), nil
}

func (s *Server) handleExportPage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	page := s.store.CurrentPage()
	if page == nil {
		return nil, fmt.Errorf("no current page")
	}
	data, err := export.Render(*page)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write png: %w", err)
	}
	return textResult("exported to " + path), nil
}
