package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"whiteboard/internal/domain"
)

func (s *Server) registerDiagramTools() {
	s.mcp.AddTool(mcp.NewTool("list_objects",
		mcp.WithDescription("List all objects and connections on the current page"),
	), s.handleListObjects)

	s.mcp.AddTool(mcp.NewTool("add_object",
		mcp.WithDescription("Add a shape to the current page. Omitted width/height fall back to the shape's default size."),
		mcp.WithString("type", mcp.Description("Shape type: rectangle, circle, diamond, text, sticky-note, actor, usecase"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Y position"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("Width (optional)")),
		mcp.WithNumber("height", mcp.Description("Height (optional)")),
		mcp.WithString("text", mcp.Description("Text content (optional)")),
		mcp.WithString("fillColor", mcp.Description("Fill color hex (optional, default #ffffff)")),
		mcp.WithString("strokeColor", mcp.Description("Stroke color hex (optional, default #000000)")),
	), s.handleAddObject)

	s.mcp.AddTool(mcp.NewTool("move_object",
		mcp.WithDescription("Move an object to new coordinates"),
		mcp.WithString("objectId", mcp.Description("Object ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveObject)

	s.mcp.AddTool(mcp.NewTool("update_object",
		mcp.WithDescription("Update properties of an object. Pass a JSON object with the properties to change (x, y, width, height, rotation, text, fillColor, strokeColor, strokeWidth, zIndex). Circle and diamond shapes keep width and height equal."),
		mcp.WithString("objectId", mcp.Description("Object ID"), mcp.Required()),
		mcp.WithString("patchJSON", mcp.Description("JSON object with properties to update"), mcp.Required()),
	), s.handleUpdateObject)

	s.mcp.AddTool(mcp.NewTool("delete_object",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove an object and every connection attached to it."),
		mcp.WithString("objectId", mcp.Description("Object ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteObject)

	s.mcp.AddTool(mcp.NewTool("connect_objects",
		mcp.WithDescription("Create a directed connection between two objects on the current page"),
		mcp.WithString("sourceId", mcp.Description("Source object ID"), mcp.Required()),
		mcp.WithString("targetId", mcp.Description("Target object ID"), mcp.Required()),
		mcp.WithString("sourceHandle", mcp.Description("Source anchor: top, bottom, left, right (optional)")),
		mcp.WithString("targetHandle", mcp.Description("Target anchor: top, bottom, left, right (optional)")),
	), s.handleConnectObjects)

	s.mcp.AddTool(mcp.NewTool("delete_connection",
		mcp.WithDescription("Remove a connection from the current page"),
		mcp.WithString("connectionId", mcp.Description("Connection ID"), mcp.Required()),
	), s.handleDeleteConnection)
}

func (s *Server) handleListObjects(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := s.store.CurrentPage()
	if page == nil {
		return nil, fmt.Errorf("no current page")
	}
	return jsonResult(map[string]any{
		"pageId":      page.ID,
		"pageName":    page.Name,
		"objects":     page.Objects,
		"connections": page.Connections,
	})
}

func (s *Server) handleAddObject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	typ, err := requireString(args, "type")
	if err != nil {
		return nil, err
	}
	x, err := requireNumber(args, "x")
	if err != nil {
		return nil, err
	}
	y, err := requireNumber(args, "y")
	if err != nil {
		return nil, err
	}

	size := domain.DefaultSize(domain.ObjectType(typ))
	if w, ok := args["width"].(float64); ok && w > 0 {
		size.Width = w
	}
	if h, ok := args["height"].(float64); ok && h > 0 {
		size.Height = h
	}

	obj := domain.CanvasObject{
		Type:        domain.ObjectType(typ),
		X:           x,
		Y:           y,
		Width:       size.Width,
		Height:      size.Height,
		FillColor:   "#ffffff",
		StrokeColor: "#000000",
		StrokeWidth: 2,
	}
	if text, ok := args["text"].(string); ok {
		obj.Text = text
	}
	if fill, ok := args["fillColor"].(string); ok && fill != "" {
		obj.FillColor = fill
	}
	if stroke, ok := args["strokeColor"].(string); ok && stroke != "" {
		obj.StrokeColor = stroke
	}

	created := s.store.AddObject(obj)
	if created == nil {
		return nil, fmt.Errorf("no current page")
	}
	return jsonResult(created)
}

func (s *Server) handleMoveObject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	objectID, err := requireString(args, "objectId")
	if err != nil {
		return nil, err
	}
	x, err := requireNumber(args, "x")
	if err != nil {
		return nil, err
	}
	y, err := requireNumber(args, "y")
	if err != nil {
		return nil, err
	}
	s.store.UpdateObject(objectID, domain.ObjectPatch{X: &x, Y: &y})
	return textResult("moved"), nil
}

func (s *Server) handleUpdateObject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	objectID, err := requireString(args, "objectId")
	if err != nil {
		return nil, err
	}
	patchJSON, err := requireString(args, "patchJSON")
	if err != nil {
		return nil, err
	}
	var patch domain.ObjectPatch
	if err := json.Unmarshal([]byte(patchJSON), &patch); err != nil {
		return nil, fmt.Errorf("parse patch: %w", err)
	}
	s.store.UpdateObject(objectID, patch)
	return textResult("updated"), nil
}

func (s *Server) handleDeleteObject(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	objectID, err := requireString(args, "objectId")
	if err != nil {
		return nil, err
	}
	s.store.DeleteObject(objectID)
	return textResult("deleted"), nil
}

func (s *Server) handleConnectObjects(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sourceID, err := requireString(args, "sourceId")
	if err != nil {
		return nil, err
	}
	targetID, err := requireString(args, "targetId")
	if err != nil {
		return nil, err
	}

	page := s.store.CurrentPage()
	if page == nil {
		return nil, fmt.Errorf("no current page")
	}
	conn := domain.Connection{
		SourceID:    sourceID,
		TargetID:    targetID,
		StrokeColor: "#000000",
		StrokeWidth: 2,
		ArrowType:   domain.ArrowTypeArrow,
	}
	if sh, ok := args["sourceHandle"].(string); ok && sh != "" {
		conn.SourceHandle = sh + "-source"
	}
	if th, ok := args["targetHandle"].(string); ok && th != "" {
		conn.TargetHandle = th + "-target"
	}
	if !domain.ValidConnection(conn, page.ObjectIDs()) {
		return nil, fmt.Errorf("both endpoints must exist on the current page")
	}

	created := s.store.AddConnection(conn)
	if created == nil {
		return nil, fmt.Errorf("no current page")
	}
	return jsonResult(created)
}

func (s *Server) handleDeleteConnection(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	connectionID, err := requireString(args, "connectionId")
	if err != nil {
		return nil, err
	}
	s.store.DeleteConnection(connectionID)
	return textResult("deleted"), nil
}
