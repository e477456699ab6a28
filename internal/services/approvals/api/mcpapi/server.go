// Package mcpapi exposes the approvals engine to agent runtimes over MCP.
//
// The tools are thin adapters over the same domain service the orchestration
// HTTP channel uses. Transport is stdio; process supervision and credentials
// are the host runtime's concern.
package mcpapi

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "brandloom-approvals"
	serverVersion = "0.1.0"
)

// Server hosts the approvals MCP tool surface.
type Server struct {
	mcpServer *mcp.Server
}

// NewServer creates an MCP server with the approvals tools registered.
func NewServer(svc Service) (*Server, error) {
	if svc == nil {
		return nil, errors.New("service is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(mcpServer, PendingActionsListTool(), PendingActionsListHandler(svc))
	mcp.AddTool(mcpServer, ActivityGetTool(), ActivityGetHandler(svc))
	mcp.AddTool(mcpServer, ActivityProgressTool(), ActivityProgressHandler(svc))
	mcp.AddTool(mcpServer, ItemExecutionTool(), ItemExecutionHandler(svc))
	return &Server{mcpServer: mcpServer}, nil
}

// Serve runs the MCP server on stdio until the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil || s.mcpServer == nil {
		return errors.New("mcp server is not configured")
	}
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
