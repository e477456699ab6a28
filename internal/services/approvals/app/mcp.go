package server

import (
	"context"
	"fmt"

	"github.com/brandloom/brandloom/internal/services/approvals/api/mcpapi"
	"github.com/brandloom/brandloom/internal/services/approvals/credentials"
	"github.com/brandloom/brandloom/internal/services/approvals/domain"
)

// RunMCP serves the approvals MCP tools on stdio until context cancellation.
// The tools share the HTTP channel's storage and domain wiring.
func RunMCP(ctx context.Context) error {
	srvEnv := loadServerEnv()
	store, err := openApprovalsStore(srvEnv.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	accounts := credentials.NewClient(srvEnv.CredentialsURL, srvEnv.ResourceSecret, nil)
	svc := domain.NewService(newDomainStoreAdapter(store), accounts, nil, nil)

	mcpServer, err := mcpapi.NewServer(svc)
	if err != nil {
		return fmt.Errorf("build mcp server: %w", err)
	}
	return mcpServer.Serve(ctx)
}
