// Package approvalsmcp launches the approvals MCP stdio sidecar.
package approvalsmcp

import (
	"context"
	"flag"

	entrypoint "github.com/brandloom/brandloom/internal/platform/cmd"
	server "github.com/brandloom/brandloom/internal/services/approvals/app"
)

// Config holds approvals MCP command configuration.
type Config struct{}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the approvals MCP stdio server.
func Run(ctx context.Context, _ Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceApprovalsMCP, func(context.Context) error {
		return server.RunMCP(ctx)
	})
}
