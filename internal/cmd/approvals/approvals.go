// Package approvals parses approvals service flags and launches the service.
package approvals

import (
	"context"
	"flag"

	entrypoint "github.com/brandloom/brandloom/internal/platform/cmd"
	server "github.com/brandloom/brandloom/internal/services/approvals/app"
)

// Config holds approvals command configuration.
type Config struct {
	Port int `env:"BRANDLOOM_APPROVALS_PORT" envDefault:"8084"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The approvals HTTP server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the approvals HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceApprovals, func(context.Context) error {
		return server.Run(ctx, cfg.Port)
	})
}
