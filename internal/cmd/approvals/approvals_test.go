package approvals

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("approvals", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8084 {
		t.Fatalf("expected default port 8084, got %d", cfg.Port)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("BRANDLOOM_APPROVALS_PORT", "9084")

	fs := flag.NewFlagSet("approvals", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-port", "9085"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9085 {
		t.Fatalf("expected port override 9085, got %d", cfg.Port)
	}
}
