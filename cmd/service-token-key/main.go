// Package main provides a one-shot utility for service token key generation.
//
// It emits the asymmetric keypair used by orchestration channel checks.
package main

import (
	"os"

	"github.com/brandloom/brandloom/internal/platform/config"
	"github.com/brandloom/brandloom/internal/tools/servicetokenkey"
)

func main() {
	if err := servicetokenkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate service token key: %v", err)
	}
}
