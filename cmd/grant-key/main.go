// Package main provides a one-shot utility for HR access grant key generation.
//
// It emits the asymmetric keypair used by status-update authorization checks.
package main

import (
	"os"

	"github.com/tokhirov-007/ai-hr-cv/internal/platform/config"
	"github.com/tokhirov-007/ai-hr-cv/internal/tools/grantkey"
)

func main() {
	if err := grantkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate access grant key: %v", err)
	}
}
