// Package main is the entry point for the vigil CLI/TUI.
package main

import (
	"os"

	"github.com/nexus-vision/vigil/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
