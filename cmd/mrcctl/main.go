// Package main is the entry point for the mrcctl CLI.
package main

import (
	"os"

	"github.com/microsoft/AzureSearch-MRC/internal/cli"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
