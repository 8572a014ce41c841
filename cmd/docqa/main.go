// Package main provides the entry point for the docqa CLI.
package main

import (
	"os"

	"github.com/docqa-dev/docqa/cmd/docqa/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
