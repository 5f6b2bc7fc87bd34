// Package main is the entry point for the refyne-linkedin CLI.
package main

import (
	"os"

	"github.com/jmylchreest/refyne-linkedin/cmd/refyne-linkedin/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
