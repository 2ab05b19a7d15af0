// Package main provides the entry point for the Beam CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/beam-dev/beam/cmd/beam/commands"
)

func main() {
	// Local .env values feed the config env overrides.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
