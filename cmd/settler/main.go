package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/settlerhq/settler/internal/cli"
)

func main() {
	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
