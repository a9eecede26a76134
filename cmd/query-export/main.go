// Command query-export exports the subset of a stack matching a query,
// together with everything that subset depends on, so the result is
// self-contained and re-importable.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A .env next to the invocation is a convenience for local use;
	// absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
