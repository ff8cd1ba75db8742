// Command secrules serves and browses a bilingual corpus of security
// writeups for MCP server authors.
package main

import (
	"fmt"
	"os"

	"secrules/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
