package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/neurolocus/internal/cli"
	"github.com/ppiankov/neurolocus/internal/knowledge"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if knowledge.IsConfigurationError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
