package main

import (
	"fmt"
	"os"

	"resource-index/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "resindex:", err)
		os.Exit(1)
	}
}
