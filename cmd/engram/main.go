package main

import (
	"os"

	"github.com/tonitangpotato/neuromemory-ai/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
