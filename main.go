package main

import (
	"github.com/tyniaiworkspace-dev/poe2-mcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.Exit(err)
	}
}
