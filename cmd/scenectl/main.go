package main

import (
	"fmt"
	"os"

	"github.com/opencommotion/scenekit/internal/cli"
)

// main is the entry point for the scenectl CLI binary.
func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
