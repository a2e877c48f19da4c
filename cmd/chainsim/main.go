// Command chainsim runs smart-contract scenarios on a local chain.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/chainsim/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
