// Command xnote is the CLI front door over xnote's internal subsystems:
// vault scanning, the knowledge index, the filesystem watcher, the
// plugin runtime, and the AI tool orchestrator.
package main

import (
	"fmt"
	"os"

	"github.com/xnote-dev/xnote/cmd/xnote/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
