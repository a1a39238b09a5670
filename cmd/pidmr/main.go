// Command pidmr is the command line client for the PID meta-resolver
// daemon.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pidmr:", err)
		os.Exit(1)
	}
}
