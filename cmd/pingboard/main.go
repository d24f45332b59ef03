// Command pingboard is the operator dashboard for a pingboardd backend. It
// shows host cards with uptime, keeps them refreshed, and edits the host
// collection.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
