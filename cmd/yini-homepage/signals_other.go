//go:build !plan9

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop the server and the terminal playground.  SIGTERM
// comes from container runtimes and service managers.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
