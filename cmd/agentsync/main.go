package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/agentsync/agentsync/internal/cli"
)

// Exit codes: 0 everything in sync, 1 drift or per-tool failures found,
// 2 fatal error (bad invocation, unreadable canonical source).
func main() {
	err := cli.Execute()
	if err == nil {
		return
	}
	if errors.Is(err, cli.ErrDrift) {
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(2)
}
