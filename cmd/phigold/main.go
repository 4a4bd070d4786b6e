// Command phigold validates, inspects, re-encodes and verifies
// canonical analysis documents.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/irrlab/phigold/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Command handlers report their own failures through the output
	// formatter and return an ExitError carrying only the process exit
	// code. Anything else is a usage error cobra was told not to print.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
