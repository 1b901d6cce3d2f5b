package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/warnbridge/warnbridge/cmd/warnbridge/cmd"
)

var (
	version = "dev"
)

func main() {
	cmd.SetVersion(version)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
