package main

import (
	"errors"
	"os"

	"github.com/anthon-sd/ab-test-toolkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if errors.Is(err, cli.ErrInterrupted) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
