// Package main is the xenocrm command-line client.
package main

import (
	"os"

	"github.com/leapstack-labs/xenocrm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
