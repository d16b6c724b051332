// Package main provides the sqldoctor CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/sqldoctor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
