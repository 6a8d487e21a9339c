// Package main is the entry point for pgedge-revreport.
package main

import (
	"fmt"
	"os"

	"github.com/pgEdge/pgedge-revreport/internal/cli"

	// Register sources
	_ "github.com/pgEdge/pgedge-revreport/internal/source/postgres"
	_ "github.com/pgEdge/pgedge-revreport/internal/source/synthetic"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
