// Package main provides the entry point for log-analyzer.
// The analyzer streams web-server logs once and prints traffic, level and
// error statistics, optionally exporting them as JSON.
package main

import (
	"os"

	"log-analyzer/cmd/analyzer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
