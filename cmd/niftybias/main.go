package main

import (
	"os"

	"github.com/quantlab-in/niftybias/cmd/niftybias/commands"
)

// main is the entry point for the niftybias CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
