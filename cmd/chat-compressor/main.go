// Package main is the entry point for the chat-compressor CLI.
package main

import (
	"fmt"
	"os"

	"github.com/daozhang71/chat-compressor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
