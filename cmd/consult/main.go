// Command consult runs FUO consults from the terminal and manages the knowledge base and
// MCP client registration.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
