// ABOUTME: Entry point for the subme CLI
// ABOUTME: Command-line client for the SubMe subscription-box marketplace

package main

import (
	"fmt"
	"os"

	"github.com/dangquan18/subme/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
