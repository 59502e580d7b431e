// ABOUTME: Entry point for the unimeet CLI
// ABOUTME: Terminal client for the UniMeet campus event and messaging API

package main

import (
	"fmt"
	"os"

	"github.com/dbrow221/UniMeet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
