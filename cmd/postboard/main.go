// Command postboard serves the posts dashboard and its JSON API, and carries
// the operational subcommands around it (reseed, migrate, fixtures).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
