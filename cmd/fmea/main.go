// Command fmea administers an FMEA document store.
package main

import (
	"os"

	"github.com/roach88/fmea/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
