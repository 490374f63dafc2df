// Package main is the entry point for the blendql CLI binary.
package main

import (
	"os"

	cli "blendql/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
