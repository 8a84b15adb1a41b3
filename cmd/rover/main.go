// Package main is the single-binary entrypoint for Rover.
package main

import "github.com/0xdurkle/rover/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
