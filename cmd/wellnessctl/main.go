// Package main is the operator CLI for the wellnesshub badge engine.
package main

import "wellnesshub/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
