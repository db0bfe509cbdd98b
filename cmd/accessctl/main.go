// Package main is the entry point for the accessctl binary.
package main

import (
	"os"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
