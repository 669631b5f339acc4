package main

import (
	"os"

	"github.com/unkn0wn-root/entitycache/cmd/entityctl/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
)

func main() {
	commands.SetVersionInfo(version, commit)

	// Execute prints every failure itself.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
