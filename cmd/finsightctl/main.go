package main

import (
	"os"

	"finsight/cmd/finsightctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
