package main

import (
	"os"

	"github.com/quantbr/indexa/cmd/indexa/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
