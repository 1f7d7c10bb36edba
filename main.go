package main

import (
	"os"

	"github.com/spigell/hh-covergen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
