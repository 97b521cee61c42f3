package main

import (
	"os"

	"github.com/bnema/planctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
