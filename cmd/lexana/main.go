package main

import (
	"os"

	"github.com/msto63/lexana/cmd/lexana/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
