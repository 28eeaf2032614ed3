package main

import (
	"os"

	"github.com/mdview/mdv/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
