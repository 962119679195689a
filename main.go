package main

import (
	"os"

	"github.com/plansketch/plansketch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
