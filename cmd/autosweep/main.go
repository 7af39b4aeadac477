package main

import (
	"os"

	"github.com/suraj93/autosweep/cmd/autosweep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
