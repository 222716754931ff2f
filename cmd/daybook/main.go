package main

import (
	"os"

	"github.com/rustyeddy/daybook/cmd/daybook/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
