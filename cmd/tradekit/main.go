package main

import (
	"os"

	"github.com/rustyeddy/tradekit/cmd/tradekit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
