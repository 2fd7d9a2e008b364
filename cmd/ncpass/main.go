package main

import (
	"os"

	"github.com/jmcleod/ncpass/cmd/ncpass/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
