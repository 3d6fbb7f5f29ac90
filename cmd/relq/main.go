package main

import (
	"os"

	"github.com/relq-dev/relq/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
