package main

import (
	"os"

	"github.com/twarcsql/twarcsql/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
