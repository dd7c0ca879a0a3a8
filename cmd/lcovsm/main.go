package main

import (
	"fmt"
	"os"

	"github.com/zjy-dev/lcov-sourcemap/cmd/lcovsm/app"
)

func main() {
	if err := app.NewLcovsmCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
