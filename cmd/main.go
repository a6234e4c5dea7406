package main

import (
	"os"

	"github.com/estategraph/estategraph/cmd/estategraph"
)

func main() {
	if err := estategraph.Execute(); err != nil {
		os.Exit(1)
	}
}
