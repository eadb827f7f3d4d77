// Command geodataset inspects, converts and regrids geophysical datasets.
package main

import (
	"os"

	"github.com/beetlebugorg/geodataset/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
