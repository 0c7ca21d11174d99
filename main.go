package main

import (
	"fmt"
	"os"

	"github.com/vasylcode/matchwatch/cmd/matchwatch"
)

func main() {
	if err := matchwatch.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
