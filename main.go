package main

import (
	"fmt"
	"os"

	"github.com/abhisek/drillz/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "drillz:", err)
		os.Exit(1)
	}
}
