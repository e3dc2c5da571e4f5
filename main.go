package main

import (
	"fmt"
	"os"

	"github.com/penwyp/go-wesgr/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "go-wesgr: %v\n", err)
		os.Exit(1)
	}
}
