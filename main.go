package main

import (
	"fmt"
	"os"

	"github.com/rocketscienceinc/connectz-backend/internal/cli"
)

// main - is the entry point of the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := cli.Root().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "connectz: %v\n", err)
		os.Exit(1)
	}
}
