package main

import (
	"errors"
	"fmt"
	"os"

	"chatline/cli"
	"chatline/storage"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	if err := cli.Execute(Version, License); err != nil {
		var locked *storage.LockedError
		if errors.As(err, &locked) {
			fmt.Fprintf(os.Stderr, "Error: %v\n\nClose the other chatline window or pick another instance with --instance.\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
