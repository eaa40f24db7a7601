package main

import (
	"os"

	"github.com/xy-planning-network/portfolio/cmd/portfolio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
