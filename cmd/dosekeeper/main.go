package main

import (
	"fmt"
	"os"

	"github.com/gmsas95/dosekeeper-cli/internal/cli"
	"github.com/gmsas95/dosekeeper-cli/internal/config"
)

var version = "dev"

func main() {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	cli.Execute(version)
}
