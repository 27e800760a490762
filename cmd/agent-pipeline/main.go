package main

import (
	"os"

	"github.com/rcliao/agent-pipeline/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
