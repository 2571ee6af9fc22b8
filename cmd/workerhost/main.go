package main

import (
	"os"

	"github.com/wippyai/worker-host/cmd/workerhost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
