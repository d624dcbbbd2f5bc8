package main

import (
	"fmt"
	"os"

	"infinite-experiment/hangar/internal/cli"
	"infinite-experiment/hangar/internal/logging"
)

func main() {
	_ = logging.Init(os.Getenv("APP_ENV"))
	defer logging.Close()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
